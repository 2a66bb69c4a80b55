package tools

import (
	"context"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/flights"
)

// FlightSearcher finds one-way offers for a route and date.
type FlightSearcher interface {
	Search(ctx context.Context, origin, destination, date string) ([]flights.Offer, error)
}

// CalendarChecker reports the user's availability on a date.
type CalendarChecker interface {
	Check(ctx context.Context, date string) (calendar.Availability, error)
}

// Deps are the backends the travel actions call.
type Deps struct {
	Flights  FlightSearcher
	Calendar CalendarChecker
}

// NewTravelRegistry builds the sealed registry of travel actions in catalog order.
func NewTravelRegistry(deps Deps) (*Registry, error) {
	return NewRegistry(
		SearchFlightsDefinition(deps.Flights),
		CheckCalendarDefinition(deps.Calendar),
		BookFlightDefinition(),
	)
}
