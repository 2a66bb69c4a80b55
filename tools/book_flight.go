package tools

import (
	"context"

	"github.com/petasbytes/travel-agent/internal/policy"
)

type BookFlightInput struct {
	FlightID string `json:"flight_id" jsonschema_description:"Offer id returned by search_flights"`
}

type BookFlightOutput struct {
	Status    string `json:"status"`
	FlightID  string `json:"flight_id"`
	BookingID string `json:"booking_id"`
}

// BookFlightDefinition registers book_flight. Booking is simulated; nothing
// outside the process changes.
func BookFlightDefinition() Definition {
	return NewDefinition(
		policy.ActionBookFlight,
		"Book a flight offer by its id. Only call after checking the calendar for the flight date and finding it free.",
		[]Param{
			{Name: "flight_id", Type: TypeString, Description: "Offer id returned by search_flights", Required: true},
		},
		func(_ context.Context, in BookFlightInput) (BookFlightOutput, error) {
			return BookFlightOutput{
				Status:    policy.BookingConfirmed,
				FlightID:  in.FlightID,
				BookingID: "RES-" + in.FlightID,
			}, nil
		},
	)
}
