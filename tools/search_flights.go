package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/petasbytes/travel-agent/internal/policy"
)

const iataPattern = `^[A-Za-z]{3}$`

type SearchFlightsInput struct {
	Origin      string `json:"origin" jsonschema_description:"Origin airport IATA code, e.g. DXB"`
	Destination string `json:"destination" jsonschema_description:"Destination airport IATA code, e.g. CAI"`
	Date        string `json:"date" jsonschema_description:"Outbound date, YYYY-MM-DD"`
}

type SearchFlightsOutput struct {
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Date        string          `json:"date"`
	Offers      []flights.Offer `json:"offers"`
	CheapestID  string          `json:"cheapest_id,omitempty"`
}

// SearchFlightsDefinition registers search_flights backed by s.
func SearchFlightsDefinition(s FlightSearcher) Definition {
	return NewDefinition(
		policy.ActionSearchFlights,
		"Search real-time one-way flights. Returns up to five offers with id, airline, price, duration in minutes and a booking link, plus the id of the cheapest offer.",
		[]Param{
			{Name: "origin", Type: TypeString, Description: "Origin airport IATA code, e.g. DXB", Required: true, Pattern: iataPattern},
			{Name: "destination", Type: TypeString, Description: "Destination airport IATA code, e.g. CAI", Required: true, Pattern: iataPattern},
			{Name: "date", Type: TypeString, Description: "Outbound date, YYYY-MM-DD", Required: true, Format: FormatDate},
		},
		func(ctx context.Context, in SearchFlightsInput) (SearchFlightsOutput, error) {
			return searchFlights(ctx, s, in)
		},
	)
}

func searchFlights(ctx context.Context, s FlightSearcher, in SearchFlightsInput) (SearchFlightsOutput, error) {
	if s == nil {
		return SearchFlightsOutput{}, errors.New("flight search is not configured")
	}
	out := SearchFlightsOutput{
		Origin:      strings.ToUpper(in.Origin),
		Destination: strings.ToUpper(in.Destination),
		Date:        in.Date,
	}
	offers, err := s.Search(ctx, out.Origin, out.Destination, out.Date)
	if err != nil {
		return SearchFlightsOutput{}, err
	}
	if offers == nil {
		offers = []flights.Offer{}
	}
	out.Offers = offers
	if best, ok := policy.Cheapest(offers); ok {
		out.CheapestID = best.ID
	}
	return out, nil
}
