package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/petasbytes/travel-agent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFlights struct {
	offers []flights.Offer
	err    error
	calls  int
}

func (s *stubFlights) Search(_ context.Context, origin, destination, date string) ([]flights.Offer, error) {
	s.calls++
	return s.offers, s.err
}

func newTravel(t *testing.T, f tools.FlightSearcher) *tools.Registry {
	t.Helper()
	store, err := calendar.NewStore(calendar.DefaultEvents())
	require.NoError(t, err)
	r, err := tools.NewTravelRegistry(tools.Deps{Flights: f, Calendar: store})
	require.NoError(t, err)
	return r
}

func invoke(t *testing.T, r *tools.Registry, name, args string) (string, error) {
	t.Helper()
	def, err := r.Prepare(name, json.RawMessage(args))
	if err != nil {
		return "", err
	}
	return def.Function(context.Background(), json.RawMessage(args))
}

func TestTravelRegistry_Catalog(t *testing.T) {
	r := newTravel(t, &stubFlights{})
	assert.Equal(t, []string{"search_flights", "check_calendar", "book_flight"}, r.Names())
	for _, d := range r.Describe() {
		assert.NotEmpty(t, d.Description, d.Name)
		assert.Equal(t, "object", d.InputSchema.Type)
		assert.NotEmpty(t, d.InputSchema.Required, d.Name)
	}
}

func TestSearchFlights(t *testing.T) {
	f := &stubFlights{offers: []flights.Offer{
		{ID: "DXB-CAI-20260127-1", Airline: "A", Price: 500},
		{ID: "DXB-CAI-20260127-2", Airline: "B", Price: 300},
		{ID: "DXB-CAI-20260127-3", Airline: "C", Price: 300},
	}}
	r := newTravel(t, f)

	out, err := invoke(t, r, "search_flights", `{"origin":"dxb","destination":"CAI","date":"2026-01-27"}`)
	require.NoError(t, err)

	var got tools.SearchFlightsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "DXB", got.Origin)
	assert.Len(t, got.Offers, 3)
	assert.Equal(t, "DXB-CAI-20260127-2", got.CheapestID)
}

func TestSearchFlights_NoOffersIsNotAnError(t *testing.T) {
	r := newTravel(t, &stubFlights{})
	out, err := invoke(t, r, "search_flights", `{"origin":"DXB","destination":"CAI","date":"2026-01-27"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"origin":"DXB","destination":"CAI","date":"2026-01-27","offers":[]}`, out)
}

func TestSearchFlights_UpstreamFailure(t *testing.T) {
	r := newTravel(t, &stubFlights{err: errors.New("connection refused")})
	_, err := invoke(t, r, "search_flights", `{"origin":"DXB","destination":"CAI","date":"2026-01-27"}`)
	require.Error(t, err)
	assert.Equal(t, tools.CodeActionFailed, tools.AsError(err).Code)
}

func TestSearchFlights_InvalidArgumentsNeverSearch(t *testing.T) {
	f := &stubFlights{}
	r := newTravel(t, f)
	for _, args := range []string{
		`{"origin":"DUBAI","destination":"CAI","date":"2026-01-27"}`,
		`{"origin":"DXB","destination":"CAI","date":"tomorrow"}`,
		`{"origin":"DXB","destination":"CAI"}`,
	} {
		_, err := invoke(t, r, "search_flights", args)
		require.ErrorIs(t, err, tools.ErrInvalidArguments, args)
	}
	assert.Zero(t, f.calls)
}

func TestCheckCalendar(t *testing.T) {
	r := newTravel(t, &stubFlights{})

	out, err := invoke(t, r, "check_calendar", `{"date":"2026-01-27"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-01-27","status":"free"}`, out)

	out, err = invoke(t, r, "check_calendar", `{"date":"2026-01-23"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-01-23","status":"busy","conflicts":[{"date":"2026-01-23","event":"Project Presentation","time":"10:00 AM"}]}`, out)
}

func TestBookFlight(t *testing.T) {
	r := newTravel(t, &stubFlights{})
	out, err := invoke(t, r, "book_flight", `{"flight_id":"DXB-CAI-20260127-2"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"confirmed","flight_id":"DXB-CAI-20260127-2","booking_id":"RES-DXB-CAI-20260127-2"}`, out)
}
