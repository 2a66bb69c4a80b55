package runner_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/petasbytes/travel-agent/internal/policy"
	"github.com/petasbytes/travel-agent/internal/runner"
	"github.com/petasbytes/travel-agent/memory"
	"github.com/petasbytes/travel-agent/tools"
	"github.com/stretchr/testify/require"
)

// scripted replays one step per model call and records what it was shown.
type scripted struct {
	mu    sync.Mutex
	steps []func(runner.DecisionRequest) (runner.Decision, error)
	calls []runner.DecisionRequest
}

func script(steps ...func(runner.DecisionRequest) (runner.Decision, error)) *scripted {
	return &scripted{steps: steps}
}

func (m *scripted) Decide(_ context.Context, req runner.DecisionRequest) (runner.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	n := len(m.calls) - 1
	if n >= len(m.steps) {
		return runner.Decision{Content: "done"}, nil
	}
	return m.steps[n](req)
}

func ask(reqs ...memory.ActionRequest) func(runner.DecisionRequest) (runner.Decision, error) {
	return func(runner.DecisionRequest) (runner.Decision, error) {
		return runner.Decision{Content: "working on it", Requests: reqs}, nil
	}
}

func answer(text string) func(runner.DecisionRequest) (runner.Decision, error) {
	return func(runner.DecisionRequest) (runner.Decision, error) {
		return runner.Decision{Content: text}, nil
	}
}

func call(id, action, args string) memory.ActionRequest {
	return memory.ActionRequest{CorrelationID: id, ActionName: action, Arguments: json.RawMessage(args)}
}

func search(id, date string) memory.ActionRequest {
	return call(id, policy.ActionSearchFlights, fmt.Sprintf(`{"origin":"DXB","destination":"CAI","date":%q}`, date))
}

func checkCal(id, date string) memory.ActionRequest {
	return call(id, policy.ActionCheckCalendar, fmt.Sprintf(`{"date":%q}`, date))
}

func book(id, flightID string) memory.ActionRequest {
	return call(id, policy.ActionBookFlight, fmt.Sprintf(`{"flight_id":%q}`, flightID))
}

// fakeFlights returns three offers priced 500/300/300 for any route and date.
type fakeFlights struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeFlights) Search(_ context.Context, origin, destination, date string) ([]flights.Offer, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []flights.Offer
	for i, price := range []float64{500, 300, 300} {
		out = append(out, flights.Offer{
			ID:       flights.OfferID(origin, destination, date, i+1),
			Airline:  fmt.Sprintf("Airline %d", i+1),
			Price:    price,
			Duration: 200,
		})
	}
	return out, nil
}

func (f *fakeFlights) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() runner.Config {
	cfg := runner.DefaultConfig()
	cfg.SystemPrompt = policy.SystemPrompt("2026-01-20")
	return cfg
}

func newTravelRunner(t *testing.T, m runner.Model, f tools.FlightSearcher, cfg runner.Config, opts ...runner.Option) *runner.Runner {
	t.Helper()
	store, err := calendar.NewStore(calendar.DefaultEvents())
	require.NoError(t, err)
	reg, err := tools.NewTravelRegistry(tools.Deps{Flights: f, Calendar: store})
	require.NoError(t, err)
	opts = append([]runner.Option{runner.WithGuard(policy.BookingGuard{})}, opts...)
	return runner.New(m, reg, cfg, opts...)
}

// results returns the action results of turns keyed by correlation id.
func results(turns []memory.Turn) map[string]memory.ActionResult {
	out := make(map[string]memory.ActionResult)
	for _, r := range policy.Results(turns) {
		out[r.CorrelationID] = r
	}
	return out
}

// errorCode extracts error.code from an error payload.
func errorCode(t *testing.T, payload string) string {
	t.Helper()
	var body struct {
		Error tools.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &body), payload)
	return body.Error.Code
}
