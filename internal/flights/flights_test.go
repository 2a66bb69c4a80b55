package flights_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func flight(airline string, price, minutes int) string {
	return fmt.Sprintf(`{"flights":[{"airline":%q}],"price":%d,"total_duration":%d}`, airline, price, minutes)
}

func TestSearchParsesBestFlights(t *testing.T) {
	var seen http.Request
	body := `{"best_flights":[` + flight("Emirates", 1200, 235) + `,` + flight("flydubai", 900, 240) + `],
		"search_metadata":{"google_flights_url":"https://flights.example/x"}}`
	srv := serve(t, http.StatusOK, body, &seen)

	c := flights.NewClient("key", flights.WithBaseURL(srv.URL))
	offers, err := c.Search(context.Background(), "dxb", "cai", "2026-01-27")
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, flights.Offer{
		ID: "DXB-CAI-20260127-1", Airline: "Emirates", Price: 1200, Duration: 235, Link: "https://flights.example/x",
	}, offers[0])
	assert.Equal(t, "DXB-CAI-20260127-2", offers[1].ID)

	q := seen.URL.Query()
	assert.Equal(t, "google_flights", q.Get("engine"))
	assert.Equal(t, "DXB", q.Get("departure_id"))
	assert.Equal(t, "CAI", q.Get("arrival_id"))
	assert.Equal(t, "2026-01-27", q.Get("outbound_date"))
	assert.Equal(t, "2", q.Get("type"))
	assert.Equal(t, "AED", q.Get("currency"))
	assert.Equal(t, "key", q.Get("api_key"))
}

func TestSearchFallsBackToOtherFlightsAndCaps(t *testing.T) {
	parts := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		parts = append(parts, flight(fmt.Sprintf("A%d", i), 100+i, 60))
	}
	body := `{"best_flights":[],"other_flights":[` + strings.Join(parts, ",") + `]}`
	srv := serve(t, http.StatusOK, body, nil)

	c := flights.NewClient("key", flights.WithBaseURL(srv.URL))
	offers, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.NoError(t, err)
	require.Len(t, offers, flights.DefaultMaxOffers)
	assert.Equal(t, "A0", offers[0].Airline)
	assert.Equal(t, "A4", offers[4].Airline)

	c = flights.NewClient("key", flights.WithBaseURL(srv.URL), flights.WithMaxOffers(2))
	offers, err = c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}

func TestSearchSkipsUnpricedOffers(t *testing.T) {
	unpriced := `{"flights":[{"airline":"Unpriced"}],"total_duration":200}`
	nullPrice := `{"flights":[{"airline":"NullPrice"}],"price":null,"total_duration":210}`
	body := `{"best_flights":[` + flight("Emirates", 1200, 235) + `,` + unpriced + `,` + nullPrice + `,` +
		flight("flydubai", 900, 240) + `]}`
	srv := serve(t, http.StatusOK, body, nil)

	c := flights.NewClient("key", flights.WithBaseURL(srv.URL))
	offers, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Emirates", offers[0].Airline)
	assert.Equal(t, "DXB-CAI-20260127-1", offers[0].ID)
	assert.Equal(t, "flydubai", offers[1].Airline)
	assert.Equal(t, "DXB-CAI-20260127-2", offers[1].ID)

	c = flights.NewClient("key", flights.WithBaseURL(srv.URL), flights.WithMaxOffers(2))
	offers, err = c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.NoError(t, err)
	require.Len(t, offers, 2, "skipped offers do not count toward the cap")
	assert.Equal(t, "flydubai", offers[1].Airline)
}

func TestSearchNoResultsIsNotAnError(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"search_metadata":{}}`, nil)

	c := flights.NewClient("key", flights.WithBaseURL(srv.URL))
	offers, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.NoError(t, err)
	assert.NotNil(t, offers)
	assert.Empty(t, offers)
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error field", http.StatusOK, `{"error":"Invalid API key."}`},
		{"error field with non-2xx", http.StatusUnauthorized, `{"error":"Invalid API key."}`},
		{"non-2xx without error", http.StatusBadGateway, `{}`},
		{"non-json body", http.StatusOK, `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body, nil)
			c := flights.NewClient("key", flights.WithBaseURL(srv.URL))
			_, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
			require.ErrorIs(t, err, flights.ErrUpstream)
		})
	}
}

func TestSearchMissingKey(t *testing.T) {
	c := flights.NewClient("")
	_, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.ErrorIs(t, err, flights.ErrMissingAPIKey)
}

func TestSearchConnectionFailureDoesNotLeakKey(t *testing.T) {
	srv := serve(t, http.StatusOK, `{}`, nil)
	srv.Close()

	c := flights.NewClient("super-secret", flights.WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "DXB", "CAI", "2026-01-27")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
	assert.NotContains(t, err.Error(), "super-secret")
}
