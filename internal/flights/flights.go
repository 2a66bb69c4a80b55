// Package flights searches live one-way flight offers through SerpApi's
// Google Flights engine.
package flights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the SerpApi search endpoint.
	DefaultBaseURL = "https://serpapi.com/search.json"

	// DefaultCurrency matches the prices the agent reports to the user.
	DefaultCurrency = "AED"

	// DefaultMaxOffers keeps results small enough for the model's context.
	DefaultMaxOffers = 5

	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 15 * time.Second

	// maxBodyBytes caps how much of an upstream response is read.
	maxBodyBytes = 4 << 20
)

var (
	ErrMissingAPIKey = errors.New("flights: missing SerpApi key")
	ErrUpstream      = errors.New("flights: upstream error")
)

// Offer is one flight option, simplified to keep model tokens low.
type Offer struct {
	ID       string  `json:"id"`
	Airline  string  `json:"airline"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"` // minutes
	Link     string  `json:"link,omitempty"`
}

// OfferID derives the deterministic id of the n-th (1-based) offer of a search.
func OfferID(origin, destination, date string, n int) string {
	return fmt.Sprintf("%s-%s-%s-%d",
		strings.ToUpper(origin), strings.ToUpper(destination), strings.ReplaceAll(date, "-", ""), n)
}

// Client queries SerpApi. The zero value is not usable; use NewClient.
type Client struct {
	baseURL   string
	apiKey    string
	currency  string
	maxOffers int
	timeout   time.Duration
	http      *http.Client
	logger    *slog.Logger
}

// Option configures a Client built by NewClient.
type Option func(*Client)

// WithBaseURL overrides the SerpApi endpoint (tests point it at httptest).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCurrency sets the price currency.
func WithCurrency(cur string) Option { return func(c *Client) { c.currency = cur } }

// WithMaxOffers caps how many offers a search returns.
func WithMaxOffers(n int) Option { return func(c *Client) { c.maxOffers = n } }

// WithTimeout bounds each search request. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient returns a search client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		currency:  DefaultCurrency,
		maxOffers: DefaultMaxOffers,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.maxOffers <= 0 {
		c.maxOffers = DefaultMaxOffers
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.currency == "" {
		c.currency = DefaultCurrency
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Search returns up to the configured number of one-way offers. An empty,
// non-nil slice means the search succeeded but found nothing.
func (c *Client) Search(ctx context.Context, origin, destination, date string) ([]Offer, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("engine", "google_flights")
	q.Set("departure_id", strings.ToUpper(origin))
	q.Set("arrival_id", strings.ToUpper(destination))
	q.Set("outbound_date", date)
	q.Set("type", "2") // one-way
	q.Set("currency", c.currency)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("flights: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// Strip the URL so the API key never reaches logs or the model.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("flights: connection failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("flights: read response: %w", err)
	}
	c.logger.Debug("flight search completed",
		"origin", origin, "destination", destination, "date", date,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	return c.parse(origin, destination, date, resp.StatusCode, body)
}

func (c *Client) parse(origin, destination, date string, status int, body []byte) ([]Offer, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: status %d with non-JSON body", ErrUpstream, status)
	}
	doc := gjson.ParseBytes(body)
	if e := doc.Get("error"); e.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, e.String())
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, status)
	}

	list := doc.Get("best_flights").Array()
	if len(list) == 0 {
		list = doc.Get("other_flights").Array()
	}
	link := doc.Get("search_metadata.google_flights_url").String()

	offers := make([]Offer, 0, min(len(list), c.maxOffers))
	for _, f := range list {
		if len(offers) >= c.maxOffers {
			break
		}
		// itineraries without a fare cannot be compared or booked
		price := f.Get("price")
		if price.Type != gjson.Number {
			c.logger.Debug("skipping unpriced offer", "airline", f.Get("flights.0.airline").String())
			continue
		}
		offers = append(offers, Offer{
			ID:       OfferID(origin, destination, date, len(offers)+1),
			Airline:  f.Get("flights.0.airline").String(),
			Price:    price.Float(),
			Duration: int(f.Get("total_duration").Int()),
			Link:     link,
		})
	}
	return offers, nil
}
