// Package places wraps the Google Maps Geocoding and Places Web Service
// endpoints used by the contact harvester: postal-code geocoding, paginated
// nearby search, and place details.
package places

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/contacts-cli/internal/model"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api"

	// Google's next_page_token takes a short time to become valid after it
	// is issued; requesting too soon returns INVALID_REQUEST.
	defaultPageDelay = 2 * time.Second

	// The nearby-search endpoint serves at most three pages (60 results).
	defaultMaxPages = 3
)

// Client performs Google Maps API operations.
type Client interface {
	// ResolvePostalCode geocodes a postal code to a search viewport.
	ResolvePostalCode(ctx context.Context, postalCode, countryCode string) (*model.Viewport, error)

	// NearbySearch enumerates place IDs of the given category inside the
	// viewport, following pagination and deduplicating by place ID.
	NearbySearch(ctx context.Context, vp model.Viewport, category string) ([]model.PlaceRef, error)

	// Details fetches the contact record for a single place.
	Details(ctx context.Context, ref model.PlaceRef) (*model.ContactRecord, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit across all API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageDelay sets the minimum wait before requesting a continuation page.
func WithPageDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.pageDelay = d
	}
}

// WithMaxPages caps how many nearby-search pages are fetched per call.
func WithMaxPages(n int) Option {
	return func(c *httpClient) {
		c.maxPages = n
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	pageDelay time.Duration
	maxPages  int
}

// NewClient creates a Google Maps API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:   rate.NewLimiter(10, 1),
		pageDelay: defaultPageDelay,
		maxPages:  defaultMaxPages,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// requestURL builds a full endpoint URL with the API key appended.
func (c *httpClient) requestURL(path string, params url.Values) string {
	params.Set("key", c.apiKey)
	return c.baseURL + path + "?" + params.Encode()
}

// redactKey strips the API key from a URL before it is surfaced in errors
// or stored as a record's data source.
func redactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// waitPage blocks for the configured inter-page delay, or until ctx is done.
func (c *httpClient) waitPage(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.pageDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
