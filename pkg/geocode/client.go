// Package geocode resolves Spanish locality names to coordinates via the
// Nominatim API, with a persistent coordinate cache.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/destinos-group/destinos-cli/internal/resilience"
	"github.com/destinos-group/destinos-cli/internal/store"
)

// Client resolves a locality to coordinates.
type Client interface {
	// Geocode resolves "name, province". A locality Nominatim does not know
	// is reported as Matched=false, not as an error.
	Geocode(ctx context.Context, name, province string) (*Result, error)
}

// Result holds the geocoding output for a locality.
type Result struct {
	Lat     float64
	Lon     float64
	Matched bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Nominatim endpoint, e.g. for a self-hosted instance.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit. The public Nominatim
// instance allows at most 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCache enables the persistent coordinate cache.
func WithCache(c store.GeocodeCache) Option {
	return func(g *geocoder) {
		g.cache = c
	}
}

// WithRetry overrides the retry policy for Nominatim calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *geocoder) {
		g.retry = cfg
	}
}

type geocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      store.GeocodeCache
	retry      resilience.RetryConfig
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    "https://nominatim.openstreetmap.org",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		retry:      resilience.DefaultRetryConfig("nominatim"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
