package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/destinos-group/destinos-cli/internal/resilience"
	"github.com/destinos-group/destinos-cli/pkg/geocode"
)

const defaultOSRMBaseURL = "https://router.project-osrm.org"

// OSRMProvider computes driving distances against an OSRM routing server.
type OSRMProvider struct {
	geocoder   geocode.Client
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// OSRMOption configures the OSRMProvider.
type OSRMOption func(*OSRMProvider)

// WithOSRMBaseURL overrides the routing server base URL.
func WithOSRMBaseURL(u string) OSRMOption {
	return func(p *OSRMProvider) {
		p.baseURL = u
	}
}

// WithOSRMHTTPClient overrides the HTTP client.
func WithOSRMHTTPClient(hc *http.Client) OSRMOption {
	return func(p *OSRMProvider) {
		p.httpClient = hc
	}
}

// WithOSRMRateLimit sets the request rate in requests per second.
func WithOSRMRateLimit(rps float64) OSRMOption {
	return func(p *OSRMProvider) {
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithOSRMRetry overrides the retry policy.
func WithOSRMRetry(cfg resilience.RetryConfig) OSRMOption {
	return func(p *OSRMProvider) {
		p.retry = cfg
	}
}

// NewOSRMProvider creates an OSRMProvider backed by the given geocoder.
func NewOSRMProvider(geocoder geocode.Client, opts ...OSRMOption) *OSRMProvider {
	p := &OSRMProvider{
		geocoder:   geocoder,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultOSRMBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		retry:      resilience.DefaultRetryConfig("osrm"),
		breaker:    resilience.NewCircuitBreaker("osrm", 5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *OSRMProvider) Name() string { return "osrm" }

// Available implements Provider.
func (p *OSRMProvider) Available() bool {
	return p.geocoder != nil && p.breaker.State() != resilience.CircuitOpen
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
}

// Distance implements Provider by routing between the geocoded coordinates.
func (p *OSRMProvider) Distance(ctx context.Context, a, b Place) (*Result, error) {
	ra, err := p.geocoder.Geocode(ctx, a.Name, a.Province)
	if err != nil {
		return nil, eris.Wrapf(err, "osrm: geocode %s", a)
	}
	if !ra.Matched {
		return nil, &UnknownPlaceError{Place: a.String()}
	}

	rb, err := p.geocoder.Geocode(ctx, b.Name, b.Province)
	if err != nil {
		return nil, eris.Wrapf(err, "osrm: geocode %s", b)
	}
	if !rb.Matched {
		return nil, &UnknownPlaceError{Place: b.String()}
	}

	meters, err := resilience.ExecuteVal(ctx, p.breaker, func(ctx context.Context) (float64, error) {
		return resilience.DoVal(ctx, p.retry, func(ctx context.Context) (float64, error) {
			return p.route(ctx, ra.Lat, ra.Lon, rb.Lat, rb.Lon)
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{KM: meters / 1000, Source: p.Name()}, nil
}

func (p *OSRMProvider) route(ctx context.Context, lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, eris.Wrap(err, "osrm: rate limiter")
	}

	// OSRM expects lon,lat order.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f",
		p.baseURL, lon1, lat1, lon2, lat2)
	u, err := url.Parse(endpoint)
	if err != nil {
		return 0, eris.Wrap(err, "osrm: build url")
	}
	q := u.Query()
	q.Set("overview", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, eris.Wrap(err, "osrm: build request")
	}
	req.Header.Set("User-Agent", "destinos-cli")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, resilience.NewTransientError(eris.Wrap(err, "osrm: request failed"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "osrm: read response")
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return 0, resilience.NewTransientError(
			eris.Errorf("osrm: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("osrm: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, eris.Wrap(err, "osrm: decode response")
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return 0, eris.Errorf("osrm: no route (code %s)", parsed.Code)
	}

	zap.L().Debug("osrm route",
		zap.Float64("meters", parsed.Routes[0].Distance),
	)
	return parsed.Routes[0].Distance, nil
}
