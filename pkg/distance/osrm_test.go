package distance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinos-group/destinos-cli/internal/resilience"
)

func fastOSRMRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
		Service:        "osrm",
	}
}

func osrmJSON(meters float64) string {
	return fmt.Sprintf(`{"code":"Ok","routes":[{"distance":%f}]}`, meters)
}

func TestOSRMProvider_Distance(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, osrmJSON(621340))
	}))
	defer srv.Close()

	p := NewOSRMProvider(spainGeocoder(),
		WithOSRMBaseURL(srv.URL),
		WithOSRMRateLimit(1000),
		WithOSRMRetry(fastOSRMRetry()),
	)

	result, err := p.Distance(context.Background(), Place{Name: "Madrid"}, Place{Name: "Barcelona"})
	require.NoError(t, err)
	assert.Equal(t, "osrm", result.Source)
	assert.InDelta(t, 621.34, result.KM, 0.001)

	// OSRM wants lon,lat pairs.
	assert.True(t, strings.HasPrefix(gotPath, "/route/v1/driving/-3.70"), gotPath)
}

func TestOSRMProvider_UnknownPlace(t *testing.T) {
	p := NewOSRMProvider(spainGeocoder())

	_, err := p.Distance(context.Background(), Place{Name: "Madrid"}, Place{Name: "Atlantis"})
	var upErr *UnknownPlaceError
	require.ErrorAs(t, err, &upErr)
}

func TestOSRMProvider_RetriesTransientStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, osrmJSON(100000))
	}))
	defer srv.Close()

	p := NewOSRMProvider(spainGeocoder(),
		WithOSRMBaseURL(srv.URL),
		WithOSRMRateLimit(1000),
		WithOSRMRetry(fastOSRMRetry()),
	)

	result, err := p.Distance(context.Background(), Place{Name: "Madrid"}, Place{Name: "Sevilla"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 100.0, result.KM, 0.001)
}

func TestOSRMProvider_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"NoRoute","routes":[]}`)
	}))
	defer srv.Close()

	p := NewOSRMProvider(spainGeocoder(),
		WithOSRMBaseURL(srv.URL),
		WithOSRMRateLimit(1000),
		WithOSRMRetry(fastOSRMRetry()),
	)

	_, err := p.Distance(context.Background(), Place{Name: "Madrid"}, Place{Name: "Sevilla"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route")
}
