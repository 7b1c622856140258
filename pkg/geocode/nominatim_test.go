package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinos-group/destinos-cli/internal/resilience"
	"github.com/destinos-group/destinos-cli/internal/store"
)

// memCache is an in-memory GeocodeCache for tests.
type memCache struct {
	mu     sync.Mutex
	coords map[string]store.Coordinates
}

func newMemCache() *memCache {
	return &memCache{coords: make(map[string]store.Coordinates)}
}

func (m *memCache) GetCoordinates(_ context.Context, key string) (*store.Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.coords[key]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memCache) PutCoordinates(_ context.Context, key string, c store.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coords[key] = c
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, Service: "nominatim"}),
	}, opts...)
	return NewClient(opts...)
}

func TestGeocode_Match(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `[{"lat":"36.7507","lon":"-3.5179"}]`)
	})

	res, err := client.Geocode(context.Background(), "Motril", "Granada")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 36.7507, res.Lat, 1e-9)
	assert.InDelta(t, -3.5179, res.Lon, 1e-9)
	assert.Equal(t, "Motril, Granada, Spain", gotQuery)
}

func TestGeocode_PrefixFallback(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if strings.HasPrefix(q, "Municipio de ") {
			fmt.Fprint(w, `[{"lat":"37.18","lon":"-3.60"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	res, err := client.Geocode(context.Background(), "Güevéjar", "Granada")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	require.Len(t, queries, 2)
	assert.Equal(t, "Güevéjar, Granada, Spain", queries[0])
	assert.Equal(t, "Municipio de Güevéjar, Granada, Spain", queries[1])
}

func TestGeocode_DiscardsMatchOutsideSpain(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Córdoba, Argentina.
			fmt.Fprint(w, `[{"lat":"-31.42","lon":"-64.18"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	res, err := client.Geocode(context.Background(), "Córdoba", "Córdoba")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 4, calls) // all query variants attempted
}

func TestGeocode_NoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	res, err := client.Geocode(context.Background(), "Nowhere", "Granada")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_CacheHitSkipsHTTP(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.PutCoordinates(context.Background(), "motril, granada", store.Coordinates{Lat: 36.75, Lon: -3.52}))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("HTTP request issued despite cache hit")
	}, WithCache(cache))

	res, err := client.Geocode(context.Background(), "Motril", "Granada")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 36.75, res.Lat, 1e-9)
}

func TestGeocode_StoresInCache(t *testing.T) {
	cache := newMemCache()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lat":"36.7507","lon":"-3.5179"}]`)
	}, WithCache(cache))

	_, err := client.Geocode(context.Background(), "Motril", "Granada")
	require.NoError(t, err)

	stored, err := cache.GetCoordinates(context.Background(), "motril, granada")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, 36.7507, stored.Lat, 1e-9)
}

func TestGeocode_RetriesTransientStatus(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"lat":"36.75","lon":"-3.52"}]`)
	})

	res, err := client.Geocode(context.Background(), "Motril", "Granada")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 2, calls)
}

func TestGeocode_EmptyName(t *testing.T) {
	client := NewClient()
	_, err := client.Geocode(context.Background(), "  ", "Granada")
	assert.Error(t, err)
}
