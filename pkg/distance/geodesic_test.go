package distance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinos-group/destinos-cli/pkg/geocode"
)

// fakeGeocoder resolves places from a fixed table.
type fakeGeocoder struct {
	coords map[string]geocode.Result
}

func (f *fakeGeocoder) Geocode(_ context.Context, name, _ string) (*geocode.Result, error) {
	if r, ok := f.coords[name]; ok {
		return &r, nil
	}
	return &geocode.Result{Matched: false}, nil
}

func spainGeocoder() *fakeGeocoder {
	return &fakeGeocoder{coords: map[string]geocode.Result{
		"Madrid":    {Lat: 40.4168, Lon: -3.7038, Matched: true},
		"Barcelona": {Lat: 41.3874, Lon: 2.1686, Matched: true},
		"Sevilla":   {Lat: 37.3891, Lon: -5.9845, Matched: true},
	}}
}

func TestHaversine_KnownDistance(t *testing.T) {
	km := Haversine(40.4168, -3.7038, 41.3874, 2.1686)
	assert.InDelta(t, 505.0, km, 1.0)
}

func TestHaversine_SamePointIsZero(t *testing.T) {
	assert.Zero(t, Haversine(40.4168, -3.7038, 40.4168, -3.7038))
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := Haversine(40.4168, -3.7038, 37.3891, -5.9845)
	ba := Haversine(37.3891, -5.9845, 40.4168, -3.7038)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestGeodesicProvider_Distance(t *testing.T) {
	p := NewGeodesicProvider(spainGeocoder())
	require.True(t, p.Available())

	result, err := p.Distance(context.Background(), Place{Name: "Madrid"}, Place{Name: "Barcelona"})
	require.NoError(t, err)
	assert.Equal(t, "geodesic", result.Source)
	assert.InDelta(t, 505.0, result.KM, 1.0)
}

func TestGeodesicProvider_UnknownPlace(t *testing.T) {
	p := NewGeodesicProvider(spainGeocoder())

	_, err := p.Distance(context.Background(), Place{Name: "Atlantis"}, Place{Name: "Madrid"})
	require.Error(t, err)

	var upErr *UnknownPlaceError
	require.ErrorAs(t, err, &upErr)
	assert.Contains(t, upErr.Place, "Atlantis")
}
