package distance

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/destinos-group/destinos-cli/pkg/geocode"
)

// earthRadiusKM is the IUGG mean earth radius.
const earthRadiusKM = 6371.0088

// GeodesicProvider computes great-circle distances from geocoded coordinates.
type GeodesicProvider struct {
	geocoder geocode.Client
}

// NewGeodesicProvider creates a GeodesicProvider backed by the given geocoder.
func NewGeodesicProvider(geocoder geocode.Client) *GeodesicProvider {
	return &GeodesicProvider{geocoder: geocoder}
}

// Name implements Provider.
func (p *GeodesicProvider) Name() string { return "geodesic" }

// Available implements Provider.
func (p *GeodesicProvider) Available() bool { return p.geocoder != nil }

// Distance implements Provider.
func (p *GeodesicProvider) Distance(ctx context.Context, a, b Place) (*Result, error) {
	ra, err := p.geocoder.Geocode(ctx, a.Name, a.Province)
	if err != nil {
		return nil, eris.Wrapf(err, "geodesic: geocode %s", a)
	}
	if !ra.Matched {
		return nil, &UnknownPlaceError{Place: a.String()}
	}

	rb, err := p.geocoder.Geocode(ctx, b.Name, b.Province)
	if err != nil {
		return nil, eris.Wrapf(err, "geodesic: geocode %s", b)
	}
	if !rb.Matched {
		return nil, &UnknownPlaceError{Place: b.String()}
	}

	km := Haversine(ra.Lat, ra.Lon, rb.Lat, rb.Lon)
	return &Result{KM: km, Source: p.Name()}, nil
}

// Haversine returns the great-circle distance in kilometers between two
// coordinate pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
