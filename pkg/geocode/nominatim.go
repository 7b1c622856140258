package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/resilience"
	"github.com/destinos-group/destinos-cli/internal/store"
)

// Spain's bounding box, Canary Islands included. Nominatim occasionally
// matches a same-named town abroad; those hits are discarded.
const (
	spainMinLat = 27.5
	spainMaxLat = 43.9
	spainMinLon = -18.3
	spainMaxLon = 4.4
)

// queryPrefixes are retried in order when the plain query finds nothing; small
// municipalities are often registered under these forms.
var queryPrefixes = []string{"", "Municipio de ", "Villa de "}

type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(name, province string) string {
	return strings.ToLower(strings.TrimSpace(name) + ", " + strings.TrimSpace(province))
}

// Geocode implements Client.
func (g *geocoder) Geocode(ctx context.Context, name, province string) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, eris.New("geocode: empty locality name")
	}

	key := cacheKey(name, province)
	if g.cache != nil {
		if c, err := g.cache.GetCoordinates(ctx, key); err == nil && c != nil {
			return &Result{Lat: c.Lat, Lon: c.Lon, Matched: true}, nil
		}
	}

	// Try progressively broader queries: qualified name with prefixes, then
	// the bare name within Spain.
	queries := make([]string, 0, len(queryPrefixes)+1)
	for _, prefix := range queryPrefixes {
		queries = append(queries, fmt.Sprintf("%s%s, %s, Spain", prefix, name, province))
	}
	queries = append(queries, fmt.Sprintf("%s, Spain", name))

	for _, q := range queries {
		result, err := g.search(ctx, q)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		if !inSpain(result.Lat, result.Lon) {
			zap.L().Debug("geocode: match outside Spain discarded",
				zap.String("query", q),
				zap.Float64("lat", result.Lat),
				zap.Float64("lon", result.Lon),
			)
			continue
		}
		if g.cache != nil {
			if err := g.cache.PutCoordinates(ctx, key, store.Coordinates{Lat: result.Lat, Lon: result.Lon}); err != nil {
				zap.L().Warn("geocode: cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return result, nil
	}

	zap.L().Debug("geocode: no match", zap.String("locality", key))
	return &Result{Matched: false}, nil
}

// search issues one Nominatim query; nil result means no hit.
func (g *geocoder) search(ctx context.Context, query string) (*Result, error) {
	return resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*Result, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit wait")
		}

		u := fmt.Sprintf("%s/search?%s", g.baseURL, url.Values{
			"q":      {query},
			"format": {"json"},
			"limit":  {"1"},
		}.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: build request")
		}
		req.Header.Set("User-Agent", "destinos-cli")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: nominatim request")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := eris.Errorf("geocode: nominatim status %d: %s", resp.StatusCode, string(body))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		var hits []nominatimHit
		if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
			return nil, eris.Wrap(err, "geocode: decode response")
		}
		if len(hits) == 0 {
			return nil, nil
		}

		lat, err := strconv.ParseFloat(hits[0].Lat, 64)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: parse lat")
		}
		lon, err := strconv.ParseFloat(hits[0].Lon, 64)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: parse lon")
		}
		return &Result{Lat: lat, Lon: lon, Matched: true}, nil
	})
}

func inSpain(lat, lon float64) bool {
	return lat >= spainMinLat && lat <= spainMaxLat && lon >= spainMinLon && lon <= spainMaxLon
}
