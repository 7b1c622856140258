// Package resolver answers "how far apart are these two localities" with a
// write-once persistent cache in front of a distance provider.
package resolver

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/destinos-group/destinos-cli/internal/model"
	"github.com/destinos-group/destinos-cli/internal/store"
	"github.com/destinos-group/destinos-cli/pkg/distance"
)

// Resolver resolves distances between locality pairs. The cache is
// authoritative: once a pair has a stored distance it is never recomputed.
type Resolver struct {
	cache    store.DistanceCache
	provider distance.Provider
	group    singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Counters reports cache hits and misses since the Resolver was created.
type Counters struct {
	Hits   int64
	Misses int64
}

// Counters returns the current hit/miss counts.
func (r *Resolver) Counters() Counters {
	return Counters{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// New creates a Resolver over the given cache and provider.
func New(cache store.DistanceCache, provider distance.Provider) *Resolver {
	return &Resolver{cache: cache, provider: provider}
}

// Resolve returns the distance in kilometers between a and b. The pair is
// unordered: Resolve(a, b) and Resolve(b, a) share one cache entry. An
// identical pair resolves to 0 without touching the cache. Failures are
// reported as *model.ResolutionError so callers can skip the pair and
// continue.
func (r *Resolver) Resolve(ctx context.Context, a, b model.Locality) (float64, error) {
	if a.Name == "" || b.Name == "" {
		return 0, r.failure(a, b, "empty locality name", nil)
	}

	keyA, keyB := model.CanonicalPair(a.Key(), b.Key())
	if keyA == keyB {
		return 0, nil
	}

	// Concurrent lookups of the same pair within a run collapse into one
	// provider call.
	v, err, _ := r.group.Do(keyA+"|"+keyB, func() (any, error) {
		return r.resolve(ctx, a, b, keyA, keyB)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (r *Resolver) resolve(ctx context.Context, a, b model.Locality, keyA, keyB string) (float64, error) {
	cached, err := r.cache.GetDistance(ctx, keyA, keyB)
	if err != nil {
		return 0, r.failure(a, b, "distance cache read failed", err)
	}
	if cached != nil {
		r.hits.Add(1)
		return cached.DistanceKM, nil
	}
	r.misses.Add(1)

	result, err := r.provider.Distance(ctx,
		distance.Place{Name: a.Name, Province: a.Province},
		distance.Place{Name: b.Name, Province: b.Province},
	)
	if err != nil {
		return 0, r.failure(a, b, "distance provider failed", err)
	}

	km := math.Round(result.KM*100) / 100

	stored, err := r.cache.PutDistanceIfAbsent(ctx, model.DistanceCacheEntry{
		KeyA:       keyA,
		KeyB:       keyB,
		DistanceKM: km,
		Source:     result.Source,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return 0, r.failure(a, b, "distance cache write failed", err)
	}

	if stored.DistanceKM != km {
		zap.L().Debug("lost distance write race, using stored value",
			zap.String("key_a", keyA),
			zap.String("key_b", keyB),
			zap.Float64("computed_km", km),
			zap.Float64("stored_km", stored.DistanceKM),
		)
	}
	return stored.DistanceKM, nil
}

func (r *Resolver) failure(a, b model.Locality, reason string, err error) *model.ResolutionError {
	return &model.ResolutionError{
		NameA:  a.Qualified(),
		NameB:  b.Qualified(),
		Reason: reason,
		Err:    err,
	}
}
