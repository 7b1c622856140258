package store

import (
	"context"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceCache persists resolved distances keyed by the canonical unordered
// pair of locality keys. Entries are write-once: PutIfAbsent never overwrites,
// and the value it returns is the authoritative one for the pair.
type DistanceCache interface {
	// GetDistance returns the cached entry, or nil if the pair is absent.
	GetDistance(ctx context.Context, keyA, keyB string) (*model.DistanceCacheEntry, error)

	// PutDistanceIfAbsent stores the entry unless one already exists for the
	// pair, and returns the entry that is now stored (the winner of any race).
	PutDistanceIfAbsent(ctx context.Context, entry model.DistanceCacheEntry) (*model.DistanceCacheEntry, error)
}

// LocalityStore holds the imported candidate localities.
type LocalityStore interface {
	UpsertLocalities(ctx context.Context, localities []model.Locality) (int64, error)
	ListLocalities(ctx context.Context, provinces []string, centerType model.CenterType) ([]model.Locality, error)
}

// GeocodeCache persists geocoded coordinates by normalized locality key.
type GeocodeCache interface {
	GetCoordinates(ctx context.Context, key string) (*Coordinates, error)
	PutCoordinates(ctx context.Context, key string, c Coordinates) error
}

// Stats summarizes stored row counts for the cache stats command.
type Stats struct {
	Distances   int64 `json:"distances"`
	Localities  int64 `json:"localities"`
	Coordinates int64 `json:"coordinates"`
}

// Store is the full persistence interface behind a ranking run.
type Store interface {
	DistanceCache
	LocalityStore
	GeocodeCache

	Stats(ctx context.Context) (Stats, error)
	Migrate(ctx context.Context) error
	Close() error
}
