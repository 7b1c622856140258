package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// TieredDistanceCache layers a fast shared tier (Redis) in front of the
// persistent store. Reads check the fast tier first; writes go to the
// persistent tier, which stays the source of truth for first-write-wins,
// and the winner is copied up.
type TieredDistanceCache struct {
	fast       DistanceCache
	persistent DistanceCache
}

// NewTieredDistanceCache combines a fast and a persistent cache tier.
func NewTieredDistanceCache(fast, persistent DistanceCache) *TieredDistanceCache {
	return &TieredDistanceCache{fast: fast, persistent: persistent}
}

// GetDistance implements DistanceCache.
func (c *TieredDistanceCache) GetDistance(ctx context.Context, keyA, keyB string) (*model.DistanceCacheEntry, error) {
	entry, err := c.fast.GetDistance(ctx, keyA, keyB)
	if err != nil {
		// A degraded fast tier never fails a lookup.
		zap.L().Warn("fast cache tier read failed", zap.Error(err))
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = c.persistent.GetDistance(ctx, keyA, keyB)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if _, err := c.fast.PutDistanceIfAbsent(ctx, *entry); err != nil {
			zap.L().Warn("fast cache tier backfill failed", zap.Error(err))
		}
	}
	return entry, nil
}

// PutDistanceIfAbsent implements DistanceCache.
func (c *TieredDistanceCache) PutDistanceIfAbsent(ctx context.Context, entry model.DistanceCacheEntry) (*model.DistanceCacheEntry, error) {
	stored, err := c.persistent.PutDistanceIfAbsent(ctx, entry)
	if err != nil {
		return nil, err
	}
	if _, err := c.fast.PutDistanceIfAbsent(ctx, *stored); err != nil {
		zap.L().Warn("fast cache tier write failed", zap.Error(err))
	}
	return stored, nil
}
