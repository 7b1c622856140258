package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/destinos-group/destinos-cli/internal/model"
)

const redisDistancePrefix = "destinos:dist:"

// RedisDistanceCache is an optional shared distance-cache tier backed by
// Redis, for concurrent ranking runs across processes. It implements only
// DistanceCache; localities and coordinates stay in the SQL store.
type RedisDistanceCache struct {
	client *redis.Client
}

// NewRedisDistanceCache connects to Redis and verifies the connection.
func NewRedisDistanceCache(ctx context.Context, addr, password string, db int) (*RedisDistanceCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "redis: ping")
	}
	return &RedisDistanceCache{client: client}, nil
}

func redisDistanceKey(keyA, keyB string) string {
	keyA, keyB = model.CanonicalPair(keyA, keyB)
	return redisDistancePrefix + keyA + "|" + keyB
}

func (c *RedisDistanceCache) GetDistance(ctx context.Context, keyA, keyB string) (*model.DistanceCacheEntry, error) {
	raw, err := c.client.Get(ctx, redisDistanceKey(keyA, keyB)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get distance %s|%s", keyA, keyB)
	}

	var e model.DistanceCacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, eris.Wrapf(err, "redis: decode distance %s|%s", keyA, keyB)
	}
	return &e, nil
}

func (c *RedisDistanceCache) PutDistanceIfAbsent(ctx context.Context, entry model.DistanceCacheEntry) (*model.DistanceCacheEntry, error) {
	entry.KeyA, entry.KeyB = model.CanonicalPair(entry.KeyA, entry.KeyB)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, eris.Wrap(err, "redis: encode distance entry")
	}

	// SETNX keeps the first writer's value; entries never expire (write-once
	// semantics, eviction is an operator concern).
	set, err := c.client.SetNX(ctx, redisDistanceKey(entry.KeyA, entry.KeyB), raw, 0).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: put distance %s|%s", entry.KeyA, entry.KeyB)
	}
	if set {
		return &entry, nil
	}
	return c.GetDistance(ctx, entry.KeyA, entry.KeyB)
}

// Close releases the Redis connection.
func (c *RedisDistanceCache) Close() error {
	return c.client.Close()
}
