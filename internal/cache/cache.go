package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"penloft/internal/middleware"
	"penloft/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache-aside helper over Redis. A Cache with a nil client
// is valid and behaves as a permanent miss.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client returns the underlying Redis client, possibly nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetJSON loads key into dest. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.Client() == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis when present. On a miss it calls fetch, which
// fills dest and reports whether anything was found; only found values are
// stored. Cache faults are logged and fall through to fetch.
func (c *Cache) Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() (bool, error)) (bool, error) {
	hit, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if hit {
		observability.CacheLookups.WithLabelValues(family, "hit").Inc()
		return true, nil
	}
	observability.CacheLookups.WithLabelValues(family, "miss").Inc()

	found, err := fetch()
	if err != nil || !found {
		return found, err
	}
	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return true, nil
}

// Invalidate deletes keys, ignoring errors.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.Client() == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}
