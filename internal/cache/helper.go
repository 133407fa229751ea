package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chronicle/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// and stores the result with ttl. Cache errors never fail the lookup, and a
// fetch error is returned without writing anything to the cache.
func Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func() error) error {
	if ttl > 0 {
		found, err := GetJSON(ctx, key, dest)
		switch {
		case err != nil:
			observability.CacheLookups.WithLabelValues(name, "error").Inc()
		case found:
			observability.CacheLookups.WithLabelValues(name, "hit").Inc()
			return nil
		default:
			observability.CacheLookups.WithLabelValues(name, "miss").Inc()
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if ttl > 0 {
		_ = SetJSON(ctx, key, dest, ttl)
	}
	return nil
}

// Invalidate drops the given keys.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
