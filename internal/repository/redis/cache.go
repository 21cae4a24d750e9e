package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON read models with a TTL.
type Cache struct {
	rdb        *redis.Client
	loads      singleflight.Group
	defaultTTL time.Duration
}

// New returns a JSON cache. defaultTTL applies when a caller passes ttl <= 0.
func New(client *redis.Client, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}

	return &Cache{rdb: client, defaultTTL: defaultTTL}
}

// GetJSON decodes the value under key into a T. A missing key reports
// ok == false with no error.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (v T, ok bool, err error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return v, false, nil
	case err != nil:
		return v, false, err
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return v, true, nil
}

func SetJSON(ctx context.Context, c *Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// GetOrSetJSON returns the cached value under key, or loads, caches and
// returns it. Concurrent misses for one key share a single load. Loader
// errors are returned as-is and nothing is cached; a failed cache write
// still returns the loaded value.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
		return v, err
	}

	res, err, _ := c.loads.Do(key, func() (any, error) {
		// a concurrent load may have filled the key meanwhile
		if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
			return v, err
		}

		v, err := load(ctx)
		if err != nil {
			return v, err
		}

		_ = SetJSON(ctx, c, key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res.(T), nil
}

// InvalidateEvent drops everything cached for an event.
func (c *Cache) InvalidateEvent(ctx context.Context, eventID int64) error {
	return c.rdb.Del(ctx, KeyEventSummary(eventID), KeyEventSections(eventID)).Err()
}

// InvalidateSections drops the cached section list of an event.
func (c *Cache) InvalidateSections(ctx context.Context, eventID int64) error {
	return c.rdb.Del(ctx, KeyEventSections(eventID)).Err()
}
