package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock      = "LOCK"
	idemResPrefix = "RES:"
)

// IdempotencyStore remembers the response of a create request under its
// Idempotency-Key. A key is first locked while the request runs, then
// replaced by the stored response.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, status int, jsonPayload string) error {
	val := idemResPrefix + strconv.Itoa(status) + ":" + jsonPayload
	return s.rdb.Set(ctx, key, val, s.ttl).Err()
}

// GetResult returns the stored HTTP status and JSON payload for key.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (int, string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}

	rest, ok := strings.CutPrefix(v, idemResPrefix)
	if !ok {
		return 0, "", false, nil
	}

	code, payload, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, "", false, nil
	}

	status, err := strconv.Atoi(code)
	if err != nil {
		return 0, "", false, nil
	}

	return status, payload, true, nil
}

func (s *IdempotencyStore) IsLocked(ctx context.Context, key string) (bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == idemLock, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
