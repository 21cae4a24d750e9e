package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set member per admitted hit, scored by its
// time in milliseconds. Rejected hits are not recorded, so a client that
// keeps retrying is not locked out beyond the window.
//
// KEYS[1] hits, KEYS[2] member sequence
// ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] limit
// Returns {admitted 0|1, hits in window, retry after (ms)}.
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)

local count = redis.call('ZCARD', KEYS[1])
if count >= limit then
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  local retry = window
  if oldest[2] then
    retry = window - (now - tonumber(oldest[2]))
  end
  if retry < 0 then retry = 0 end
  return {0, count, retry}
end

local seq = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], now, now .. ':' .. seq)
redis.call('PEXPIRE', KEYS[1], window)
redis.call('PEXPIRE', KEYS[2], window)
return {1, count + 1, 0}
`)

// SlidingWindowLimiter admits at most limit hits per key in any window-long
// interval ending now.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	clock  clock.Clock
	prefix string
	limit  int
	window time.Duration
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	clk clock.Clock,
	prefix string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	if clk == nil {
		clk = clock.Real()
	}

	return &SlidingWindowLimiter{
		rdb:    rdb,
		clock:  clk,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Limit() int { return l.limit }

// Allow records a hit for key if it fits in the window. When it does not,
// retryAfter is the time until the oldest admitted hit leaves the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (allowed bool, current int64, retryAfter time.Duration, err error) {
	const op = "redis.SlidingWindowLimiter.Allow"

	hits := KeyRateLimit(l.prefix, key)

	res, err := slidingWindow.Run(
		ctx,
		l.rdb,
		[]string{hits, hits + ":seq"},
		l.clock.Now().UnixMilli(), l.window.Milliseconds(), l.limit,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("%s: unexpected script reply %v", op, res)
	}

	return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
}
