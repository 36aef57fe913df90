package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const window = time.Minute

// Limiter is used to enforce per-caller rate limits.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// NoopLimiter allows all requests.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, key string) bool {
	return true
}

// RateLimiter implements distributed rate limiting using Redis sorted sets
// as a one minute sliding window.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func windowKey(id string) string {
	return fmt.Sprintf("ratelimit:%s", id)
}

// slidingWindow prunes, counts and admits in one step so concurrent callers
// cannot all pass the same check. Returns {allowed, remaining, resetAtMs}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest > 0 then
	reset = tonumber(oldest[2]) + window
end

if count >= limit then
	return {0, 0, reset}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return {1, limit - count - 1, reset}
`)

// AllowWithDetails records one request for id if it fits under limit.
// It reports the requests left in the window and when the oldest counted
// request leaves it. A limit of zero or less means unlimited, reported as
// remaining -1 and a zero reset time. Rejected requests are not counted.
func (rl *RateLimiter) AllowWithDetails(ctx context.Context, id string, limit int) (bool, int, time.Time, error) {
	if limit <= 0 {
		return true, -1, time.Time{}, nil
	}

	now := time.Now()
	res, err := slidingWindow.Run(ctx, rl.client, []string{windowKey(id)},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check returned %d values", len(res))
	}

	return res[0] == 1, int(res[1]), time.UnixMilli(res[2]), nil
}

// GetCurrentUsage returns the current request count in the window
func (rl *RateLimiter) GetCurrentUsage(ctx context.Context, id string) (int64, error) {
	key := windowKey(id)
	windowStart := time.Now().Add(-window)

	if err := rl.client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err(); err != nil {
		return 0, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := rl.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get current usage: %w", err)
	}
	return count, nil
}

// Reset resets the rate limit for a key
func (rl *RateLimiter) Reset(ctx context.Context, id string) error {
	return rl.client.Del(ctx, windowKey(id)).Err()
}

// PerMinute binds the limiter to a fixed limit so it satisfies Limiter.
// Redis failures let the request through.
func (rl *RateLimiter) PerMinute(limit int) Limiter {
	return &redisWindow{rl: rl, limit: limit}
}

type redisWindow struct {
	rl    *RateLimiter
	limit int
}

func (w *redisWindow) Allow(ctx context.Context, key string) bool {
	allowed, _, _, err := w.rl.AllowWithDetails(ctx, key, w.limit)
	if err != nil {
		return true
	}
	return allowed
}

// LocalLimiter is an in-process token bucket per key, used when no Redis is
// configured.
type LocalLimiter struct {
	limit    rate.Limit
	burst    int
	limiters sync.Map // key -> *rate.Limiter
}

// NewLocalLimiter allows perMinute requests per key with a burst of the same
// size. perMinute of zero or less allows everything.
func NewLocalLimiter(perMinute int) *LocalLimiter {
	if perMinute <= 0 {
		return &LocalLimiter{limit: rate.Inf}
	}
	return &LocalLimiter{
		limit: rate.Limit(float64(perMinute) / window.Seconds()),
		burst: perMinute,
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	return v.(*rate.Limiter).Allow()
}
