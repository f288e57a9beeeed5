// redis.go -- go-redis backed fixed-window rate limiter.
//
// Counter per key with the window as TTL: INCR, set the expiry on first
// increment, reject once the count passes the budget. The counter survives
// process restarts and is shared across instances, which an in-memory
// limiter cannot do.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces a RateLimitPolicy against a shared Redis.
type RedisRateLimiter struct {
	rdb    *redis.Client
	policy RateLimitPolicy
}

// NewRedisRateLimiter connects to Redis, verifies connectivity, and returns
// a limiter enforcing the given policy. Safe for concurrent use.
func NewRedisRateLimiter(ctx context.Context, redisURL string, policy RateLimitPolicy) (*RedisRateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return &RedisRateLimiter{rdb: rdb, policy: policy}, nil
}

// Close releases the underlying Redis client.
func (l *RedisRateLimiter) Close() error {
	return l.rdb.Close()
}

// Allow records one attempt for key and reports whether the caller is still
// within budget. The INCR and EXPIRE run in one pipeline so the window TTL
// is set atomically with the first hit.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.rdb.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	// NX: only the increment that creates the key starts the window.
	pipe.ExpireNX(ctx, redisKey, l.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("recording rate limit attempt: %w", err)
	}

	return count.Val() <= int64(l.policy.MaxAttempts), nil
}

// NoopRateLimiter allows everything. Used when REDIS_URL is not configured,
// so local development needs no Redis.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Allow(context.Context, string) (bool, error) {
	return true, nil
}
