package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter with a fixed window counter shared across
// instances. INCR then EXPIRE on first hit; approximate but cheap, and the
// callback path tolerates a boundary burst.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a limiter over an existing Redis client.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow checks and consumes one unit of budget for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	bucket := fmt.Sprintf("%s:%s:%d", l.prefix, key, time.Now().Unix()/int64(window.Seconds()))

	count, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return nil, fmt.Errorf("incrementing rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, bucket, window).Err(); err != nil {
			return nil, fmt.Errorf("setting rate limit expiry: %w", err)
		}
	}

	now := time.Now()
	windowEnd := now.Truncate(window).Add(window)
	if count > int64(limit) {
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    windowEnd,
			RetryAfter: retryAfterSeconds(now, windowEnd),
		}, nil
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   windowEnd,
	}, nil
}
