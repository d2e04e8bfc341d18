package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter with an in-memory sliding window. Single
// instance only; multi-instance deployments use RedisLimiter so all replicas
// share one budget.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
}

// slidingWindow tracks request timestamps. The sliding window prevents the
// boundary bursts a fixed window would allow.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// NewMemoryLimiter creates an empty in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*slidingWindow)}
}

// Allow checks if a request is allowed and consumes one unit of budget.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	sw := l.buckets[key]
	if sw == nil {
		sw = &slidingWindow{window: window}
		l.buckets[key] = sw
	}
	sw.cleanup(now)

	if len(sw.timestamps)+1 > limit {
		resetAt := now.Add(window)
		if len(sw.timestamps) > 0 {
			resetAt = sw.timestamps[0].Add(window)
		}
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfterSeconds(now, resetAt),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Reset clears the budget for a key. Test helper.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

func retryAfterSeconds(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
