// Package ratelimit provides request-rate ceilings for the verification
// endpoints. Over-limit requests are rejected before any provider or store
// work happens.
package ratelimit

import (
	"context"
	"time"
)

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// Limiter checks and consumes rate-limit budget for a key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
