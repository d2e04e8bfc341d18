package claims

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "claims:changed:"

// refreshMarkerTTL bounds marker retention; any session idle longer than this
// re-derives claims on its next activity anyway.
const refreshMarkerTTL = 7 * 24 * time.Hour

// RedisSignaler bumps a per-account timestamp key that session middleware
// watches. Sessions seeing a marker newer than their token's issue time force
// a claims refresh.
type RedisSignaler struct {
	client *redis.Client
}

// NewRedisSignaler constructs a Redis-backed refresh signaler.
func NewRedisSignaler(client *redis.Client) *RedisSignaler {
	return &RedisSignaler{client: client}
}

func (s *RedisSignaler) SignalRefresh(ctx context.Context, uid string, at time.Time) error {
	key := refreshKeyPrefix + uid
	if err := s.client.Set(ctx, key, at.UTC().Format(time.RFC3339Nano), refreshMarkerTTL).Err(); err != nil {
		return fmt.Errorf("set claims refresh marker: %w", err)
	}
	return nil
}

// ChangedSince reports whether the account's claims changed after t.
// Session middleware calls this; absence of a marker means no change.
func (s *RedisSignaler) ChangedSince(ctx context.Context, uid string, t time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, refreshKeyPrefix+uid).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get claims refresh marker: %w", err)
	}
	changedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// Unparseable marker: force a refresh rather than miss one.
		return true, nil
	}
	return changedAt.After(t), nil
}

// LogSignaler is the degraded signaler used when Redis is not configured:
// promotions still commit, the refresh just is not broadcast. Sessions pick
// up new claims on their natural token rotation instead.
type LogSignaler struct {
	Logger *slog.Logger
}

func (s LogSignaler) SignalRefresh(ctx context.Context, uid string, at time.Time) error {
	s.Logger.WarnContext(ctx, "claims refresh signal skipped - redis not configured",
		"uid", uid,
		"changed_at", at,
	)
	return nil
}
