package store

import (
	"context"
	"time"

	"idv-gateway/internal/challenge"
)

// Store persists challenge records outside the verification transaction.
// Implementations return sentinel.ErrNotFound for missing records and
// sentinel.ErrConflict when creating a duplicate id.
type Store interface {
	Create(ctx context.Context, c *challenge.Challenge) error
	FindByID(ctx context.Context, id string) (*challenge.Challenge, error)
	MarkClaimsSyncFailed(ctx context.Context, id string, at time.Time) error
}
