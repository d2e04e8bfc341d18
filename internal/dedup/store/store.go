package store

import (
	"context"

	"idv-gateway/internal/dedup"
)

// Store persists dedup bindings. Find returns sentinel.ErrNotFound for an
// unbound hash. Upsert creates the binding on first verification and updates
// metadata on re-verification; implementations return sentinel.ErrConflict
// when the hash is already bound to a different account.
type Store interface {
	Find(ctx context.Context, dedupHash string) (*dedup.Record, error)
	Upsert(ctx context.Context, rec *dedup.Record) error
}
