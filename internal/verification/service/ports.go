package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"idv-gateway/internal/challenge"
	"idv-gateway/internal/claims"
	"idv-gateway/internal/dedup"
	"idv-gateway/internal/provider"
)

// Verifier submits a proof payload for verification. Implemented by the
// adapter HTTP client and by the dev mock.
type Verifier interface {
	VerifyProof(ctx context.Context, payload provider.ProofPayload) (*provider.Claim, error)
}

// ChallengeReader is the out-of-transaction challenge access the engine
// needs: the first-pass lookup and the durable claims-sync-failed annotation,
// which deliberately happens outside the consumption transaction.
type ChallengeReader interface {
	FindByID(ctx context.Context, id string) (*challenge.Challenge, error)
	MarkClaimsSyncFailed(ctx context.Context, id string, at time.Time) error
}

// ChallengeTxStore is the transaction-scoped challenge view. FindByID holds
// the row lock until commit; MarkVerified fails with sentinel.ErrAlreadyUsed
// when another transaction consumed the challenge first.
type ChallengeTxStore interface {
	FindByID(ctx context.Context, id string) (*challenge.Challenge, error)
	MarkVerified(ctx context.Context, id, uid, providerName string, usedAt time.Time) error
}

// DedupTxStore is the transaction-scoped dedup view. Upsert fails with
// sentinel.ErrConflict when the hash is bound to a different account.
type DedupTxStore interface {
	Find(ctx context.Context, dedupHash string) (*dedup.Record, error)
	Upsert(ctx context.Context, rec *dedup.Record) error
}

// TxStores bundles the transaction-scoped store views handed to the
// transaction body.
type TxStores struct {
	Challenges ChallengeTxStore
	Dedup      DedupTxStore
}

// TxRunner executes fn atomically. An error from fn rolls back every write
// made through the TxStores views.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}

// Promoter applies the post-commit authorization promotion. Implemented by
// claims.Synchronizer.
type Promoter interface {
	Promote(ctx context.Context, uid string) error
	RecordProfile(ctx context.Context, uid string, update claims.ProfileUpdate)
}
