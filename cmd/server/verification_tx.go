package main

import (
	"context"
	"database/sql"
	"time"

	challengestore "idv-gateway/internal/challenge/store"
	dedupstore "idv-gateway/internal/dedup/store"
	verificationservice "idv-gateway/internal/verification/service"
	dErrors "idv-gateway/pkg/domain-errors"
)

const defaultVerificationTxTimeout = 5 * time.Second

// verificationPostgresTx runs the verify-and-deduplicate transaction against
// PostgreSQL. The tx-scoped store views take row locks on read, so concurrent
// callbacks for one challenge serialize at the database.
type verificationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newVerificationPostgresTx(db *sql.DB) *verificationPostgresTx {
	return &verificationPostgresTx{db: db}
}

func (t *verificationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores verificationservice.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVerificationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := verificationservice.TxStores{
		Challenges: challengestore.NewPostgresTx(tx),
		Dedup:      dedupstore.NewPostgresTx(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	return tx.Commit()
}
