package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"idv-gateway/internal/dedup"
	"idv-gateway/pkg/platform/sentinel"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists dedup bindings in PostgreSQL.
type Postgres struct {
	q querier
}

// NewPostgres constructs a PostgreSQL-backed dedup store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx constructs a dedup store view scoped to a transaction.
// Find takes a row lock on the binding when it exists.
func NewPostgresTx(tx *sql.Tx) *PostgresTx {
	return &PostgresTx{Postgres: Postgres{q: tx}}
}

// PostgresTx is the transactional view of the dedup store.
type PostgresTx struct {
	Postgres
}

func (s *Postgres) Find(ctx context.Context, dedupHash string) (*dedup.Record, error) {
	return s.find(ctx, dedupHash, false)
}

func (s *PostgresTx) Find(ctx context.Context, dedupHash string) (*dedup.Record, error) {
	return s.find(ctx, dedupHash, true)
}

func (s *Postgres) find(ctx context.Context, dedupHash string, forUpdate bool) (*dedup.Record, error) {
	query := `
		SELECT dedup_hash, uid, provider, assurance_level, attestation_type, created_at, updated_at
		FROM idv_nullifier_hashes
		WHERE dedup_hash = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var rec dedup.Record
	err := s.q.QueryRowContext(ctx, query, dedupHash).Scan(
		&rec.DedupHash, &rec.UID, &rec.Provider, &rec.AssuranceLevel, &rec.AttestationType, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find dedup record: %w", err)
	}
	return &rec, nil
}

// Upsert creates the binding or refreshes its metadata. The WHERE clause on
// the conflict update makes rebinding to a different uid impossible at the
// database level as well as in the service.
func (s *Postgres) Upsert(ctx context.Context, rec *dedup.Record) error {
	query := `
		INSERT INTO idv_nullifier_hashes (dedup_hash, uid, provider, assurance_level, attestation_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dedup_hash) DO UPDATE SET
			provider = EXCLUDED.provider,
			assurance_level = EXCLUDED.assurance_level,
			attestation_type = EXCLUDED.attestation_type,
			updated_at = EXCLUDED.updated_at
		WHERE idv_nullifier_hashes.uid = EXCLUDED.uid
	`
	res, err := s.q.ExecContext(ctx, query,
		rec.DedupHash, rec.UID, rec.Provider, rec.AssuranceLevel, rec.AttestationType, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert dedup record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert dedup record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}
