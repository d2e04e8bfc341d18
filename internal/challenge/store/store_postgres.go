package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"idv-gateway/internal/challenge"
	"idv-gateway/pkg/platform/sentinel"
)

// querier abstracts *sql.DB and *sql.Tx so the same queries serve the plain
// store and the transactional view.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists challenge records in PostgreSQL.
type Postgres struct {
	q querier
}

// NewPostgres constructs a PostgreSQL-backed challenge store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx constructs a challenge store view scoped to a transaction.
// FindByID takes a row lock so concurrent verifications serialize per challenge.
func NewPostgresTx(tx *sql.Tx) *PostgresTx {
	return &PostgresTx{Postgres: Postgres{q: tx}}
}

// PostgresTx is the transactional view of the challenge store.
type PostgresTx struct {
	Postgres
}

func (s *Postgres) Create(ctx context.Context, c *challenge.Challenge) error {
	query := `
		INSERT INTO idv_challenges (challenge_id, uid, challenge_hash, expires_at_ms, status, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.ExecContext(ctx, query, c.ID, c.UID, c.ChallengeHash, c.ExpiresAtMs, string(c.Status), c.Provider, c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	return s.findByID(ctx, id, false)
}

// FindByID within a transaction locks the row for the remainder of the
// transaction, closing the race window between validation and consumption.
func (s *PostgresTx) FindByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	return s.findByID(ctx, id, true)
}

func (s *Postgres) findByID(ctx context.Context, id string, forUpdate bool) (*challenge.Challenge, error) {
	query := `
		SELECT challenge_id, uid, challenge_hash, expires_at_ms, status, provider, created_at, used_at, used_by_uid, claims_sync_failed_at
		FROM idv_challenges
		WHERE challenge_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		c          challenge.Challenge
		status     string
		usedAt     sql.NullTime
		usedByUID  sql.NullString
		syncFailed sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UID, &c.ChallengeHash, &c.ExpiresAtMs, &status, &c.Provider, &c.CreatedAt, &usedAt, &usedByUID, &syncFailed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	c.Status = challenge.Status(status)
	if usedAt.Valid {
		t := usedAt.Time
		c.UsedAt = &t
	}
	if usedByUID.Valid {
		c.UsedByUID = usedByUID.String
	}
	if syncFailed.Valid {
		t := syncFailed.Time
		c.ClaimsSyncFailedAt = &t
	}
	return &c, nil
}

// MarkVerified consumes the challenge. The guard on used_at makes consumption
// exactly-once even if callers race past the read.
func (s *PostgresTx) MarkVerified(ctx context.Context, id, uid, provider string, usedAt time.Time) error {
	query := `
		UPDATE idv_challenges
		SET status = $2, used_at = $3, used_by_uid = $4, provider = $5
		WHERE challenge_id = $1 AND used_at IS NULL
	`
	res, err := s.q.ExecContext(ctx, query, id, string(challenge.StatusVerified), usedAt, uid, provider)
	if err != nil {
		return fmt.Errorf("mark challenge verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark challenge verified: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) MarkClaimsSyncFailed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE idv_challenges
		SET status = $2, claims_sync_failed_at = $3
		WHERE challenge_id = $1
	`
	res, err := s.q.ExecContext(ctx, query, id, string(challenge.StatusClaimsSyncFailed), at)
	if err != nil {
		return fmt.Errorf("mark claims sync failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark claims sync failed: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
