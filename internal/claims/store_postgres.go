package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"idv-gateway/pkg/platform/sentinel"
)

// PostgresStore persists account claims in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed claims store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (*Claims, error) {
	var c Claims
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, status, kyc_verified, updated_at
		FROM user_claims
		WHERE uid = $1
	`, uid).Scan(&c.UID, &status, &c.KYCVerified, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get claims: %w", err)
	}
	c.Status = Status(status)
	return &c, nil
}

func (s *PostgresStore) Set(ctx context.Context, uid string, status Status, kycVerified bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_claims (uid, status, kyc_verified, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET
			status = EXCLUDED.status,
			kyc_verified = EXCLUDED.kyc_verified,
			updated_at = EXCLUDED.updated_at
	`, uid, string(status), kycVerified, at)
	if err != nil {
		return fmt.Errorf("set claims: %w", err)
	}
	return nil
}

// PostgresProfileStore records verification metadata on account profiles.
type PostgresProfileStore struct {
	db *sql.DB
}

// NewPostgresProfileStore constructs a PostgreSQL-backed profile store.
func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

func (s *PostgresProfileStore) RecordVerification(ctx context.Context, uid string, update ProfileUpdate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (uid, kyc_verified, status, verified_at,
			personhood_provider, personhood_dedup_hash, personhood_assurance_level, personhood_attestation_type, updated_at)
		VALUES ($1, TRUE, 'verified', $2, $3, $4, $5, $6, $2)
		ON CONFLICT (uid) DO UPDATE SET
			kyc_verified = TRUE,
			status = 'verified',
			verified_at = EXCLUDED.verified_at,
			personhood_provider = EXCLUDED.personhood_provider,
			personhood_dedup_hash = EXCLUDED.personhood_dedup_hash,
			personhood_assurance_level = EXCLUDED.personhood_assurance_level,
			personhood_attestation_type = EXCLUDED.personhood_attestation_type,
			updated_at = EXCLUDED.updated_at
	`, uid, update.VerifiedAt, update.Provider, update.DedupHash, update.AssuranceLevel, update.AttestationType)
	if err != nil {
		return fmt.Errorf("record profile verification: %w", err)
	}
	return nil
}
