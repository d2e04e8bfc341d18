// Package challenge defines the verification challenge record: a short-lived,
// server-generated secret binding one out-of-band proof ceremony to one
// account. Only the hash of the secret is ever persisted.
package challenge

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status is the persisted lifecycle state of a challenge.
type Status string

const (
	// StatusIssued is the initial state set by the issuance handler.
	StatusIssued Status = "issued"
	// StatusVerified is the terminal success state.
	StatusVerified Status = "verified"
	// StatusClaimsSyncFailed marks a challenge whose identity consumption
	// committed but whose claims promotion did not. Durable marker for the
	// operator reconciliation job.
	StatusClaimsSyncFailed Status = "claims_sync_failed"
)

// Challenge is one verification attempt. A record is immutable once UsedAt is
// set, except for the claims-sync-failure annotation.
type Challenge struct {
	ID                 string
	UID                string
	ChallengeHash      string
	ExpiresAtMs        int64
	Status             Status
	Provider           string
	CreatedAt          time.Time
	UsedAt             *time.Time
	UsedByUID          string
	ClaimsSyncFailedAt *time.Time
}

// Used reports whether the challenge has been consumed.
func (c *Challenge) Used() bool {
	return c.UsedAt != nil
}

// Expired reports whether the challenge is past its expiry at the given time.
// Expiry is derived at read time and never written.
func (c *Challenge) Expired(now time.Time) bool {
	return c.ExpiresAtMs > 0 && now.UnixMilli() > c.ExpiresAtMs
}

// HashSecret returns the hex sha256 of a challenge secret. The stored
// ChallengeHash is always this digest; the secret itself is never persisted.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
