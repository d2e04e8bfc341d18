// Package claims owns the authorization-claims side of verification: promoting
// an account once its personhood proof commits, and signalling live sessions
// to refresh. Claims are never pushed to sessions; sessions re-derive their
// own authorization state after the refresh signal, so the signal channel is
// never trusted for security decisions.
package claims

import (
	"context"
	"time"
)

// Status is an account's authorization status.
type Status string

const (
	StatusGrace     Status = "Grace"
	StatusVerified  Status = "Verified"
	StatusSuspended Status = "Suspended"
	StatusBanned    Status = "Banned"
	StatusDeleted   Status = "Deleted"
)

// Claims is the authorization-relevant state attached to an account.
type Claims struct {
	UID         string
	Status      Status
	KYCVerified bool
	UpdatedAt   time.Time
}

// Store persists account claims. Outside this subsystem the store belongs to
// the platform's auth system; only the Synchronizer writes through it here.
type Store interface {
	Get(ctx context.Context, uid string) (*Claims, error)
	Set(ctx context.Context, uid string, status Status, kycVerified bool, at time.Time) error
}

// RefreshSignaler publishes the per-account freshness marker that long-lived
// sessions watch to force a claims refresh.
type RefreshSignaler interface {
	SignalRefresh(ctx context.Context, uid string, at time.Time) error
}

// ProfileUpdate is the verification metadata recorded on the account profile
// after promotion. Best-effort; holds no authorization authority.
type ProfileUpdate struct {
	VerifiedAt      time.Time
	Provider        string
	DedupHash       string
	AssuranceLevel  string
	AttestationType string
}

// ProfileStore records verification metadata on account profiles.
type ProfileStore interface {
	RecordVerification(ctx context.Context, uid string, update ProfileUpdate) error
}
