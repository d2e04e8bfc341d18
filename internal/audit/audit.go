// Package audit emits verification lifecycle events to the platform event
// bus. Emission is best effort: a broken bus never fails a verification.
package audit

import (
	"context"
	"time"
)

const (
	EventChallengeIssued   = "idv.challenge.issued"
	EventVerificationOK    = "idv.verification.approved"
	EventVerificationFail  = "idv.verification.rejected"
	EventDuplicateIdentity = "idv.verification.duplicate"
	EventClaimsSyncFailed  = "idv.claims.sync_failed"
)

// Event is the wire shape published to the audit topic. UID is the platform
// account id, never the raw nullifier.
type Event struct {
	Type        string    `json:"type"`
	UID         string    `json:"uid,omitempty"`
	ChallengeID string    `json:"challengeId,omitempty"`
	Provider    string    `json:"provider"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
	Device      string    `json:"device,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Noop discards all events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close()                         {}
