package claims

import (
	"context"
	"fmt"
	"log/slog"

	"idv-gateway/pkg/requestcontext"
)

// Synchronizer promotes account authorization state after a successful
// verification transaction and makes the promotion observable to sessions.
type Synchronizer struct {
	store    Store
	signaler RefreshSignaler
	profiles ProfileStore
	logger   *slog.Logger
}

// NewSynchronizer constructs a Synchronizer. profiles may be nil when no
// profile store is wired.
func NewSynchronizer(store Store, signaler RefreshSignaler, profiles ProfileStore, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:    store,
		signaler: signaler,
		profiles: profiles,
		logger:   logger,
	}
}

// Promote sets status=Verified, kycVerified=true and bumps the refresh
// marker. Both writes must succeed; a failure here is surfaced to the caller,
// which records the durable claims_sync_failed annotation. Promote never
// touches the challenge or dedup stores.
func (s *Synchronizer) Promote(ctx context.Context, uid string) error {
	now := requestcontext.Now(ctx)
	if err := s.store.Set(ctx, uid, StatusVerified, true, now); err != nil {
		return fmt.Errorf("set claims: %w", err)
	}
	if err := s.signaler.SignalRefresh(ctx, uid, now); err != nil {
		return fmt.Errorf("signal claims refresh: %w", err)
	}
	return nil
}

// RecordProfile writes verification metadata to the account profile.
// Best-effort: failures are logged and swallowed, never changing the
// verification outcome.
func (s *Synchronizer) RecordProfile(ctx context.Context, uid string, update ProfileUpdate) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.RecordVerification(ctx, uid, update); err != nil {
		s.logger.WarnContext(ctx, "profile verification update failed",
			"request_id", requestcontext.RequestID(ctx),
			"uid", uid,
			"error", err,
		)
	}
}
