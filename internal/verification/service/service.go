// Package service implements the verify-and-deduplicate transaction engine:
// the single writer for challenge consumption and identity binding.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"idv-gateway/internal/audit"
	"idv-gateway/internal/challenge"
	"idv-gateway/internal/claims"
	"idv-gateway/internal/dedup"
	"idv-gateway/internal/provider"
	"idv-gateway/internal/verification/metrics"
	"idv-gateway/pkg/platform/sentinel"
	"idv-gateway/pkg/requestcontext"
)

// Reasons returned in the callback envelope beyond the provider vocabulary.
const (
	ReasonChallengeExpired  = "challenge_expired"
	ReasonDuplicateIdentity = "duplicate_identity"
	ReasonServerError       = "server_error"
	ReasonRateLimited       = "rate_limited"
)

// Outcome is the engine's decision for one callback: the envelope fields plus
// the HTTP status the handler writes.
type Outcome struct {
	Approved bool
	Reason   string
	Status   int
}

func approved() Outcome {
	return Outcome{Approved: true, Status: http.StatusOK}
}

func rejected(reason string, status int) Outcome {
	return Outcome{Reason: reason, Status: status}
}

// Transaction-internal markers. Never escape Process.
var (
	errChallengeUsed    = errors.New("challenge already consumed")
	errChallengeExpired = errors.New("challenge expired")
	errInvalidChallenge = errors.New("challenge invalid")
	errDuplicate        = errors.New("identity bound to another account")
)

type Service struct {
	verifier   Verifier
	challenges ChallengeReader
	hasher     *dedup.Hasher
	tx         TxRunner
	promoter   Promoter
	publisher  audit.Publisher
	metrics    *metrics.Metrics
	provider   string
	logger     *slog.Logger
	tracer     trace.Tracer
}

func New(
	verifier Verifier,
	challenges ChallengeReader,
	hasher *dedup.Hasher,
	tx TxRunner,
	promoter Promoter,
	publisher audit.Publisher,
	m *metrics.Metrics,
	providerName string,
	logger *slog.Logger,
) *Service {
	return &Service{
		verifier:   verifier,
		challenges: challenges,
		hasher:     hasher,
		tx:         tx,
		promoter:   promoter,
		publisher:  publisher,
		metrics:    m,
		provider:   providerName,
		logger:     logger,
		tracer:     otel.Tracer("verification"),
	}
}

// Process runs the full callback pipeline for one inbound proof. It always
// returns a terminal Outcome; errors never escape to the handler.
func (s *Service) Process(ctx context.Context, payload provider.ProofPayload) Outcome {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.callback")
	defer span.End()

	outcome := s.process(ctx, payload)

	span.SetAttributes(
		attribute.Bool("verification.approved", outcome.Approved),
		attribute.String("verification.reason", outcome.Reason),
	)
	label := outcome.Reason
	if outcome.Approved {
		label = "approved"
	}
	s.metrics.ObserveVerification(label, start)
	return outcome
}

func (s *Service) process(ctx context.Context, payload provider.ProofPayload) Outcome {
	requestID := requestcontext.RequestID(ctx)

	claim, err := s.verifier.VerifyProof(ctx, payload)
	if err != nil {
		reason := provider.ReasonOf(err)
		s.metrics.IncrementProviderFailure(string(reason))
		s.logger.InfoContext(ctx, "proof verification rejected by provider",
			"request_id", requestID,
			"reason", reason,
		)
		status := http.StatusBadRequest
		if reason == provider.ReasonUnavailable {
			status = http.StatusServiceUnavailable
		}
		return rejected(string(reason), status)
	}

	if claim.ChallengeID == "" {
		return rejected(string(provider.ReasonInvalidChallenge), http.StatusBadRequest)
	}

	ch, err := s.challenges.FindByID(ctx, claim.ChallengeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return rejected(string(provider.ReasonInvalidChallenge), http.StatusBadRequest)
		}
		s.logger.ErrorContext(ctx, "challenge lookup failed",
			"request_id", requestID,
			"challenge_id", claim.ChallengeID,
			"error", err,
		)
		return rejected(ReasonServerError, http.StatusInternalServerError)
	}

	now := requestcontext.Now(ctx)

	// Provider retries for a completed session replay the callback. Answer
	// with the original success and write nothing.
	if ch.Used() && ch.Status == challenge.StatusVerified {
		return approved()
	}
	if ch.Used() {
		// Consumed but never promoted. The reconciliation job owns this
		// record; replaying the proof must not re-consume the identity.
		return rejected(ReasonServerError, http.StatusInternalServerError)
	}

	if ch.Expired(now) {
		return rejected(ReasonChallengeExpired, http.StatusConflict)
	}

	if challenge.HashSecret(claim.Challenge) != ch.ChallengeHash {
		return rejected(string(provider.ReasonInvalidChallenge), http.StatusBadRequest)
	}

	dedupHash, err := s.hasher.Hash(claim.Nullifier)
	if err != nil {
		s.logger.ErrorContext(ctx, "dedup secret not configured, refusing verification",
			"request_id", requestID,
			"challenge_id", ch.ID,
		)
		s.publisher.Publish(ctx, audit.Event{
			Type:        audit.EventVerificationFail,
			UID:         ch.UID,
			ChallengeID: ch.ID,
			Provider:    s.provider,
			Reason:      string(provider.ReasonUnavailable),
			RequestID:   requestID,
		})
		return rejected(string(provider.ReasonUnavailable), http.StatusServiceUnavailable)
	}

	txErr := s.tx.RunInTx(ctx, func(ctx context.Context, stores TxStores) error {
		return s.consume(ctx, stores, ch.ID, claim, dedupHash, now)
	})

	switch {
	case txErr == nil:
		// Fresh consumption; fall through to promotion.
	case errors.Is(txErr, errChallengeUsed):
		// Lost the race to a concurrent callback that committed first.
		return approved()
	case errors.Is(txErr, errDuplicate):
		s.metrics.IncrementDuplicateIdentity()
		s.logger.WarnContext(ctx, "identity already bound to another account",
			"request_id", requestID,
			"challenge_id", ch.ID,
			"uid", ch.UID,
		)
		s.publisher.Publish(ctx, audit.Event{
			Type:        audit.EventDuplicateIdentity,
			UID:         ch.UID,
			ChallengeID: ch.ID,
			Provider:    s.provider,
			Reason:      ReasonDuplicateIdentity,
			RequestID:   requestID,
		})
		return rejected(ReasonDuplicateIdentity, http.StatusConflict)
	case errors.Is(txErr, errChallengeExpired):
		return rejected(ReasonChallengeExpired, http.StatusConflict)
	case errors.Is(txErr, errInvalidChallenge):
		return rejected(string(provider.ReasonInvalidChallenge), http.StatusBadRequest)
	default:
		s.logger.ErrorContext(ctx, "verification transaction failed",
			"request_id", requestID,
			"challenge_id", ch.ID,
			"error", txErr,
		)
		return rejected(ReasonServerError, http.StatusInternalServerError)
	}

	if err := s.promoter.Promote(ctx, ch.UID); err != nil {
		s.metrics.IncrementClaimsSyncFailure()
		s.logger.ErrorContext(ctx, "claims promotion failed after committed verification",
			"request_id", requestID,
			"challenge_id", ch.ID,
			"uid", ch.UID,
			"error", err,
		)
		if markErr := s.challenges.MarkClaimsSyncFailed(ctx, ch.ID, now); markErr != nil {
			s.logger.ErrorContext(ctx, "failed to record claims sync failure",
				"request_id", requestID,
				"challenge_id", ch.ID,
				"error", markErr,
			)
		}
		s.publisher.Publish(ctx, audit.Event{
			Type:        audit.EventClaimsSyncFailed,
			UID:         ch.UID,
			ChallengeID: ch.ID,
			Provider:    s.provider,
			RequestID:   requestID,
		})
		return rejected(ReasonServerError, http.StatusInternalServerError)
	}

	s.promoter.RecordProfile(ctx, ch.UID, claims.ProfileUpdate{
		VerifiedAt:      now,
		Provider:        s.provider,
		DedupHash:       dedupHash,
		AssuranceLevel:  claim.AssuranceLevel,
		AttestationType: claim.AttestationType,
	})

	s.publisher.Publish(ctx, audit.Event{
		Type:        audit.EventVerificationOK,
		UID:         ch.UID,
		ChallengeID: ch.ID,
		Provider:    s.provider,
		RequestID:   requestID,
	})
	s.logger.InfoContext(ctx, "verification approved",
		"request_id", requestID,
		"challenge_id", ch.ID,
		"uid", ch.UID,
	)
	return approved()
}

// consume is the transaction body. It re-reads both records under lock and
// re-validates everything checked outside, then performs the only writes the
// engine ever makes to the challenge and dedup stores.
func (s *Service) consume(
	ctx context.Context,
	stores TxStores,
	challengeID string,
	claim *provider.Claim,
	dedupHash string,
	now time.Time,
) error {
	ch, err := stores.Challenges.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errInvalidChallenge
		}
		return err
	}

	// Identity uniqueness outranks every per-challenge concern.
	existing, err := stores.Dedup.Find(ctx, dedupHash)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if existing != nil && existing.UID != ch.UID {
		return errDuplicate
	}

	if ch.Used() {
		if ch.Status == challenge.StatusVerified {
			return errChallengeUsed
		}
		return errors.New("challenge consumed without promotion")
	}
	if ch.Expired(now) {
		return errChallengeExpired
	}
	if challenge.HashSecret(claim.Challenge) != ch.ChallengeHash {
		return errInvalidChallenge
	}

	if err := stores.Dedup.Upsert(ctx, &dedup.Record{
		DedupHash:       dedupHash,
		UID:             ch.UID,
		Provider:        s.provider,
		AssuranceLevel:  claim.AssuranceLevel,
		AttestationType: claim.AttestationType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return errDuplicate
		}
		return err
	}

	if err := stores.Challenges.MarkVerified(ctx, ch.ID, ch.UID, s.provider, now); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return errChallengeUsed
		}
		return err
	}
	return nil
}
