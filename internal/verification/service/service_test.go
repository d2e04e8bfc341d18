package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idv-gateway/internal/audit"
	"idv-gateway/internal/challenge"
	challengestore "idv-gateway/internal/challenge/store"
	"idv-gateway/internal/claims"
	"idv-gateway/internal/dedup"
	dedupstore "idv-gateway/internal/dedup/store"
	"idv-gateway/internal/provider"
	"idv-gateway/internal/verification/metrics"
	"idv-gateway/internal/verification/service"
	"idv-gateway/internal/verification/service/mocks"
	"idv-gateway/pkg/platform/sentinel"
	"idv-gateway/pkg/requestcontext"
)

// Shared across the package: prometheus collectors register globally.
var testMetrics = metrics.New()

type EngineSuite struct {
	suite.Suite

	ctrl        *gomock.Controller
	verifier    *mocks.MockVerifier
	challenges  *challengestore.Memory
	dedupStore  *dedupstore.Memory
	claimsStore *claims.MemoryStore
	signaler    *claims.MemorySignaler
	svc         *service.Service
	now         time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.challenges = challengestore.NewMemory()
	s.dedupStore = dedupstore.NewMemory()
	s.claimsStore = claims.NewMemoryStore()
	s.signaler = claims.NewMemorySignaler()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	promoter := claims.NewSynchronizer(s.claimsStore, s.signaler, nil, logger)
	s.svc = service.New(
		s.verifier,
		s.challenges,
		dedup.NewHasher("test-secret", "self_openpassport"),
		service.NewMemoryTxRunner(s.challenges, s.dedupStore),
		promoter,
		audit.Noop{},
		testMetrics,
		"self",
		logger,
	)
}

func (s *EngineSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *EngineSuite) issueChallenge(id, uid, secret string, ttl time.Duration) {
	s.Require().NoError(s.challenges.Create(context.Background(), &challenge.Challenge{
		ID:            id,
		UID:           uid,
		ChallengeHash: challenge.HashSecret(secret),
		ExpiresAtMs:   s.now.Add(ttl).UnixMilli(),
		Status:        challenge.StatusIssued,
		Provider:      "self",
		CreatedAt:     s.now,
	}))
}

func claimFor(challengeID, secret, nullifier string) *provider.Claim {
	return &provider.Claim{
		Nullifier:       nullifier,
		AssuranceLevel:  "default",
		AttestationType: "1",
		ChallengeID:     challengeID,
		Challenge:       secret,
	}
}

func (s *EngineSuite) expectVerify(claim *provider.Claim) {
	s.verifier.EXPECT().VerifyProof(gomock.Any(), gomock.Any()).Return(claim, nil).AnyTimes()
}

func (s *EngineSuite) TestApproveBindsIdentityAndPromotesClaims() {
	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	outcome := s.svc.Process(s.ctx(), provider.ProofPayload{})

	s.True(outcome.Approved)
	s.Equal(http.StatusOK, outcome.Status)
	s.Empty(outcome.Reason)

	ch, err := s.challenges.FindByID(context.Background(), "c1")
	s.Require().NoError(err)
	s.Equal(challenge.StatusVerified, ch.Status)
	s.Require().NotNil(ch.UsedAt)
	s.Equal("U1", ch.UsedByUID)

	s.Equal(1, s.dedupStore.Len())

	acct, err := s.claimsStore.Get(context.Background(), "U1")
	s.Require().NoError(err)
	s.Equal(claims.StatusVerified, acct.Status)
	s.True(acct.KYCVerified)

	at, ok := s.signaler.LastSignal("U1")
	s.True(ok)
	s.Equal(s.now, at)
}

func (s *EngineSuite) TestReplayOfVerifiedChallengeIsIdempotent() {
	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	first := s.svc.Process(s.ctx(), provider.ProofPayload{})
	s.Require().True(first.Approved)

	later := requestcontext.WithTime(context.Background(), s.now.Add(30*time.Second))
	second := s.svc.Process(later, provider.ProofPayload{})

	s.True(second.Approved)
	s.Equal(http.StatusOK, second.Status)
	s.Equal(1, s.dedupStore.Len())

	// No second promotion happened: the refresh marker still carries the
	// first callback's timestamp.
	at, _ := s.signaler.LastSignal("U1")
	s.Equal(s.now, at)
}

func (s *EngineSuite) TestSameIdentityCannotBackTwoAccounts() {
	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.issueChallenge("c2", "U2", "XYZ789", 5*time.Minute)

	gomock.InOrder(
		s.verifier.EXPECT().VerifyProof(gomock.Any(), gomock.Any()).Return(claimFor("c1", "ABC123", "N1"), nil),
		s.verifier.EXPECT().VerifyProof(gomock.Any(), gomock.Any()).Return(claimFor("c2", "XYZ789", "N1"), nil),
	)

	first := s.svc.Process(s.ctx(), provider.ProofPayload{})
	s.Require().True(first.Approved)

	second := s.svc.Process(s.ctx(), provider.ProofPayload{})
	s.False(second.Approved)
	s.Equal(service.ReasonDuplicateIdentity, second.Reason)
	s.Equal(http.StatusConflict, second.Status)

	// U1's binding and claims are untouched, U2 stays unverified.
	s.Equal(1, s.dedupStore.Len())
	_, err := s.claimsStore.Get(context.Background(), "U2")
	s.ErrorIs(err, sentinel.ErrNotFound)
	ch, err := s.challenges.FindByID(context.Background(), "c2")
	s.Require().NoError(err)
	s.False(ch.Used())
}

func (s *EngineSuite) TestExpiredChallengeIsRejected() {
	s.issueChallenge("c1", "U1", "ABC123", -time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	outcome := s.svc.Process(s.ctx(), provider.ProofPayload{})

	s.False(outcome.Approved)
	s.Equal(service.ReasonChallengeExpired, outcome.Reason)
	s.Equal(http.StatusConflict, outcome.Status)
	s.Equal(0, s.dedupStore.Len())
}

func (s *EngineSuite) TestChallengeHashMismatchIsRejected() {
	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "TAMPERED", "N1"))

	outcome := s.svc.Process(s.ctx(), provider.ProofPayload{})

	s.False(outcome.Approved)
	s.Equal(string(provider.ReasonInvalidChallenge), outcome.Reason)
	s.Equal(http.StatusBadRequest, outcome.Status)

	ch, err := s.challenges.FindByID(context.Background(), "c1")
	s.Require().NoError(err)
	s.False(ch.Used())
}

func (s *EngineSuite) TestUnknownChallengeIsRejected() {
	s.expectVerify(claimFor("missing", "ABC123", "N1"))

	outcome := s.svc.Process(s.ctx(), provider.ProofPayload{})

	s.False(outcome.Approved)
	s.Equal(string(provider.ReasonInvalidChallenge), outcome.Reason)
	s.Equal(http.StatusBadRequest, outcome.Status)
}

func (s *EngineSuite) TestMissingDedupSecretFailsClosed() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		s.verifier,
		s.challenges,
		dedup.NewHasher("", "self_openpassport"),
		service.NewMemoryTxRunner(s.challenges, s.dedupStore),
		claims.NewSynchronizer(s.claimsStore, s.signaler, nil, logger),
		audit.Noop{},
		testMetrics,
		"self",
		logger,
	)

	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	outcome := svc.Process(s.ctx(), provider.ProofPayload{})

	s.False(outcome.Approved)
	s.Equal(string(provider.ReasonUnavailable), outcome.Reason)
	s.Equal(http.StatusServiceUnavailable, outcome.Status)

	ch, err := s.challenges.FindByID(context.Background(), "c1")
	s.Require().NoError(err)
	s.False(ch.Used())
	s.Equal(0, s.dedupStore.Len())
}

func (s *EngineSuite) TestProviderRejectionsMapToStatuses() {
	cases := []struct {
		name   string
		err    error
		reason string
		status int
	}{
		{"invalid proof", provider.Fail(provider.ReasonInvalidProof), "invalid_proof", http.StatusBadRequest},
		{"invalid payload", provider.Fail(provider.ReasonInvalidPayload), "invalid_payload", http.StatusBadRequest},
		{"provider down", provider.Fail(provider.ReasonUnavailable), "verification_unavailable", http.StatusServiceUnavailable},
		{"unclassified error", errors.New("connection reset"), "verification_unavailable", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.verifier.EXPECT().VerifyProof(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			outcome := s.svc.Process(s.ctx(), provider.ProofPayload{})

			s.False(outcome.Approved)
			s.Equal(tc.reason, outcome.Reason)
			s.Equal(tc.status, outcome.Status)
		})
	}
}

func (s *EngineSuite) TestClaimsSyncFailureIsDurableAndConsumesIdentity() {
	promoter := mocks.NewMockPromoter(s.ctrl)
	promoter.EXPECT().Promote(gomock.Any(), "U1").Return(errors.New("claims store down"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		s.verifier,
		s.challenges,
		dedup.NewHasher("test-secret", "self_openpassport"),
		service.NewMemoryTxRunner(s.challenges, s.dedupStore),
		promoter,
		audit.Noop{},
		testMetrics,
		"self",
		logger,
	)

	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	outcome := svc.Process(s.ctx(), provider.ProofPayload{})

	s.False(outcome.Approved)
	s.Equal(service.ReasonServerError, outcome.Reason)
	s.Equal(http.StatusInternalServerError, outcome.Status)

	// The identity was consumed and stays consumed; only the annotation
	// records the unfinished promotion.
	ch, err := s.challenges.FindByID(context.Background(), "c1")
	s.Require().NoError(err)
	s.True(ch.Used())
	s.Equal(challenge.StatusClaimsSyncFailed, ch.Status)
	s.NotNil(ch.ClaimsSyncFailedAt)
	s.Equal(1, s.dedupStore.Len())

	// A replay does not re-run the transaction or re-promote. The stuck
	// challenge keeps answering server_error until reconciliation clears it.
	replay := svc.Process(s.ctx(), provider.ProofPayload{})
	s.False(replay.Approved)
	s.Equal(service.ReasonServerError, replay.Reason)
	s.Equal(http.StatusInternalServerError, replay.Status)
	s.Equal(1, s.dedupStore.Len())
}

func (s *EngineSuite) TestConcurrentCallbacksConsumeExactlyOnce() {
	s.issueChallenge("c1", "U1", "ABC123", 5*time.Minute)
	s.expectVerify(claimFor("c1", "ABC123", "N1"))

	const callers = 16
	outcomes := make([]service.Outcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = s.svc.Process(s.ctx(), provider.ProofPayload{})
		}(i)
	}
	wg.Wait()

	for i, outcome := range outcomes {
		s.True(outcome.Approved, "caller %d", i)
		s.Equal(http.StatusOK, outcome.Status, "caller %d", i)
	}
	s.Equal(1, s.dedupStore.Len())

	ch, err := s.challenges.FindByID(context.Background(), "c1")
	s.Require().NoError(err)
	s.Equal(challenge.StatusVerified, ch.Status)
	s.Equal("U1", ch.UsedByUID)
}
