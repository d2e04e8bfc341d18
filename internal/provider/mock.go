package provider

import (
	"context"
	"time"
)

// MockVerifier is the non-production dev bypass: it decodes the challenge
// context locally and accepts any structurally complete payload without
// calling the adapter. The nullifier must be supplied in the payload; there
// is no fabricated fallback, so dedup behavior stays observable in dev.
//
// Never wire this in production mode; config.FromEnv refuses the combination.
type MockVerifier struct{}

func (MockVerifier) VerifyProof(_ context.Context, payload ProofPayload) (*Claim, error) {
	if !payload.Complete() {
		return nil, Fail(ReasonInvalidPayload)
	}
	decoded := DecodeContext(payload.UserContextData)
	if decoded.ChallengeID == "" || decoded.Challenge == "" {
		return nil, Fail(ReasonInvalidChallenge)
	}
	nullifier := NormalizeNullifier(payload.RawNullifier)
	if nullifier == "" {
		return nil, Fail(ReasonInvalidProof)
	}
	return &Claim{
		Nullifier:       nullifier,
		AssuranceLevel:  "dev",
		AttestationType: "dev_fake",
		ChallengeID:     decoded.ChallengeID,
		Challenge:       decoded.Challenge,
	}, nil
}

func (MockVerifier) StartSession(_ context.Context, _ string, challengeID, challengeSecret string, _ int64) (*Session, error) {
	return &Session{
		VerificationURL: "https://localhost/dev-verify?ctx=" + EncodeContext(challengeID, challengeSecret, time.Now()),
		SessionID:       challengeID,
	}, nil
}
