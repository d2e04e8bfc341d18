package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{
	ScopeSeed:    "debate-human-v1",
	Endpoint:     "https://example.com/api/idv/relay",
	EndpointType: "https",
	AppName:      "debate",
	MinimumAge:   18,
}

type verifierFunc func(ctx context.Context, attestationID string, proof, publicSignals json.RawMessage, userContextData string) (*ProofResult, error)

func (f verifierFunc) Verify(ctx context.Context, attestationID string, proof, publicSignals json.RawMessage, userContextData string) (*ProofResult, error) {
	return f(ctx, attestationID, proof, publicSignals, userContextData)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func completePayload(ctxData string) ProofPayload {
	return ProofPayload{
		AttestationID:   "1",
		Proof:           json.RawMessage(`"proof"`),
		PublicSignals:   json.RawMessage(`["1"]`),
		UserContextData: ctxData,
	}
}

func TestStartSession_BuildsDeepLink(t *testing.T) {
	adapter := NewAdapter(testPolicy, StaticProofVerifier{}, fixedNow)

	session, err := adapter.StartSession(context.Background(), "user-1", "c1", "SECRET")
	require.NoError(t, err)
	assert.Equal(t, "c1", session.SessionID)
	require.True(t, strings.HasPrefix(session.VerificationURL, deepLinkBase+"?selfApp="))

	parsed, err := url.Parse(session.VerificationURL)
	require.NoError(t, err)
	blob, err := base64.RawURLEncoding.DecodeString(parsed.Query().Get("selfApp"))
	require.NoError(t, err)

	var app map[string]any
	require.NoError(t, json.Unmarshal(blob, &app))
	assert.Equal(t, float64(2), app["version"])
	assert.Equal(t, "debate-human-v1", app["scope"])
	assert.Equal(t, PseudonymousUserID("user-1"), app["userId"])
	assert.Equal(t, "hex", app["userIdType"])

	userData, _ := app["userDefinedData"].(string)
	decoded := DecodeContext(userData)
	assert.Equal(t, "c1", decoded.ChallengeID)
	assert.Equal(t, "SECRET", decoded.Challenge)

	disclosures, _ := app["disclosures"].(map[string]any)
	require.NotNil(t, disclosures)
	assert.Equal(t, float64(18), disclosures["minimumAge"])
}

func TestStartSession_RejectsMissingInputs(t *testing.T) {
	adapter := NewAdapter(testPolicy, StaticProofVerifier{}, fixedNow)

	_, err := adapter.StartSession(context.Background(), "", "c1", "SECRET")
	assert.Equal(t, ReasonInvalidChallenge, ReasonOf(err))

	_, err = adapter.StartSession(context.Background(), "user-1", "", "SECRET")
	assert.Equal(t, ReasonInvalidChallenge, ReasonOf(err))
}

func TestVerify_ValidProofYieldsClaim(t *testing.T) {
	ctxData := EncodeContext("c1", "SECRET", fixedNow())
	verifier := verifierFunc(func(_ context.Context, _ string, _, _ json.RawMessage, userContextData string) (*ProofResult, error) {
		return &ProofResult{Valid: true, Nullifier: "N1", UserDefinedData: userContextData}, nil
	})
	adapter := NewAdapter(testPolicy, verifier, fixedNow)

	claim, err := adapter.Verify(context.Background(), completePayload(ctxData))
	require.NoError(t, err)
	assert.Equal(t, "N1", claim.Nullifier)
	assert.Equal(t, "c1", claim.ChallengeID)
	assert.Equal(t, "SECRET", claim.Challenge)
	assert.Equal(t, "minimum_age_18", claim.AssuranceLevel)
	assert.Equal(t, "1", claim.AttestationType)
	assert.Equal(t, ctxData, claim.UserDefinedData)
}

func TestVerify_IncompletePayload(t *testing.T) {
	adapter := NewAdapter(testPolicy, StaticProofVerifier{}, fixedNow)

	_, err := adapter.Verify(context.Background(), ProofPayload{AttestationID: "1"})
	assert.Equal(t, ReasonInvalidPayload, ReasonOf(err))
}

func TestVerify_VendorErrorReadsAsUnavailable(t *testing.T) {
	verifier := verifierFunc(func(context.Context, string, json.RawMessage, json.RawMessage, string) (*ProofResult, error) {
		return nil, errors.New("vendor rpc timeout")
	})
	adapter := NewAdapter(testPolicy, verifier, fixedNow)

	_, err := adapter.Verify(context.Background(), completePayload("ctx"))
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))
}

func TestVerify_VendorRejectionReadsAsInvalidProof(t *testing.T) {
	verifier := verifierFunc(func(context.Context, string, json.RawMessage, json.RawMessage, string) (*ProofResult, error) {
		return &ProofResult{Valid: false}, nil
	})
	adapter := NewAdapter(testPolicy, verifier, fixedNow)

	_, err := adapter.Verify(context.Background(), completePayload("ctx"))
	assert.Equal(t, ReasonInvalidProof, ReasonOf(err))
}

func TestVerify_MissingNullifierFallsBackToPayload(t *testing.T) {
	ctxData := EncodeContext("c1", "SECRET", fixedNow())
	verifier := verifierFunc(func(_ context.Context, _ string, _, _ json.RawMessage, userContextData string) (*ProofResult, error) {
		return &ProofResult{Valid: true, UserDefinedData: userContextData}, nil
	})
	adapter := NewAdapter(testPolicy, verifier, fixedNow)

	payload := completePayload(ctxData)
	payload.RawNullifier = "payload-nullifier"
	claim, err := adapter.Verify(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "payload-nullifier", claim.Nullifier)

	payload.RawNullifier = ""
	_, err = adapter.Verify(context.Background(), payload)
	assert.Equal(t, ReasonInvalidProof, ReasonOf(err))
}

func TestVerify_ContextCrossChecks(t *testing.T) {
	ctxData := EncodeContext("c1", "SECRET", fixedNow())
	verifier := verifierFunc(func(_ context.Context, _ string, _, _ json.RawMessage, userContextData string) (*ProofResult, error) {
		return &ProofResult{Valid: true, Nullifier: "N1", UserDefinedData: userContextData}, nil
	})
	adapter := NewAdapter(testPolicy, verifier, fixedNow)

	payload := completePayload(ctxData)
	payload.ExpectedChallengeID = "other-challenge"
	_, err := adapter.Verify(context.Background(), payload)
	assert.Equal(t, ReasonInvalidChallenge, ReasonOf(err))

	payload = completePayload(ctxData)
	payload.ExpectedChallenge = "other-secret"
	_, err = adapter.Verify(context.Background(), payload)
	assert.Equal(t, ReasonInvalidChallenge, ReasonOf(err))

	payload = completePayload("undecodable-context")
	_, err = adapter.Verify(context.Background(), payload)
	assert.Equal(t, ReasonInvalidChallenge, ReasonOf(err))
}

func TestVerify_NoMinimumAgeMeansDefaultAssurance(t *testing.T) {
	policy := testPolicy
	policy.MinimumAge = 0
	ctxData := EncodeContext("c1", "SECRET", fixedNow())
	verifier := verifierFunc(func(_ context.Context, _ string, _, _ json.RawMessage, userContextData string) (*ProofResult, error) {
		return &ProofResult{Valid: true, Nullifier: "N1", UserDefinedData: userContextData}, nil
	})
	adapter := NewAdapter(policy, verifier, fixedNow)

	claim, err := adapter.Verify(context.Background(), completePayload(ctxData))
	require.NoError(t, err)
	assert.Equal(t, "default", claim.AssuranceLevel)
}
