package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv-gateway/internal/platform/config"
)

func newClientFor(t *testing.T, srv *httptest.Server, production bool) *Client {
	t.Helper()
	cfg := config.Provider{
		StartURL:      srv.URL + "/start",
		VerifyURL:     srv.URL + "/verify",
		APIKey:        "shared-key",
		StartTimeout:  2 * time.Second,
		VerifyTimeout: 2 * time.Second,
	}
	return NewClient(cfg, production, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func verifyPayload() ProofPayload {
	return ProofPayload{
		AttestationID:   "1",
		Proof:           json.RawMessage(`"p"`),
		PublicSignals:   json.RawMessage(`["1"]`),
		UserContextData: "ctx",
	}
}

func TestClientVerifyProof_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shared-key", r.Header.Get(APIKeyHeader))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1", req["attestationId"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"verified":        true,
			"nullifier":       "N1",
			"assuranceLevel":  "minimum_age_18",
			"attestationType": "1",
			"challengeId":     "c1",
			"challenge":       "SECRET",
		})
	}))
	defer srv.Close()

	claim, err := newClientFor(t, srv, false).VerifyProof(context.Background(), verifyPayload())
	require.NoError(t, err)
	assert.Equal(t, "N1", claim.Nullifier)
	assert.Equal(t, "c1", claim.ChallengeID)
	assert.Equal(t, "SECRET", claim.Challenge)
	assert.Equal(t, "minimum_age_18", claim.AssuranceLevel)
}

func TestClientVerifyProof_SnakeCaseResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":              true,
			"nullifier_hash":  "N2",
			"assurance_level": "default",
			"challengeId":     "c1",
			"challenge":       "SECRET",
		})
	}))
	defer srv.Close()

	claim, err := newClientFor(t, srv, false).VerifyProof(context.Background(), verifyPayload())
	require.NoError(t, err)
	assert.Equal(t, "N2", claim.Nullifier)
	assert.Equal(t, "default", claim.AssuranceLevel)
}

func TestClientVerifyProof_RejectionReasonNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"verified": false,
			"reason":   "proof_invalid",
		})
	}))
	defer srv.Close()

	_, err := newClientFor(t, srv, false).VerifyProof(context.Background(), verifyPayload())
	assert.Equal(t, ReasonInvalidProof, ReasonOf(err))
}

func TestClientVerifyProof_TransportFailureReadsAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newClientFor(t, srv, false).VerifyProof(context.Background(), verifyPayload())
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))
}

func TestClientVerifyProof_IncompletePayloadRejectedLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newClientFor(t, srv, false).VerifyProof(context.Background(), ProofPayload{})
	assert.Equal(t, ReasonInvalidPayload, ReasonOf(err))
	assert.False(t, called)
}

func TestClientRejectsPlaintextEndpointInProduction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	_, err := newClientFor(t, srv, true).VerifyProof(context.Background(), verifyPayload())
	assert.Equal(t, ReasonUnavailable, ReasonOf(err))
}

func TestClientBreakerOpensAndRecovers(t *testing.T) {
	var healthy bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("not json"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"verified":    true,
			"nullifier":   "N1",
			"challengeId": "c1",
			"challenge":   "SECRET",
		})
	}))
	defer srv.Close()

	client := newClientFor(t, srv, false)
	for i := 0; i < 5; i++ {
		_, err := client.VerifyProof(context.Background(), verifyPayload())
		assert.Equal(t, ReasonUnavailable, ReasonOf(err))
	}

	// Circuit open: successful probes close it again.
	healthy = true
	for i := 0; i < 2; i++ {
		_, err := client.VerifyProof(context.Background(), verifyPayload())
		require.NoError(t, err)
	}
	_, err := client.VerifyProof(context.Background(), verifyPayload())
	require.NoError(t, err)
}

func TestClientStartSession_ToleratesAlternateFieldNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":  true,
			"url": "https://redirect.example/x",
			"id":  "session-9",
		})
	}))
	defer srv.Close()

	session, err := newClientFor(t, srv, false).StartSession(context.Background(), "u1", "c1", "S", time.Now().UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, "https://redirect.example/x", session.VerificationURL)
	assert.Equal(t, "session-9", session.SessionID)
}
