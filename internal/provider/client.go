package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"idv-gateway/internal/platform/config"
)

// APIKeyHeader authenticates adapter-facing calls. This is a service-to-service
// credential, separate from end-user auth: the adapter is called by the
// gateway and by the provider's infrastructure, never by end users.
const APIKeyHeader = "X-Idv-Api-Key"

// Client calls the provider adapter service over HTTP. It implements the
// Verifier and SessionStarter ports for the gateway.
type Client struct {
	startURL      string
	verifyURL     string
	apiKey        string
	startTimeout  time.Duration
	verifyTimeout time.Duration
	production    bool
	httpClient    *http.Client
	breaker       *breaker
	logger        *slog.Logger
}

// NewClient builds an adapter client from provider configuration. The
// configuration value is explicit so tests can run several differently
// configured clients in one process.
func NewClient(cfg config.Provider, production bool, logger *slog.Logger) *Client {
	return &Client{
		startURL:      cfg.StartURL,
		verifyURL:     cfg.VerifyURL,
		apiKey:        cfg.APIKey,
		startTimeout:  cfg.StartTimeout,
		verifyTimeout: cfg.VerifyTimeout,
		production:    production,
		httpClient:    &http.Client{},
		breaker:       newBreaker(),
		logger:        logger,
	}
}

type startRequest struct {
	UID         string `json:"uid"`
	ChallengeID string `json:"challengeId"`
	Challenge   string `json:"challenge"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

type startResponse struct {
	OK              bool   `json:"ok"`
	VerificationURL string `json:"verificationUrl"`
	URL             string `json:"url"`
	StartURL        string `json:"startUrl"`
	SessionID       string `json:"sessionId"`
	ID              string `json:"id"`
}

// StartSession requests a verification deep link from the adapter. Session
// start is best-effort for issuance: callers treat a nil session as "no deep
// link available" rather than an issuance failure.
func (c *Client) StartSession(ctx context.Context, uid, challengeID, challengeSecret string, expiresAtMs int64) (*Session, error) {
	if !c.usableURL(c.startURL) {
		return nil, Fail(ReasonUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.startTimeout)
	defer cancel()

	body, err := json.Marshal(startRequest{
		UID:         uid,
		ChallengeID: challengeID,
		Challenge:   challengeSecret,
		ExpiresAtMs: expiresAtMs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal start request: %w", err)
	}

	var resp startResponse
	if err := c.post(ctx, c.startURL, body, &resp); err != nil {
		return nil, Fail(ReasonUnavailable)
	}
	if !resp.OK {
		return nil, Fail(ReasonUnavailable)
	}

	url := firstNonEmpty(resp.VerificationURL, resp.URL, resp.StartURL)
	if !likelyURL(url) {
		url = ""
	}
	return &Session{
		VerificationURL: url,
		SessionID:       firstNonEmpty(resp.SessionID, resp.ID),
	}, nil
}

type verifyRequest struct {
	AttestationID   string          `json:"attestationId"`
	Proof           json.RawMessage `json:"proof"`
	PublicSignals   json.RawMessage `json:"publicSignals"`
	UserContextData string          `json:"userContextData"`
	ChallengeID     string          `json:"challengeId,omitempty"`
	Challenge       string          `json:"challenge,omitempty"`
}

type verifyResponse struct {
	Verified        bool   `json:"verified"`
	OK              bool   `json:"ok"`
	Reason          string `json:"reason"`
	ErrorField      string `json:"error"`
	Nullifier       string `json:"nullifier"`
	NullifierHash   string `json:"nullifierHash"`
	NullifierSnake  string `json:"nullifier_hash"`
	AssuranceLevel  string `json:"assuranceLevel"`
	AssuranceSnake  string `json:"assurance_level"`
	AttestationType string `json:"attestationType"`
	AttestationSnk  string `json:"attestation_type"`
	ChallengeID     string `json:"challengeId"`
	Challenge       string `json:"challenge"`
	UserDefinedData string `json:"userDefinedData"`
}

// VerifyProof delegates proof verification to the adapter. Transport failures
// and timeouts read as verification_unavailable, never as success or as a
// proof judgment.
func (c *Client) VerifyProof(ctx context.Context, payload ProofPayload) (*Claim, error) {
	if !payload.Complete() {
		return nil, Fail(ReasonInvalidPayload)
	}
	if !c.usableURL(c.verifyURL) {
		return nil, Fail(ReasonUnavailable)
	}
	if !c.breaker.Allow() {
		return nil, Fail(ReasonUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{
		AttestationID:   payload.AttestationID,
		Proof:           payload.Proof,
		PublicSignals:   payload.PublicSignals,
		UserContextData: payload.UserContextData,
		ChallengeID:     payload.ExpectedChallengeID,
		Challenge:       payload.ExpectedChallenge,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}

	var resp verifyResponse
	if err := c.post(ctx, c.verifyURL, body, &resp); err != nil {
		c.breaker.RecordFailure()
		c.logger.WarnContext(ctx, "provider adapter unreachable", "error", err)
		return nil, Fail(ReasonUnavailable)
	}
	c.breaker.RecordSuccess()

	if !resp.Verified && !resp.OK {
		return nil, Fail(NormalizeFailureReason(firstNonEmpty(resp.Reason, resp.ErrorField)))
	}

	nullifier := NormalizeNullifier(firstNonEmpty(resp.Nullifier, resp.NullifierHash, resp.NullifierSnake))
	if nullifier == "" {
		return nil, Fail(ReasonInvalidProof)
	}
	challengeID := NormalizeChallengeID(resp.ChallengeID)
	challengeSecret := NormalizeChallenge(resp.Challenge)
	if challengeID == "" || challengeSecret == "" {
		return nil, Fail(ReasonInvalidChallenge)
	}

	return &Claim{
		Nullifier:       nullifier,
		AssuranceLevel:  firstNonEmpty(resp.AssuranceLevel, resp.AssuranceSnake),
		AttestationType: firstNonEmpty(resp.AttestationType, resp.AttestationSnk),
		ChallengeID:     challengeID,
		Challenge:       challengeSecret,
		UserDefinedData: resp.UserDefinedData,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Error bodies still carry a normalized reason; decode regardless of
	// status and let the caller interpret the verified/ok flags.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode adapter response: %w", err)
	}
	return nil
}

// usableURL rejects missing endpoints and, in production, plaintext ones.
func (c *Client) usableURL(url string) bool {
	if !likelyURL(url) {
		return false
	}
	if c.production && !strings.HasPrefix(url, "https://") {
		return false
	}
	return true
}

func likelyURL(v string) bool {
	return strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
