package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// ProofResult is the vendor verifier's judgment on one proof.
type ProofResult struct {
	Valid           bool
	Nullifier       string
	UserDefinedData string
}

// ProofVerifier is the boundary to the vendor's zero-knowledge verifier. The
// production build links the vendor engine behind this interface; development
// and tests use StaticProofVerifier.
type ProofVerifier interface {
	Verify(ctx context.Context, attestationID string, proof, publicSignals json.RawMessage, userContextData string) (*ProofResult, error)
}

// Policy is the verification policy handed to the vendor on session start.
// An explicit value, not ambient state, so multiple adapters with different
// policies can coexist in one process.
type Policy struct {
	ScopeSeed         string
	Endpoint          string
	EndpointType      string
	AppName           string
	LogoURL           string
	MinimumAge        int
	ExcludedCountries []string
	SanctionsCheck    bool
	MockPassports     bool
}

// Adapter implements the adapter service's two operations over a vendor
// verifier and a policy.
type Adapter struct {
	policy   Policy
	verifier ProofVerifier
	now      func() time.Time
}

// NewAdapter builds an Adapter. now is injectable for tests; nil means
// time.Now.
func NewAdapter(policy Policy, verifier ProofVerifier, now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{policy: policy, verifier: verifier, now: now}
}

// deepLinkBase is the vendor's universal-link entry point.
const deepLinkBase = "https://redirect.self.xyz"

// sessionApp is the app descriptor embedded in the verification deep link.
type sessionApp struct {
	Version      int         `json:"version"`
	AppName      string      `json:"appName"`
	Scope        string      `json:"scope"`
	Endpoint     string      `json:"endpoint"`
	EndpointType string      `json:"endpointType"`
	LogoBase64   string      `json:"logoBase64"`
	UserID       string      `json:"userId"`
	UserIDType   string      `json:"userIdType"`
	UserData     string      `json:"userDefinedData"`
	Disclosures  disclosures `json:"disclosures"`
}

type disclosures struct {
	MinimumAge        int      `json:"minimumAge"`
	ExcludedCountries []string `json:"excludedCountries"`
	OFAC              bool     `json:"ofac"`
}

// StartSession builds the opaque context blob and pseudonymous user id, then
// renders the verification deep link. Nothing is persisted; this is purely a
// constructor for an outbound session. The session id is the challenge id so
// callers can correlate without another lookup.
func (a *Adapter) StartSession(_ context.Context, uid, challengeID, challengeSecret string) (*Session, error) {
	if uid == "" || challengeID == "" || challengeSecret == "" {
		return nil, Fail(ReasonInvalidChallenge)
	}

	app := sessionApp{
		Version:      2,
		AppName:      a.policy.AppName,
		Scope:        a.policy.ScopeSeed,
		Endpoint:     a.policy.Endpoint,
		EndpointType: a.policy.EndpointType,
		LogoBase64:   a.policy.LogoURL,
		UserID:       PseudonymousUserID(uid),
		UserIDType:   "hex",
		UserData:     EncodeContext(challengeID, challengeSecret, a.now()),
		Disclosures: disclosures{
			MinimumAge:        a.policy.MinimumAge,
			ExcludedCountries: a.policy.ExcludedCountries,
			OFAC:              a.policy.SanctionsCheck,
		},
	}
	blob, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("marshal session app: %w", err)
	}

	link := deepLinkBase + "?selfApp=" + url.QueryEscape(base64.RawURLEncoding.EncodeToString(blob))
	return &Session{VerificationURL: link, SessionID: challengeID}, nil
}

// Verify runs one proof through the vendor verifier and recovers the
// challenge binding from the proof's user context data. Vendor errors read as
// verification_unavailable; a vendor judgment of "invalid" reads as
// invalid_proof.
func (a *Adapter) Verify(ctx context.Context, payload ProofPayload) (*Claim, error) {
	if !payload.Complete() {
		return nil, Fail(ReasonInvalidPayload)
	}

	result, err := a.verifier.Verify(ctx, payload.AttestationID, payload.Proof, payload.PublicSignals, payload.UserContextData)
	if err != nil {
		return nil, Fail(ReasonUnavailable)
	}
	if result == nil || !result.Valid {
		return nil, Fail(ReasonInvalidProof)
	}

	// Provider response shapes vary: prefer the verified disclose output,
	// fall back to a nullifier carried in the request payload.
	nullifier := NormalizeNullifier(result.Nullifier)
	if nullifier == "" {
		nullifier = NormalizeNullifier(payload.RawNullifier)
	}
	if nullifier == "" {
		return nil, Fail(ReasonInvalidProof)
	}

	decoded := DecodeContext(result.UserDefinedData)
	if decoded.ChallengeID == "" || decoded.Challenge == "" {
		return nil, Fail(ReasonInvalidChallenge)
	}
	if payload.ExpectedChallengeID != "" && payload.ExpectedChallengeID != decoded.ChallengeID {
		return nil, Fail(ReasonInvalidChallenge)
	}
	if payload.ExpectedChallenge != "" && payload.ExpectedChallenge != decoded.Challenge {
		return nil, Fail(ReasonInvalidChallenge)
	}

	return &Claim{
		Nullifier:       nullifier,
		AssuranceLevel:  a.assuranceLevel(),
		AttestationType: payload.AttestationID,
		ChallengeID:     decoded.ChallengeID,
		Challenge:       decoded.Challenge,
		UserDefinedData: decoded.UserDefinedData,
	}, nil
}

func (a *Adapter) assuranceLevel() string {
	if a.policy.MinimumAge > 0 {
		return fmt.Sprintf("minimum_age_%d", a.policy.MinimumAge)
	}
	return "default"
}

// StaticProofVerifier is a deterministic ProofVerifier for development and
// tests. It accepts every proof whose JSON carries a "nullifier" field and
// echoes the payload's context data back as the verified user data.
type StaticProofVerifier struct{}

func (StaticProofVerifier) Verify(_ context.Context, _ string, proof, _ json.RawMessage, userContextData string) (*ProofResult, error) {
	var body struct {
		Nullifier string `json:"nullifier"`
	}
	_ = json.Unmarshal(proof, &body)
	return &ProofResult{
		Valid:           true,
		Nullifier:       body.Nullifier,
		UserDefinedData: userContextData,
	}, nil
}
