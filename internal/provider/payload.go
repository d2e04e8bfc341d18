package provider

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	maxChallengeLength   = 512
	maxNullifierLength   = 512
	maxChallengeIDLength = 128
)

// Conservative token charsets. Ambiguous data blobs are rejected rather than
// parsed.
var (
	tokenPattern       = regexp.MustCompile(`^[a-zA-Z0-9:_\-./+=]+$`)
	challengeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// ProofPayload is the normalized shape of an inbound proof callback.
type ProofPayload struct {
	AttestationID   string
	Proof           json.RawMessage
	PublicSignals   json.RawMessage
	UserContextData string

	// Optional caller-asserted binding, cross-checked against the decoded
	// context when present.
	ExpectedChallengeID string
	ExpectedChallenge   string

	// Nullifier hint carried in the request payload itself. Real proofs carry
	// the nullifier inside the verified output; this field only feeds the
	// mock path and last-resort extraction.
	RawNullifier string
}

// Complete reports whether all fields required for verification are present.
func (p ProofPayload) Complete() bool {
	return p.AttestationID != "" && len(p.Proof) > 0 && len(p.PublicSignals) > 0 && p.UserContextData != ""
}

// ExtractPayload normalizes a callback body. Callers send either a flat
// top-level shape or one nested under a proof/payload key; both are accepted,
// nested winning when present.
func ExtractPayload(body map[string]any) ProofPayload {
	source := body
	if nested := nestedObject(body, "proof"); nested != nil {
		source = nested
	} else if nested := nestedObject(body, "payload"); nested != nil {
		source = nested
	}

	return ProofPayload{
		AttestationID:       flexString(source["attestationId"]),
		Proof:               rawField(source["proof"]),
		PublicSignals:       rawField(source["publicSignals"]),
		UserContextData:     flexString(source["userContextData"]),
		ExpectedChallengeID: flexString(body["challengeId"]),
		ExpectedChallenge:   flexString(body["challenge"]),
		RawNullifier:        flexString(source["nullifier"]),
	}
}

func nestedObject(body map[string]any, key string) map[string]any {
	obj, ok := body[key].(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

// flexString renders scalar JSON values as trimmed strings. Providers have
// sent attestation ids as both strings and numbers.
func flexString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		n, _ := json.Marshal(t)
		return string(n)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func rawField(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// NormalizeNullifier validates a candidate nullifier, returning "" when it is
// empty, oversized, or outside the conservative token charset.
func NormalizeNullifier(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxNullifierLength || !tokenPattern.MatchString(v) {
		return ""
	}
	return v
}

// NormalizeChallenge validates a candidate challenge secret.
func NormalizeChallenge(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxChallengeLength || !tokenPattern.MatchString(v) {
		return ""
	}
	return v
}

// NormalizeChallengeID validates a candidate challenge id.
func NormalizeChallengeID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxChallengeIDLength || !challengeIDPattern.MatchString(v) {
		return ""
	}
	return v
}
