// Package provider isolates all interaction with the external
// zero-knowledge identity-proof provider. The gateway talks to the adapter
// service through the Verifier and SessionStarter ports; the adapter service
// wraps the vendor verifier behind the ProofVerifier boundary.
package provider

import (
	"errors"
	"strings"
)

// FailureReason is the fixed vocabulary crossing the adapter boundary. Raw
// provider error text never does.
type FailureReason string

const (
	ReasonInvalidPayload   FailureReason = "invalid_payload"
	ReasonInvalidProof     FailureReason = "invalid_proof"
	ReasonInvalidChallenge FailureReason = "invalid_challenge"
	ReasonUnavailable      FailureReason = "verification_unavailable"
)

// Error carries a FailureReason across the adapter boundary.
type Error struct {
	Reason FailureReason
}

func (e *Error) Error() string {
	return "provider verification failed: " + string(e.Reason)
}

// Fail returns an error carrying the given reason.
func Fail(reason FailureReason) error {
	return &Error{Reason: reason}
}

// ReasonOf extracts the failure reason from err, defaulting to
// ReasonUnavailable for anything that is not a provider error: an
// unclassified failure must read as retryable, never as a proof judgment.
func ReasonOf(err error) FailureReason {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ReasonUnavailable
}

// NormalizeFailureReason folds drifted upstream reason strings into the fixed
// vocabulary. Unknown reasons read as invalid_proof: the provider judged the
// proof and we will not retry on the caller's behalf.
func NormalizeFailureReason(raw string) FailureReason {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "invalid_payload":
		return ReasonInvalidPayload
	case "invalid_challenge":
		return ReasonInvalidChallenge
	case "verification_unavailable", "provider_unavailable", "timeout", "network_error":
		return ReasonUnavailable
	default:
		return ReasonInvalidProof
	}
}

// Claim is the adapter's output for a valid proof: the pseudonymous per-person
// identifier plus the decoded challenge context that binds the proof ceremony
// back to one verification attempt.
type Claim struct {
	Nullifier       string
	AssuranceLevel  string
	AttestationType string
	ChallengeID     string
	Challenge       string
	UserDefinedData string
}

// Session is an outbound verification session handed to the end user's device.
type Session struct {
	VerificationURL string
	SessionID       string
}
