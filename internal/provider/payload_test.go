package provider

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func decodeBody(t *testing.T, raw string) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("bad test body: %v", err)
	}
	return body
}

func TestExtractPayload_FlatShape(t *testing.T) {
	payload := ExtractPayload(decodeBody(t, `{
		"attestationId": "1",
		"proof": "blob",
		"publicSignals": ["1","2"],
		"userContextData": "ctx",
		"challengeId": "c1",
		"challenge": "ABC",
		"nullifier": "N1"
	}`))

	assert.Equal(t, "1", payload.AttestationID)
	assert.Equal(t, json.RawMessage(`"blob"`), payload.Proof)
	assert.Equal(t, "ctx", payload.UserContextData)
	assert.Equal(t, "c1", payload.ExpectedChallengeID)
	assert.Equal(t, "ABC", payload.ExpectedChallenge)
	assert.Equal(t, "N1", payload.RawNullifier)
	assert.True(t, payload.Complete())
}

func TestExtractPayload_NestedShapeWins(t *testing.T) {
	payload := ExtractPayload(decodeBody(t, `{
		"attestationId": "outer",
		"proof": {
			"attestationId": 2,
			"proof": "inner",
			"publicSignals": ["9"],
			"userContextData": "inner-ctx"
		},
		"challengeId": "c1"
	}`))

	assert.Equal(t, "2", payload.AttestationID)
	assert.Equal(t, json.RawMessage(`"inner"`), payload.Proof)
	assert.Equal(t, "inner-ctx", payload.UserContextData)
	assert.Equal(t, "c1", payload.ExpectedChallengeID)
}

func TestExtractPayload_IncompleteIsNotComplete(t *testing.T) {
	payload := ExtractPayload(decodeBody(t, `{"attestationId": "1", "proof": "blob"}`))
	assert.False(t, payload.Complete())
}

func TestNormalizeNullifier(t *testing.T) {
	assert.Equal(t, "abc:123_x-y.z", NormalizeNullifier("  abc:123_x-y.z  "))
	assert.Empty(t, NormalizeNullifier(""))
	assert.Empty(t, NormalizeNullifier("has spaces inside"))
	assert.Empty(t, NormalizeNullifier("emoji☃"))
	assert.Empty(t, NormalizeNullifier(strings.Repeat("a", 513)))
	assert.Equal(t, strings.Repeat("a", 512), NormalizeNullifier(strings.Repeat("a", 512)))
}

func TestNormalizeChallengeID(t *testing.T) {
	assert.Equal(t, "a1b2-c3", NormalizeChallengeID("a1b2-c3"))
	assert.Empty(t, NormalizeChallengeID("has/slash"))
	assert.Empty(t, NormalizeChallengeID(strings.Repeat("a", 129)))
}
