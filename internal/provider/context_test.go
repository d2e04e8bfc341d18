package provider

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeContextRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := EncodeContext("c1", "ABC123", now)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	var blob map[string]any
	require.NoError(t, json.Unmarshal(decoded, &blob))
	assert.Equal(t, float64(1), blob["v"])
	assert.Equal(t, "c1", blob["cid"])
	assert.Equal(t, "ABC123", blob["c"])
	assert.Equal(t, float64(now.UnixMilli()), blob["ts"])

	ctx := DecodeContext(raw)
	assert.Equal(t, "c1", ctx.ChallengeID)
	assert.Equal(t, "ABC123", ctx.Challenge)
}

func TestDecodeContextAcceptsDirectJSON(t *testing.T) {
	ctx := DecodeContext(`{"v":1,"cid":"c2","c":"SECRET","ts":1}`)
	assert.Equal(t, "c2", ctx.ChallengeID)
	assert.Equal(t, "SECRET", ctx.Challenge)
}

func TestDecodeContextAcceptsLongFieldNames(t *testing.T) {
	ctx := DecodeContext(`{"challengeId":"c3","challenge":"LONGFORM"}`)
	assert.Equal(t, "c3", ctx.ChallengeID)
	assert.Equal(t, "LONGFORM", ctx.Challenge)
}

func TestDecodeContextFailsClosedOnGarbage(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json not base64", "%%%not-anything%%%"},
		{"json missing fields", `{"v":1}`},
		{"base64 of non json", base64.RawURLEncoding.EncodeToString([]byte("plain text"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := DecodeContext(tc.raw)
			assert.Empty(t, ctx.ChallengeID)
			assert.Empty(t, ctx.Challenge)
		})
	}
}

func TestPseudonymousUserID(t *testing.T) {
	id := PseudonymousUserID("user-1")

	assert.Len(t, id, 42)
	assert.Equal(t, "0x", id[:2])
	assert.Equal(t, id, PseudonymousUserID("user-1"))
	assert.NotEqual(t, id, PseudonymousUserID("user-2"))
	assert.NotContains(t, id, "user-1")
}
