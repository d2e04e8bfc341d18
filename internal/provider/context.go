package provider

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// contextBlob is the versioned opaque context carried through the provider's
// proof ceremony. It binds the resulting proof to one challenge.
type contextBlob struct {
	Version     int    `json:"v"`
	ChallengeID string `json:"cid"`
	Challenge   string `json:"c"`
	IssuedAtMs  int64  `json:"ts"`
}

// longContextBlob tolerates peers that send spelled-out field names.
type longContextBlob struct {
	ChallengeID string `json:"challengeId"`
	Challenge   string `json:"challenge"`
}

// EncodeContext builds the opaque context blob for a session:
// base64url-encoded JSON {v:1, cid, c, ts}.
func EncodeContext(challengeID, challengeSecret string, now time.Time) string {
	blob, _ := json.Marshal(contextBlob{
		Version:     1,
		ChallengeID: challengeID,
		Challenge:   challengeSecret,
		IssuedAtMs:  now.UnixMilli(),
	})
	return base64.RawURLEncoding.EncodeToString(blob)
}

// DecodedContext is the challenge binding recovered from a proof's user
// context data.
type DecodedContext struct {
	ChallengeID     string
	Challenge       string
	UserDefinedData string
}

// DecodeContext recovers the challenge binding from raw context data. Provider
// versions have shipped both direct-JSON and base64url-JSON encodings, so both
// are tried, direct first. Exhausting both fails closed with zeroed fields;
// the raw data is still returned for diagnostics.
func DecodeContext(raw string) DecodedContext {
	direct := strings.TrimSpace(raw)
	if direct == "" {
		return DecodedContext{}
	}
	if cid, c, ok := parseContextJSON([]byte(direct)); ok {
		return DecodedContext{ChallengeID: cid, Challenge: c, UserDefinedData: direct}
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(direct); err == nil {
		if cid, c, ok := parseContextJSON(decoded); ok {
			return DecodedContext{ChallengeID: cid, Challenge: c, UserDefinedData: direct}
		}
	}
	return DecodedContext{UserDefinedData: direct}
}

func parseContextJSON(data []byte) (challengeID, challenge string, ok bool) {
	var short contextBlob
	if err := json.Unmarshal(data, &short); err == nil {
		challengeID = strings.TrimSpace(short.ChallengeID)
		challenge = strings.TrimSpace(short.Challenge)
	}
	if challengeID == "" || challenge == "" {
		var long longContextBlob
		if err := json.Unmarshal(data, &long); err != nil {
			return "", "", false
		}
		if challengeID == "" {
			challengeID = strings.TrimSpace(long.ChallengeID)
		}
		if challenge == "" {
			challenge = strings.TrimSpace(long.Challenge)
		}
	}
	if challengeID == "" || challenge == "" {
		return "", "", false
	}
	return challengeID, challenge, true
}

// PseudonymousUserID derives the fixed-length identifier handed to the
// provider in place of the real account id: 0x + first 40 hex chars of
// sha256(uid). One-way, so the provider never learns the account id.
func PseudonymousUserID(uid string) string {
	sum := sha256.Sum256([]byte(uid))
	return "0x" + hex.EncodeToString(sum[:])[:40]
}
