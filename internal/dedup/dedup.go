// Package dedup maps keyed hashes of provider nullifiers to the single
// account that claimed each real-world identity. Raw nullifiers are never
// persisted; only the HMAC survives.
package dedup

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMissingSecret indicates the dedup HMAC secret is not configured.
// Callers must fail closed: an unconfigured key never permits a verification
// to succeed.
var ErrMissingSecret = errors.New("missing dedup secret")

// Record binds one hashed identity to one account. The binding is permanent;
// re-verification by the same account updates metadata only.
type Record struct {
	DedupHash       string
	UID             string
	Provider        string
	AssuranceLevel  string
	AttestationType string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Hasher derives dedup hashes from nullifiers with a keyed one-way function.
// The namespace prefix keeps hashes from different providers disjoint even if
// a nullifier value collides across them.
type Hasher struct {
	secret    []byte
	namespace string
}

// NewHasher creates a Hasher. secret may be empty; Hash then fails closed.
func NewHasher(secret, namespace string) *Hasher {
	return &Hasher{secret: []byte(secret), namespace: namespace}
}

// Hash returns hex(HMAC-SHA256(secret, namespace + ":" + nullifier)).
func (h *Hasher) Hash(nullifier string) (string, error) {
	if len(h.secret) == 0 {
		return "", ErrMissingSecret
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(h.namespace + ":" + nullifier))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
