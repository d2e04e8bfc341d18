package store

import (
	"context"
	"sync"
	"time"

	"idv-gateway/internal/challenge"
	"idv-gateway/pkg/platform/sentinel"
)

// Memory is an in-memory challenge store for development and unit tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]challenge.Challenge
}

// NewMemory creates an empty in-memory challenge store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]challenge.Challenge)}
}

func (m *Memory) Create(_ context.Context, c *challenge.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[c.ID]; exists {
		return sentinel.ErrConflict
	}
	m.records[c.ID] = cloneChallenge(c)
	return nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*challenge.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneChallenge(&rec)
	return &out, nil
}

func (m *Memory) MarkClaimsSyncFailed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Status = challenge.StatusClaimsSyncFailed
	rec.ClaimsSyncFailedAt = &at
	m.records[id] = rec
	return nil
}

// MarkVerified consumes the challenge. Used by the transactional view; callers
// must have re-validated state under the transaction lock.
func (m *Memory) MarkVerified(_ context.Context, id, uid, provider string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.UsedAt != nil {
		return sentinel.ErrAlreadyUsed
	}
	rec.Status = challenge.StatusVerified
	rec.UsedAt = &usedAt
	rec.UsedByUID = uid
	rec.Provider = provider
	m.records[id] = rec
	return nil
}

func cloneChallenge(c *challenge.Challenge) challenge.Challenge {
	out := *c
	if c.UsedAt != nil {
		t := *c.UsedAt
		out.UsedAt = &t
	}
	if c.ClaimsSyncFailedAt != nil {
		t := *c.ClaimsSyncFailedAt
		out.ClaimsSyncFailedAt = &t
	}
	return out
}
