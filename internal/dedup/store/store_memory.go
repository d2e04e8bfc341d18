package store

import (
	"context"
	"sync"

	"idv-gateway/internal/dedup"
	"idv-gateway/pkg/platform/sentinel"
)

// Memory is an in-memory dedup store for development and unit tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]dedup.Record
}

// NewMemory creates an empty in-memory dedup store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]dedup.Record)}
}

func (m *Memory) Find(_ context.Context, dedupHash string) (*dedup.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[dedupHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (m *Memory) Upsert(_ context.Context, rec *dedup.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[rec.DedupHash]
	if !ok {
		m.records[rec.DedupHash] = *rec
		return nil
	}
	if existing.UID != rec.UID {
		return sentinel.ErrConflict
	}
	// Metadata refresh only; the binding and its creation time are immutable.
	existing.Provider = rec.Provider
	existing.AssuranceLevel = rec.AssuranceLevel
	existing.AttestationType = rec.AttestationType
	existing.UpdatedAt = rec.UpdatedAt
	m.records[rec.DedupHash] = existing
	return nil
}

// Len reports the number of bindings. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
