package claims

import (
	"context"
	"sync"
	"time"

	"idv-gateway/pkg/platform/sentinel"
)

// MemoryStore is an in-memory claims store for development and unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Claims
}

// NewMemoryStore creates an empty in-memory claims store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Claims)}
}

func (m *MemoryStore) Get(_ context.Context, uid string) (*Claims, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[uid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (m *MemoryStore) Set(_ context.Context, uid string, status Status, kycVerified bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[uid] = Claims{
		UID:         uid,
		Status:      status,
		KYCVerified: kycVerified,
		UpdatedAt:   at,
	}
	return nil
}

// MemorySignaler records refresh signals in memory for tests.
type MemorySignaler struct {
	mu      sync.Mutex
	signals map[string]time.Time
}

// NewMemorySignaler creates an empty in-memory refresh signaler.
func NewMemorySignaler() *MemorySignaler {
	return &MemorySignaler{signals: make(map[string]time.Time)}
}

func (m *MemorySignaler) SignalRefresh(_ context.Context, uid string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[uid] = at
	return nil
}

// LastSignal returns the most recent refresh signal for uid. Test helper.
func (m *MemorySignaler) LastSignal(uid string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.signals[uid]
	return at, ok
}
