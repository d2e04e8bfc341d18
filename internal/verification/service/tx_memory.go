package service

import (
	"context"
	"sync"

	challengestore "idv-gateway/internal/challenge/store"
	dedupstore "idv-gateway/internal/dedup/store"
)

// MemoryTxRunner serializes transaction bodies on a single mutex over the
// in-memory stores. Writes made before a failure are not rolled back, so
// bodies must keep all validation ahead of the first write, which the engine
// does. Dev and test wiring only.
type MemoryTxRunner struct {
	mu         sync.Mutex
	challenges *challengestore.Memory
	dedup      *dedupstore.Memory
}

func NewMemoryTxRunner(challenges *challengestore.Memory, dedup *dedupstore.Memory) *MemoryTxRunner {
	return &MemoryTxRunner{challenges: challenges, dedup: dedup}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, TxStores{Challenges: r.challenges, Dedup: r.dedup})
}
