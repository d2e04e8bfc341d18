package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idv-gateway/internal/dedup"
	"idv-gateway/pkg/platform/sentinel"
)

func TestMemoryUpsertCreatesBinding(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	now := time.Now()
	require.NoError(t, store.Upsert(ctx, &dedup.Record{
		DedupHash: "h1",
		UID:       "u1",
		Provider:  "self_openpassport",
		CreatedAt: now,
		UpdatedAt: now,
	}))

	rec, err := store.Find(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UID)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryUpsertSameAccountRefreshesMetadataOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created := time.Now().Add(-time.Hour)
	require.NoError(t, store.Upsert(ctx, &dedup.Record{
		DedupHash:      "h1",
		UID:            "u1",
		AssuranceLevel: "default",
		CreatedAt:      created,
		UpdatedAt:      created,
	}))

	later := time.Now()
	require.NoError(t, store.Upsert(ctx, &dedup.Record{
		DedupHash:      "h1",
		UID:            "u1",
		AssuranceLevel: "minimum_age_18",
		CreatedAt:      later,
		UpdatedAt:      later,
	}))

	rec, err := store.Find(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "minimum_age_18", rec.AssuranceLevel)
	assert.True(t, rec.CreatedAt.Equal(created), "the original binding time is immutable")
	assert.True(t, rec.UpdatedAt.Equal(later))
}

func TestMemoryUpsertDifferentAccountConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Upsert(ctx, &dedup.Record{DedupHash: "h1", UID: "u1"}))
	err := store.Upsert(ctx, &dedup.Record{DedupHash: "h1", UID: "u2"})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	rec, findErr := store.Find(ctx, "h1")
	require.NoError(t, findErr)
	assert.Equal(t, "u1", rec.UID, "the first binding wins")
}

func TestMemoryFindNotFound(t *testing.T) {
	_, err := NewMemory().Find(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
