package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetLastSyncVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	// Изначально, если версия не сохранена — ожидаем 0
	v, err := store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, store.SaveLastSyncVersion(ctx, 42))

	v, err = store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// Перезапись значения
	require.NoError(t, store.SaveLastSyncVersion(ctx, 100))

	v, err = store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
}

func TestGetOrCreateNodeID(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	first, err := store.GetOrCreateNodeID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := store.GetOrCreateNodeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
