package conflict

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/client/storage/boltdb"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T) (*Resolver, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "conflict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(store, store, logger, WithResolverClock(func() time.Time { return fixedNow })), store
}

func TestResolver_CompareUsesStoredAncestor(t *testing.T) {
	ctx := context.Background()
	r, store := newTestResolver(t)

	require.NoError(t, store.SaveAncestor(ctx, models.EntityTransaction, "tx-1", models.Snapshot{"amount": float64(10)}))

	local := &models.EntityState{
		Type:     models.EntityTransaction,
		ID:       "tx-1",
		Snapshot: models.Snapshot{"amount": float64(10)},
		Clock:    clockA,
	}
	res, err := r.Compare(ctx, models.EntityTransaction, "tx-1", local, models.Snapshot{"amount": float64(10), "note": "x"}, clockB)
	require.NoError(t, err)
	assert.Equal(t, models.ConflictMergeable, res.Type)
	assert.Equal(t, models.EntityTransaction, res.EntityType)

	// без предка расхождение amount считается конфликтом поля
	res, err = r.Compare(ctx, models.EntityTransaction, "tx-2", local, models.Snapshot{"amount": float64(20)}, clockB)
	require.NoError(t, err)
	assert.Equal(t, models.ConflictField, res.Type)
}

func TestResolver_CompareUnknownLocal(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.Compare(context.Background(), models.EntityBook, "b-1", nil, models.Snapshot{"name": "Home"}, crdt.VectorClock{"x": 1})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Equal(t, models.StrategyRemoteWins, res.Resolution)
}

func TestResolver_ResolvePersists(t *testing.T) {
	ctx := context.Background()
	r, store := newTestResolver(t)

	res := fieldConflict()
	state, strategy, err := r.Resolve(ctx, res, Policy{models.ConflictField: models.StrategyRemoteWins})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyRemoteWins, strategy)

	assert.Equal(t, crdt.VectorClock{"a": 2, "b": 2}, state.Clock, "clock is the merge of both sides")

	saved, err := store.GetState(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "20", saved.Snapshot["amount"])
	assert.True(t, saved.Clock.Equal(crdt.VectorClock{"a": 2, "b": 2}))

	ancestor, err := store.GetAncestor(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "20", ancestor["amount"])

	logs, err := store.ListConflictLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ConflictField, logs[0].ConflictType)
	assert.Equal(t, models.StrategyRemoteWins, logs[0].Resolution)
	assert.True(t, fixedNow.Equal(logs[0].ResolvedAt))
}

func TestResolver_ManualPersistsNothing(t *testing.T) {
	ctx := context.Background()
	r, store := newTestResolver(t)

	_, strategy, err := r.Resolve(ctx, fieldConflict(), DefaultPolicy())
	assert.ErrorIs(t, err, ErrManualResolution)
	assert.Equal(t, models.StrategyManual, strategy)

	_, err = store.GetState(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	logs, err := store.ListConflictLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestResolver_NoConflictSkipsLog(t *testing.T) {
	ctx := context.Background()
	r, store := newTestResolver(t)

	res := Detect(models.Snapshot{"name": "a"}, models.Snapshot{"name": "b"}, crdt.VectorClock{"a": 1}, crdt.VectorClock{"a": 2}, nil)
	res.EntityType = models.EntityBook
	res.EntityID = "b-1"

	_, _, err := r.Resolve(ctx, res, DefaultPolicy())
	require.NoError(t, err)

	logs, err := store.ListConflictLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestResolver_StorageErrors(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("disk full")

	entities := &storage.EntityStorageMock{
		GetAncestorFunc: func(ctx context.Context, entityType models.EntityType, id string) (models.Snapshot, error) {
			return nil, boom
		},
		SaveStateFunc: func(ctx context.Context, state *models.EntityState) error {
			return boom
		},
	}
	r := NewResolver(entities, &storage.ConflictLogStorageMock{}, logger)

	_, err := r.Compare(ctx, models.EntityBook, "b-1", nil, nil, nil)
	assert.ErrorIs(t, err, boom)

	_, err = r.ResolveConflict(ctx, fieldConflict(), models.Snapshot{}, models.StrategyLocalWins)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, entities.SaveStateCalls(), 1)
}
