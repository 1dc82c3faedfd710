package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
)

func TestEntityStates(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetState(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	tx := &models.EntityState{
		Type:      models.EntityTransaction,
		ID:        "tx-1",
		Snapshot:  models.Snapshot{"id": "tx-1", "amount": "10.00", "deleted": false},
		Clock:     crdt.VectorClock{"dev": 2},
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	account := &models.EntityState{
		Type:     models.EntityAccount,
		ID:       "acc-1",
		Snapshot: models.Snapshot{"id": "acc-1", "name": "Cash"},
		Clock:    crdt.VectorClock{"dev": 1},
	}
	require.NoError(t, store.SaveState(ctx, tx))
	require.NoError(t, store.SaveState(ctx, account))

	got, err := store.GetState(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	// ID одинаковый, тип другой - разные записи
	_, err = store.GetState(ctx, models.EntityAccount, "tx-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	transactions, err := store.ListStates(ctx, models.EntityTransaction)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "tx-1", transactions[0].ID)

	all, err := store.ListStates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAncestors(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetAncestor(ctx, models.EntityBudget, "b-1")
	assert.ErrorIs(t, err, storage.ErrAncestorNotFound)

	ancestor := models.Snapshot{"id": "b-1", "amount": "300", "period": "monthly"}
	require.NoError(t, store.SaveAncestor(ctx, models.EntityBudget, "b-1", ancestor))

	got, err := store.GetAncestor(ctx, models.EntityBudget, "b-1")
	require.NoError(t, err)
	assert.Equal(t, ancestor, got)
}

func TestIDMapping(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)

	require.NoError(t, store.SaveServerID(ctx, models.EntityTransaction, "tx-1", "srv-9"))

	serverID, err := store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-9", serverID)

	localID, err := store.GetLocalID(ctx, models.EntityTransaction, "srv-9")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", localID)

	_, err = store.GetServerID(ctx, models.EntityAccount, "tx-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)

	require.NoError(t, store.DeleteMapping(ctx, models.EntityTransaction, "tx-1"))
	_, err = store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)
	_, err = store.GetLocalID(ctx, models.EntityTransaction, "srv-9")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)

	// удаление отсутствующего маппинга не ошибка
	assert.NoError(t, store.DeleteMapping(ctx, models.EntityTransaction, "tx-1"))
}

func TestConflictLog(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	empty, err := store.ListConflictLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"tx-1", "tx-2", "tx-3"} {
		require.NoError(t, store.AppendConflictLog(ctx, &models.ConflictLog{
			ID:           id + "-log",
			EntityType:   models.EntityTransaction,
			EntityID:     id,
			ConflictType: models.ConflictMergeable,
			Resolution:   models.StrategyMerge,
			ResolvedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.ListConflictLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "tx-1", all[0].EntityID)
	assert.Equal(t, "tx-3", all[2].EntityID)

	last, err := store.ListConflictLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "tx-2", last[0].EntityID)
	assert.Equal(t, "tx-3", last[1].EntityID)
}
