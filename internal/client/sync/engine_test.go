package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/connectivity"
	"github.com/iudanet/ledgersync/internal/client/queue"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/client/storage/boltdb"
	"github.com/iudanet/ledgersync/internal/client/transport"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

var testNow = time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

type testEnv struct {
	engine  *Engine
	store   *boltdb.Storage
	monitor *connectivity.Monitor
	remote  *RemoteMock
}

func newRemote() *RemoteMock {
	return &RemoteMock{
		CreateEntityFunc: func(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
			return &api.EntityResponse{ID: "srv-" + req.ClientID, ClientID: req.ClientID, Clock: req.Clock, Version: 1}, nil
		},
		UpdateEntityFunc: func(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) (*api.EntityResponse, error) {
			return &api.EntityResponse{ID: serverID, ClientID: req.ClientID, Clock: req.Clock, Version: 2}, nil
		},
		DeleteEntityFunc: func(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) error {
			return nil
		},
		PullFunc: func(ctx context.Context, since int64, limit int) (*api.SyncResponse, error) {
			return &api.SyncResponse{CurrentVersion: since}, nil
		},
	}
}

func newTestEnv(t *testing.T, online bool, remote *RemoteMock, opts ...Option) *testEnv {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if remote == nil {
		remote = newRemote()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := connectivity.NewMonitor(online, logger)

	cfg := DefaultConfig()
	cfg.Queue = queue.Config{MaxRetries: 3, RetryBaseDelay: time.Second, RetryMaxDelay: time.Minute, ProcessInterval: time.Hour}

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	engine := NewEngine(store, remote, monitor, cfg, logger, opts...)
	t.Cleanup(engine.Dispose)

	return &testEnv{engine: engine, store: store, monitor: monitor, remote: remote}
}

func tx(id, amount string) *models.Transaction {
	return &models.Transaction{
		Meta:      models.Meta{ID: id},
		BookID:    "book-1",
		AccountID: "acc-1",
		Amount:    amount,
		Date:      "2026-05-10",
		Type:      models.TransactionExpense,
	}
}

func snapshotOf(t *testing.T, e models.Entity) models.Snapshot {
	t.Helper()
	s, err := models.SnapshotOf(e)
	require.NoError(t, err)
	return s
}

func changeOf(t *testing.T, e models.Entity, clock crdt.VectorClock, version int64) api.EntityChange {
	t.Helper()
	data, err := models.MarshalEntity(e)
	require.NoError(t, err)
	return api.EntityChange{
		EntityType: string(e.EntityType()),
		EntityID:   e.EntityID(),
		ServerID:   "srv-" + e.EntityID(),
		DeviceID:   "other-device",
		Clock:      clock,
		Data:       data,
		Version:    version,
	}
}

func entityResponse(c api.EntityChange) api.EntityResponse {
	return api.EntityResponse{
		ID:         c.ServerID,
		ClientID:   c.EntityID,
		EntityType: c.EntityType,
		Clock:      c.Clock,
		Data:       c.Data,
		Version:    c.Version,
	}
}

func (env *testEnv) state(t *testing.T, id string) *models.EntityState {
	t.Helper()
	st, err := env.store.GetState(context.Background(), models.EntityTransaction, id)
	require.NoError(t, err)
	return st
}

func (env *testEnv) nodeID(t *testing.T) string {
	t.Helper()
	id, err := env.engine.node(context.Background())
	require.NoError(t, err)
	return id
}

func TestEngine_SaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	rec, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)
	assert.Equal(t, models.OperationCreate, rec.Operation)

	st := env.state(t, "tx-1")
	assert.Equal(t, crdt.VectorClock{node: 1}, st.Clock)
	assert.Equal(t, "12.50", st.Snapshot["amount"])

	// CreatedAt не передан, берется из сохраненной реплики
	rec, err = env.engine.Save(ctx, tx("tx-1", "13.00"))
	require.NoError(t, err)
	assert.Equal(t, models.OperationUpdate, rec.Operation)

	st = env.state(t, "tx-1")
	assert.Equal(t, crdt.VectorClock{node: 2}, st.Clock)
	created, ok := st.Snapshot.CreatedAt()
	require.True(t, ok)
	assert.True(t, testNow.Equal(created))

	p, err := models.DecodeMutationPayload(rec.Payload)
	require.NoError(t, err)
	assert.Equal(t, crdt.VectorClock{node: 2}, p.Clock)

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestEngine_SaveRejectsInvalidEntity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	_, err := env.engine.Save(ctx, tx("tx-1", "0"))
	require.Error(t, err)

	_, err = env.store.GetState(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)

	rec, err := env.engine.Delete(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationDelete, rec.Operation)
	assert.True(t, env.state(t, "tx-1").Deleted())

	_, err = env.engine.Delete(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, ErrAlreadyDeleted)

	_, err = env.engine.Delete(ctx, models.EntityTransaction, "missing")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	list, err := env.engine.List(ctx, models.EntityTransaction)
	require.NoError(t, err)
	assert.Empty(t, list, "tombstones are hidden")
}

func TestEngine_SyncSendsQueueAndRecordsAncestor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, nil)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)

	res, err := env.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusDrained, res.Queue.Status)
	assert.Equal(t, 1, res.Queue.Completed)
	assert.Len(t, env.remote.CreateEntityCalls(), 1)

	ancestor, err := env.store.GetAncestor(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "12.50", ancestor["amount"])

	serverID, err := env.store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-tx-1", serverID)
}

func TestEngine_SyncOffline(t *testing.T) {
	env := newTestEnv(t, false, nil)

	_, err := env.engine.Sync(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	assert.Empty(t, env.remote.PullCalls())
}

func TestEngine_SyncPullsAllPages(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	env := newTestEnv(t, true, remote)

	entity := func(id string, version int64) api.EntityResponse {
		data, err := models.MarshalEntity(tx(id, "5.00"))
		require.NoError(t, err)
		return api.EntityResponse{
			ID:         "srv-" + id,
			ClientID:   id,
			EntityType: string(models.EntityTransaction),
			Clock:      map[string]uint64{"other-device": 1},
			Data:       data,
			Version:    version,
		}
	}

	remote.PullFunc = func(ctx context.Context, since int64, limit int) (*api.SyncResponse, error) {
		switch since {
		case 0:
			return &api.SyncResponse{Entities: []api.EntityResponse{entity("tx-1", 1)}, CurrentVersion: 1, HasMore: true}, nil
		case 1:
			return &api.SyncResponse{Entities: []api.EntityResponse{entity("tx-2", 2)}, CurrentVersion: 2}, nil
		default:
			return nil, errors.New("unexpected page")
		}
	}

	res, err := env.engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pulled)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, int64(2), res.Version)

	version, err := env.store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	assert.Equal(t, "5.00", env.state(t, "tx-2").Snapshot["amount"])

	localID, err := env.store.GetLocalID(ctx, models.EntityTransaction, "srv-tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", localID)
}

func TestEngine_HandleRemoteChange_NewEntity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-9", "7.00"), crdt.VectorClock{"other-device": 1}, 1))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.HasConflict)

	st := env.state(t, "tx-9")
	assert.Equal(t, "7.00", st.Snapshot["amount"])
	assert.Equal(t, crdt.VectorClock{"other-device": 1}, st.Clock)

	ancestor, err := env.store.GetAncestor(ctx, models.EntityTransaction, "tx-9")
	require.NoError(t, err)
	assert.Equal(t, "7.00", ancestor["amount"])
}

func TestEngine_HandleRemoteChange_RemoteNewer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)

	remoteClock := crdt.VectorClock{node: 1, "other-device": 1}
	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), remoteClock, 2))
	require.NoError(t, err)
	assert.Equal(t, crdt.Before, res.Ordering)

	st := env.state(t, "tx-1")
	assert.Equal(t, "20.00", st.Snapshot["amount"])
	assert.Equal(t, remoteClock, st.Clock)
}

func TestEngine_HandleRemoteChange_StaleRemoteIgnored(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)
	_, err = env.engine.Save(ctx, tx("tx-1", "14.00"))
	require.NoError(t, err)

	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "12.50"), crdt.VectorClock{node: 1}, 1))
	require.NoError(t, err)
	assert.Equal(t, crdt.After, res.Ordering)
	assert.Equal(t, "14.00", env.state(t, "tx-1").Snapshot["amount"])
}

func TestEngine_HandleRemoteChange_IgnoresEchoAndDuplicates(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.GetEntityFunc = func(ctx context.Context, entityType models.EntityType, serverID string) (*api.EntityResponse, error) {
		data, err := models.MarshalEntity(tx("tx-1", "3.00"))
		if err != nil {
			return nil, err
		}
		return &api.EntityResponse{ID: serverID, ClientID: "tx-1", Clock: map[string]uint64{"other-device": 1}, Data: data, Version: 4}, nil
	}
	env := newTestEnv(t, false, remote)

	echo := changeOf(t, tx("tx-1", "3.00"), crdt.VectorClock{"x": 1}, 3)
	echo.DeviceID = env.nodeID(t)
	res, err := env.engine.HandleRemoteChange(ctx, echo)
	require.NoError(t, err)
	assert.Nil(t, res)

	// уведомление без данных: снапшот запрашивается у сервера один раз
	change := api.EntityChange{
		EntityType: string(models.EntityTransaction),
		EntityID:   "tx-1",
		ServerID:   "srv-tx-1",
		DeviceID:   "other-device",
		Version:    4,
	}
	res, err = env.engine.HandleRemoteChange(ctx, change)
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = env.engine.HandleRemoteChange(ctx, change)
	require.NoError(t, err)
	assert.Nil(t, res, "same version is delivered once")

	assert.Len(t, remote.GetEntityCalls(), 1)
	assert.Equal(t, "3.00", env.state(t, "tx-1").Snapshot["amount"])
}

func TestEngine_HandleRemoteChange_RemoteDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)

	change := api.EntityChange{
		EntityType: string(models.EntityTransaction),
		EntityID:   "tx-1",
		ServerID:   "srv-tx-1",
		Clock:      map[string]uint64{node: 1, "other-device": 1},
		Deleted:    true,
		Version:    2,
	}
	_, err = env.engine.HandleRemoteChange(ctx, change)
	require.NoError(t, err)
	assert.True(t, env.state(t, "tx-1").Deleted())
}

// concurrentSetup сохраняет локальную правку поверх общего предка base.
func concurrentSetup(t *testing.T, env *testEnv, base, local *models.Transaction) {
	t.Helper()
	ctx := context.Background()

	_, err := env.engine.Save(ctx, local)
	require.NoError(t, err)
	require.NoError(t, env.store.SaveAncestor(ctx, models.EntityTransaction, base.ID, snapshotOf(t, base)))
}

func TestEngine_ConcurrentMergeablePushesResolution(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	base := tx("tx-1", "12.50")
	local := tx("tx-1", "12.50")
	local.Note = "lunch"
	concurrentSetup(t, env, base, local)

	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 2))
	require.NoError(t, err)
	assert.Equal(t, models.ConflictMergeable, res.Type)
	assert.Equal(t, []string{"note"}, res.LocalFields)
	assert.Equal(t, []string{"amount"}, res.RemoteFields)

	st := env.state(t, "tx-1")
	assert.Equal(t, "20.00", st.Snapshot["amount"])
	assert.Equal(t, "lunch", st.Snapshot["note"])
	assert.Equal(t, crdt.VectorClock{node: 2, "other-device": 1}, st.Clock)

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	last := pending[1]
	assert.Equal(t, models.OperationUpdate, last.Operation)

	p, err := models.DecodeMutationPayload(last.Payload)
	require.NoError(t, err)
	assert.Equal(t, crdt.After, p.Clock.Compare(crdt.VectorClock{"other-device": 1}))

	logs, err := env.store.ListConflictLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StrategyMerge, logs[0].Resolution)
}

func TestEngine_FieldConflictWaitsForManualDecision(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))

	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 2))
	var conflictErr *conflict.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, models.ConflictField, res.Type)
	assert.Equal(t, []string{"amount"}, res.Conflicting)

	// локальная реплика не тронута до решения пользователя
	assert.Equal(t, "15.00", env.state(t, "tx-1").Snapshot["amount"])

	select {
	case got := <-env.engine.Conflicts():
		assert.Equal(t, "tx-1", got.EntityID)
	default:
		t.Fatal("conflict was not published")
	}
	require.Len(t, env.engine.PendingConflicts(), 1)

	st, err := env.engine.ResolveWith(ctx, models.EntityTransaction, "tx-1", models.StrategyRemoteWins)
	require.NoError(t, err)
	assert.Equal(t, "20.00", st.Snapshot["amount"])
	assert.Empty(t, env.engine.PendingConflicts())

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "remote version is not sent back")

	_, err = env.engine.ResolveWith(ctx, models.EntityTransaction, "tx-1", models.StrategyRemoteWins)
	assert.ErrorIs(t, err, ErrNoPendingConflict)
}

func TestEngine_PullHoldsVersionBeforePendingConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))

	conflicting := entityResponse(changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 5))
	fresh := entityResponse(changeOf(t, tx("tx-2", "3.00"), crdt.VectorClock{"other-device": 2}, 6))

	result := &SyncResult{}
	require.NoError(t, env.engine.applyPage(ctx, &api.SyncResponse{Entities: []api.EntityResponse{conflicting, fresh}, CurrentVersion: 6, HasMore: true}, result))
	require.NoError(t, env.engine.applyPage(ctx, &api.SyncResponse{CurrentVersion: 9}, result))

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, int64(4), result.Version)

	version, err := env.store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version, "the conflicting change is pulled again next time")
	assert.Equal(t, "3.00", env.state(t, "tx-2").Snapshot["amount"])
}

func TestEngine_RepeatedPullKeepsConflictPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))
	page := &api.SyncResponse{
		Entities:       []api.EntityResponse{entityResponse(changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 5))},
		CurrentVersion: 5,
	}

	first := &SyncResult{}
	require.NoError(t, env.engine.applyPage(ctx, page, first))
	assert.Equal(t, 1, first.Conflicts)
	assert.Equal(t, int64(4), first.Version)

	// следующий pull в пределах DedupeTTL получает ту же версию
	second := &SyncResult{Version: first.Version}
	require.NoError(t, env.engine.applyPage(ctx, page, second))
	assert.Equal(t, 1, second.Conflicts)
	assert.Zero(t, second.Applied)
	assert.Equal(t, int64(4), second.Version)

	version, err := env.store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.Len(t, env.engine.PendingConflicts(), 1)
	assert.Equal(t, "15.00", env.state(t, "tx-1").Snapshot["amount"])
}

func TestEngine_PendingEntityHoldsVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))
	_, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 5))
	var conflictErr *conflict.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// устаревшая версия той же сущности применяется без ошибки,
	// но конфликт остается нерешенным
	stale := entityResponse(changeOf(t, tx("tx-1", "12.50"), crdt.VectorClock{}, 3))
	result := &SyncResult{}
	require.NoError(t, env.engine.applyPage(ctx, &api.SyncResponse{Entities: []api.EntityResponse{stale}, CurrentVersion: 7}, result))

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, int64(2), result.Version)
}

func TestEngine_PullHoldsVersionAtFirstChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))
	concurrentSetup(t, env, tx("tx-3", "1.00"), tx("tx-3", "2.00"))

	page := &api.SyncResponse{
		Entities: []api.EntityResponse{
			entityResponse(changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 1)),
			entityResponse(changeOf(t, tx("tx-3", "4.00"), crdt.VectorClock{"other-device": 3}, 3)),
		},
		CurrentVersion: 3,
	}

	result := &SyncResult{}
	require.NoError(t, env.engine.applyPage(ctx, page, result))
	assert.Equal(t, 2, result.Conflicts)
	assert.Equal(t, int64(0), result.Version)

	version, err := env.store.GetLastSyncVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version, "change at version 1 is pulled again")
}

func TestEngine_ResolveManually(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)
	node := env.nodeID(t)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "15.00"))

	_, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 2))
	require.Error(t, err)

	_, err = env.engine.ResolveManually(ctx, models.EntityTransaction, "tx-1", models.Snapshot{"amount": "0"})
	require.Error(t, err, "resolution must stay a valid entity")

	chosen := snapshotOf(t, tx("tx-1", "17.50"))
	st, err := env.engine.ResolveManually(ctx, models.EntityTransaction, "tx-1", chosen)
	require.NoError(t, err)
	assert.Equal(t, "17.50", st.Snapshot["amount"])
	assert.Equal(t, crdt.VectorClock{node: 2, "other-device": 1}, st.Clock)

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.OperationUpdate, pending[1].Operation)

	logs, err := env.store.ListConflictLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StrategyManual, logs[0].Resolution)
	assert.Equal(t, models.ConflictField, logs[0].ConflictType)
}

func TestEngine_DeleteUpdateIsPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	concurrentSetup(t, env, tx("tx-1", "12.50"), tx("tx-1", "12.50"))
	_, err := env.engine.Delete(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)

	res, err := env.engine.HandleRemoteChange(ctx, changeOf(t, tx("tx-1", "20.00"), crdt.VectorClock{"other-device": 1}, 2))
	require.Error(t, err)
	assert.Equal(t, models.ConflictDeleteUpdate, res.Type)

	_, err = env.engine.ResolveWith(ctx, models.EntityTransaction, "tx-1", models.StrategyMerge)
	assert.ErrorIs(t, err, conflict.ErrNotMergeable)

	st, err := env.engine.ResolveWith(ctx, models.EntityTransaction, "tx-1", models.StrategyLocalWins)
	require.NoError(t, err)
	assert.True(t, st.Deleted())

	pending, err := env.engine.Queue().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, models.OperationDelete, pending[2].Operation)
}

func TestEngine_Status(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, nil)

	_, err := env.engine.Save(ctx, tx("tx-1", "12.50"))
	require.NoError(t, err)

	st, err := env.engine.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Online)
	assert.Equal(t, "none", st.Transport)
	assert.Equal(t, 1, st.Queue.Pending)
	assert.NotEmpty(t, st.NodeID)
}

type fakeTransport struct {
	*TransportMock
	messages chan api.Message
	states   chan transport.State
}

func newFakeTransport(state transport.State) *fakeTransport {
	ft := &fakeTransport{
		messages: make(chan api.Message, 8),
		states:   make(chan transport.State, 8),
	}
	ft.TransportMock = &TransportMock{
		ConnectFunc:    func(ctx context.Context) error { return nil },
		DisconnectFunc: func() {},
		StateFunc:      func() transport.State { return state },
		StatesFunc: func() (<-chan transport.State, func()) {
			return ft.states, func() {}
		},
		SubscribeFunc: func(msgType string, buffer int) (<-chan api.Message, func()) {
			return ft.messages, func() {}
		},
	}
	return ft
}

func TestEngine_InitializeRoutesPushes(t *testing.T) {
	ctx := context.Background()
	ft := newFakeTransport(transport.StateDisconnected)
	env := newTestEnv(t, true, nil, WithTransport(ft))

	require.NoError(t, env.engine.Initialize(ctx))
	assert.Len(t, ft.ConnectCalls(), 1)
	assert.Equal(t, transport.AllTypes, ft.SubscribeCalls()[0].MsgType)

	msg, err := api.NewMessage(api.ChangeType("transaction", api.ActionCreated),
		changeOf(t, tx("tx-5", "9.99"), crdt.VectorClock{"other-device": 1}, 1))
	require.NoError(t, err)
	ft.messages <- msg

	member, err := api.NewMessage(api.TypeMemberJoined, api.MemberEvent{BookID: "book-1", UserID: "u-2"})
	require.NoError(t, err)
	ft.messages <- member

	require.Eventually(t, func() bool {
		_, err := env.store.GetState(ctx, models.EntityTransaction, "tx-5")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	select {
	case ev := <-env.engine.Events():
		assert.Equal(t, api.TypeMemberJoined, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("member event was not delivered")
	}

	env.monitor.SetOnline(false)
	require.Eventually(t, func() bool { return len(ft.DisconnectCalls()) >= 1 }, time.Second, 10*time.Millisecond)

	env.monitor.SetOnline(true)
	require.Eventually(t, func() bool { return len(ft.ConnectCalls()) >= 2 }, time.Second, 10*time.Millisecond)
}

func TestEngine_PullOverTransport(t *testing.T) {
	ctx := context.Background()
	ft := newFakeTransport(transport.StateConnected)

	data, err := models.MarshalEntity(tx("tx-7", "1.00"))
	require.NoError(t, err)

	ft.SendRequestFunc = func(ctx context.Context, msg api.Message, timeout time.Duration) (api.Message, error) {
		var req api.SyncRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return api.Message{}, err
		}
		resp := api.SyncResponse{CurrentVersion: req.Since + 3, Entities: []api.EntityResponse{{
			ID:         "srv-tx-7",
			ClientID:   "tx-7",
			EntityType: string(models.EntityTransaction),
			Clock:      map[string]uint64{"other-device": 1},
			Data:       data,
			Version:    3,
		}}}
		return api.NewMessage(api.TypeSyncResponse, resp)
	}
	env := newTestEnv(t, true, nil, WithTransport(ft))

	res, err := env.engine.PullOverTransport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pulled)
	assert.Equal(t, int64(3), res.Version)

	require.Len(t, ft.SendRequestCalls(), 1)
	assert.Equal(t, api.TypeSyncRequest, ft.SendRequestCalls()[0].Msg.Type)
	assert.Equal(t, "1.00", env.state(t, "tx-7").Snapshot["amount"])
}
