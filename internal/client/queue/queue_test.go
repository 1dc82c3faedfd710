package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/breaker"
	httpClient "github.com/iudanet/ledgersync/internal/client/api"
	"github.com/iudanet/ledgersync/internal/client/connectivity"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/client/storage/boltdb"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type call struct {
	Op       models.Operation
	EntityID string
	ServerID string
}

// recordingRemote - RemoteMock, запоминающий порядок вызовов.
func recordingRemote(calls *[]call, mu *sync.Mutex, fail func(op models.Operation) error) *RemoteMock {
	record := func(c call) {
		mu.Lock()
		defer mu.Unlock()
		*calls = append(*calls, c)
	}
	return &RemoteMock{
		CreateEntityFunc: func(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
			record(call{Op: models.OperationCreate, EntityID: req.ClientID})
			if err := fail(models.OperationCreate); err != nil {
				return nil, err
			}
			return &api.EntityResponse{ID: "srv-" + req.ClientID, ClientID: req.ClientID, Version: 1}, nil
		},
		UpdateEntityFunc: func(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) (*api.EntityResponse, error) {
			record(call{Op: models.OperationUpdate, EntityID: req.ClientID, ServerID: serverID})
			if err := fail(models.OperationUpdate); err != nil {
				return nil, err
			}
			return &api.EntityResponse{ID: serverID, ClientID: req.ClientID, Version: 2}, nil
		},
		DeleteEntityFunc: func(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) error {
			record(call{Op: models.OperationDelete, ServerID: serverID})
			return fail(models.OperationDelete)
		},
	}
}

func noFail(models.Operation) error { return nil }

type testEnv struct {
	store   *boltdb.Storage
	monitor *connectivity.Monitor
	clock   *fakeClock
	remote  *RemoteMock
	queue   *Queue
	calls   []call
	mu      sync.Mutex
}

func (e *testEnv) Calls() []call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]call(nil), e.calls...)
}

func newTestEnv(t *testing.T, online bool, fail func(models.Operation) error, opts ...Option) *testEnv {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		store:   store,
		monitor: connectivity.NewMonitor(online, logger),
		clock:   newFakeClock(),
	}
	env.remote = recordingRemote(&env.calls, &env.mu, fail)

	cfg := Config{MaxRetries: 3, RetryBaseDelay: time.Second, RetryMaxDelay: time.Minute}
	opts = append([]Option{WithClock(env.clock.Now)}, opts...)
	env.queue = New(store, store, env.remote, env.monitor, cfg, logger, opts...)
	return env
}

func tx(id, amount string) *models.Transaction {
	return &models.Transaction{
		Meta:      models.Meta{ID: id},
		BookID:    "book-1",
		AccountID: "acc-1",
		Amount:    amount,
		Date:      "2026-04-01",
		Type:      models.TransactionExpense,
	}
}

func statusError(code int) error {
	return &httpClient.StatusError{StatusCode: code, Message: http.StatusText(code)}
}

func TestQueue_CreateBeforeUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, noFail)

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), crdt.VectorClock{"d": 1})
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, models.OperationUpdate, tx("tx-1", "12"), crdt.VectorClock{"d": 2})
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, res.Status)
	assert.Empty(t, env.Calls())

	env.monitor.SetOnline(true)
	res, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDrained, res.Status)
	assert.Equal(t, 2, res.Completed)

	assert.Equal(t, []call{
		{Op: models.OperationCreate, EntityID: "tx-1"},
		{Op: models.OperationUpdate, EntityID: "tx-1", ServerID: "srv-tx-1"},
	}, env.Calls())

	serverID, err := env.store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-tx-1", serverID)

	pending, err := env.queue.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "completed records are removed")
}

func TestQueue_PayloadSent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, noFail)

	var got api.EntityRequest
	env.remote.CreateEntityFunc = func(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
		got = req
		return &api.EntityResponse{ID: "srv-1"}, nil
	}

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), crdt.VectorClock{"d": 4})
	require.NoError(t, err)
	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)

	assert.Equal(t, "tx-1", got.ClientID)
	assert.Equal(t, map[string]uint64{"d": 4}, got.Clock)
	assert.Contains(t, string(got.Data), `"amount":"10"`)
}

func TestQueue_RetryBound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(models.Operation) error { return statusError(http.StatusServiceUnavailable) })

	rec, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	for attempt := 1; attempt <= 3; attempt++ {
		res, err := env.queue.ProcessQueue(ctx)
		require.NoError(t, err)
		if attempt < 3 {
			assert.Equal(t, 1, res.Retried, "attempt %d", attempt)
		} else {
			assert.Equal(t, 1, res.Failed)
		}

		// запись не отправляется до истечения backoff
		res, err = env.queue.ProcessQueue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Retried+res.Failed+res.Completed)

		env.clock.Advance(time.Hour)
	}

	stored, err := env.store.GetMutation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationFailed, stored.Status)
	assert.Equal(t, 3, stored.RetryCount)
	assert.Contains(t, stored.LastError, "503")

	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, env.Calls(), 3, "failed records are never retried automatically")
}

func TestQueue_BackoffSchedule(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(models.Operation) error { return errors.New("connection reset") })

	rec, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	start := env.clock.Now()

	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)

	stored, err := env.store.GetMutation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.True(t, stored.NextAttemptAt.Equal(start.Add(time.Second)))

	q := env.queue
	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, time.Minute, q.backoff(30))
}

func TestQueue_PermanentFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(op models.Operation) error {
		if op == models.OperationCreate {
			return statusError(http.StatusUnprocessableEntity)
		}
		return nil
	})

	rec, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, models.OperationUpdate, tx("tx-1", "11"), nil)
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Deferred, "update waits behind the failed create")
	assert.Len(t, env.Calls(), 1)

	stored, err := env.store.GetMutation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationFailed, stored.Status)
	assert.Equal(t, 0, stored.RetryCount, "4xx does not consume the retry budget")

	failed, err := env.queue.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, rec.ID, failed[0].ID)
}

func TestQueue_RetryableClientErrors(t *testing.T) {
	for _, code := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests} {
		env := newTestEnv(t, true, func(models.Operation) error { return statusError(code) })

		_, err := env.queue.Enqueue(context.Background(), models.OperationCreate, tx("tx-1", "10"), nil)
		require.NoError(t, err)

		res, err := env.queue.ProcessQueue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Retried, "status %d", code)
	}
}

func TestQueue_NotFoundOnDeleteIsSynced(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(op models.Operation) error {
		if op == models.OperationDelete {
			return statusError(http.StatusNotFound)
		}
		return nil
	})
	require.NoError(t, env.store.SaveServerID(ctx, models.EntityTransaction, "tx-1", "srv-9"))

	e := tx("tx-1", "10")
	models.MarkDeleted(e, env.clock.Now())
	_, err := env.queue.Enqueue(ctx, models.OperationDelete, e, nil)
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, []call{{Op: models.OperationDelete, ServerID: "srv-9"}}, env.Calls())

	_, err = env.store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)
}

func TestQueue_StaleWriteIsDropped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(op models.Operation) error {
		if op == models.OperationUpdate {
			return statusError(http.StatusConflict)
		}
		return nil
	})
	require.NoError(t, env.store.SaveServerID(ctx, models.EntityTransaction, "tx-1", "srv-1"))

	rec, err := env.queue.Enqueue(ctx, models.OperationUpdate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Zero(t, res.Failed)

	_, err = env.store.GetMutation(ctx, rec.ID)
	assert.ErrorIs(t, err, storage.ErrMutationNotFound)

	// pull доставит серверную версию по той же связи
	serverID, err := env.store.GetServerID(ctx, models.EntityTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", serverID)
}

func TestQueue_DeleteNeverSynced(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, noFail)

	_, err := env.queue.Enqueue(ctx, models.OperationDelete, tx("tx-local", "1"), nil)
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Empty(t, env.Calls())
}

func TestQueue_UpdateWithoutMappingUpserts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, noFail)

	_, err := env.queue.Enqueue(ctx, models.OperationUpdate, tx("tx-2", "5"), nil)
	require.NoError(t, err)

	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []call{{Op: models.OperationCreate, EntityID: "tx-2"}}, env.Calls())

	serverID, err := env.store.GetServerID(ctx, models.EntityTransaction, "tx-2")
	require.NoError(t, err)
	assert.Equal(t, "srv-tx-2", serverID)
}

func TestQueue_CircuitOpenKeepsRetryBudget(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	b := breaker.New(breaker.Config{FailureThreshold: 1, ResetTimeout: time.Hour}, breaker.WithClock(clock.Now))
	env := newTestEnv(t, true, func(models.Operation) error { return statusError(http.StatusBadGateway) }, WithBreaker(b))

	rec, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	_, err = env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-2", "10"), nil)
	require.NoError(t, err)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCircuitOpen, res.Status)
	assert.Equal(t, 1, res.Retried)
	assert.Equal(t, breaker.StateOpen, b.State())
	assert.Len(t, env.Calls(), 1, "second record fails fast without a request")

	env.clock.Advance(time.Hour)
	res, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCircuitOpen, res.Status)
	assert.Len(t, env.Calls(), 1)

	stored, err := env.store.GetMutation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationPending, stored.Status)
	assert.Equal(t, 1, stored.RetryCount, "open circuit does not consume a retry")
	assert.Contains(t, stored.LastError, breaker.ErrOpen.Error())
}

func TestQueue_PermanentErrorsDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	b := breaker.New(breaker.Config{FailureThreshold: 1, ResetTimeout: time.Hour})
	env := newTestEnv(t, true, func(models.Operation) error { return statusError(http.StatusBadRequest) }, WithBreaker(b))

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)

	assert.Equal(t, breaker.StateClosed, b.State())
}

func TestQueue_Busy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, noFail)

	entered := make(chan struct{})
	release := make(chan struct{})
	env.remote.CreateEntityFunc = func(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
		close(entered)
		<-release
		return &api.EntityResponse{ID: "srv-1"}, nil
	}

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	done := make(chan *ProcessResult)
	go func() {
		res, _ := env.queue.ProcessQueue(ctx)
		done <- res
	}()

	<-entered
	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusBusy, res.Status)

	close(release)
	first := <-done
	assert.Equal(t, StatusDrained, first.Status)
	assert.Equal(t, 1, first.Completed)
}

func TestQueue_RetryFailedItems(t *testing.T) {
	ctx := context.Background()
	failing := true
	var mu sync.Mutex
	env := newTestEnv(t, true, func(models.Operation) error {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return statusError(http.StatusConflict)
		}
		return nil
	})

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)

	stats, err := env.queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Failed: 1}, stats)

	mu.Lock()
	failing = false
	mu.Unlock()

	n, err := env.queue.RetryFailedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := env.queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].RetryCount)

	res, err := env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
}

func TestQueue_Discard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, func(models.Operation) error { return statusError(http.StatusBadRequest) })

	rec, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.queue.Discard(ctx, rec.ID), ErrNotFailed)

	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)
	require.NoError(t, env.queue.Discard(ctx, rec.ID))

	_, err = env.store.GetMutation(ctx, rec.ID)
	assert.ErrorIs(t, err, storage.ErrMutationNotFound)
}

func TestQueue_OnSynced(t *testing.T) {
	ctx := context.Background()

	var synced []*models.MutationRecord
	env := newTestEnv(t, true, noFail, WithOnSynced(func(ctx context.Context, rec *models.MutationRecord, resp *api.EntityResponse) {
		synced = append(synced, rec)
		require.NotNil(t, resp)
		assert.Equal(t, "srv-tx-1", resp.ID)
	}))

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	_, err = env.queue.ProcessQueue(ctx)
	require.NoError(t, err)

	require.Len(t, synced, 1)
	assert.Equal(t, models.MutationCompleted, synced[0].Status)
}

func TestQueue_InitializeRecoversAndDrainsOnReconnect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false, noFail)

	// запись, оставшаяся в processing после аварийного завершения
	stuck := &models.MutationRecord{
		ID:         "stuck-1",
		EntityType: models.EntityTransaction,
		EntityID:   "tx-0",
		Operation:  models.OperationCreate,
		Status:     models.MutationProcessing,
	}
	payload, err := models.NewMutationPayload(models.OperationCreate, tx("tx-0", "1"), nil)
	require.NoError(t, err)
	stuck.Payload = payload
	require.NoError(t, env.store.AppendMutation(ctx, stuck))

	require.NoError(t, env.queue.Initialize(ctx))
	t.Cleanup(env.queue.Dispose)

	recovered, err := env.store.GetMutation(ctx, "stuck-1")
	require.NoError(t, err)
	assert.Equal(t, models.MutationPending, recovered.Status)

	_, err = env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)
	assert.Empty(t, env.Calls(), "offline enqueue waits")

	env.monitor.SetOnline(true)

	require.Eventually(t, func() bool { return len(env.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "tx-0", env.Calls()[0].EntityID)
	assert.Equal(t, "tx-1", env.Calls()[1].EntityID)
}

func TestQueue_EnqueueWhileOnlineTriggersDrain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true, noFail)

	require.NoError(t, env.queue.Initialize(ctx))
	defer env.queue.Dispose()

	_, err := env.queue.Enqueue(ctx, models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(env.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	env.queue.Dispose()
	env.queue.Dispose() // повторный вызов безопасен
}

func TestQueue_CancelledContextReleasesRecord(t *testing.T) {
	env := newTestEnv(t, true, noFail)
	ctx, cancel := context.WithCancel(context.Background())

	env.remote.CreateEntityFunc = func(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
		cancel()
		return nil, ctx.Err()
	}

	rec, err := env.queue.Enqueue(context.Background(), models.OperationCreate, tx("tx-1", "10"), nil)
	require.NoError(t, err)

	_, err = env.queue.ProcessQueue(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := env.store.GetMutation(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MutationPending, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)
}
