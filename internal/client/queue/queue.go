// Package queue - долговременная очередь исходящих мутаций.
//
// Записи хранятся в MutationStorage и отправляются на сервер, когда устройство онлайн.
// Для одной сущности мутации уходят строго в порядке постановки.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/ledgersync/internal/breaker"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

// ErrNotFailed возвращается Discard для записей, которые еще в работе.
var ErrNotFailed = errors.New("mutation is not failed")

//go:generate moq -out remote_mock.go . Remote

// Remote - REST операции сервера, используемые очередью.
type Remote interface {
	CreateEntity(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error)
	UpdateEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) (*api.EntityResponse, error)
	DeleteEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) error
}

//go:generate moq -out connectivity_mock.go . Connectivity

// Connectivity - сигнал доступности сети от приложения.
type Connectivity interface {
	IsOnline() bool
	Subscribe() (<-chan bool, func())
}

// Config - параметры повторов.
type Config struct {
	// MaxRetries - число подряд неудачных попыток, после которого запись становится failed
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// ProcessInterval - период фоновой попытки отправки отложенных записей (0 - выключено)
	ProcessInterval time.Duration
}

// DefaultConfig возвращает параметры клиента по умолчанию.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      5,
		RetryBaseDelay:  2 * time.Second,
		RetryMaxDelay:   5 * time.Minute,
		ProcessInterval: 30 * time.Second,
	}
}

// SyncedFunc вызывается после того, как мутация подтверждена сервером.
// resp равен nil для delete и для update/delete, которых на сервере уже нет.
type SyncedFunc func(ctx context.Context, rec *models.MutationRecord, resp *api.EntityResponse)

type Option func(*Queue)

func WithBreaker(b *breaker.Breaker) Option {
	return func(q *Queue) { q.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithClock подменяет time.Now для расчета задержек.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithOnSynced регистрирует hook для каждой подтвержденной мутации.
func WithOnSynced(fn SyncedFunc) Option {
	return func(q *Queue) { q.onSynced = fn }
}

// Queue - долговременная очередь исходящих мутаций.
type Queue struct {
	store    storage.MutationStorage
	ids      storage.IDMappingStorage
	remote   Remote
	conn     Connectivity
	breaker  *breaker.Breaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	onSynced SyncedFunc
	trigger  chan struct{}
	cancel   context.CancelFunc
	cfg      Config
	wg       sync.WaitGroup
	// drainMu - гард единственного прохода ProcessQueue (TryLock)
	drainMu sync.Mutex
	mu      sync.Mutex
	running bool
}

// New создает очередь. До Initialize фоновой работы нет.
func New(store storage.MutationStorage, ids storage.IDMappingStorage, remote Remote, conn Connectivity, cfg Config, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		store:   store,
		ids:     ids,
		remote:  remote,
		conn:    conn,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Initialize возвращает в pending записи, оставшиеся в processing после сбоя, и
// запускает фоновый цикл: реакция на сеть, новые записи и таймеры повторов.
func (q *Queue) Initialize(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return nil
	}

	if err := q.recoverProcessing(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	changes, unsubscribe := q.conn.Subscribe()

	q.cancel = cancel
	q.running = true
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer unsubscribe()
		q.loop(loopCtx, changes)
	}()

	q.logger.Debug("Mutation queue initialized")
	return nil
}

// Dispose останавливает фоновый цикл и ждет завершения текущего прохода.
func (q *Queue) Dispose() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	cancel := q.cancel
	q.mu.Unlock()

	cancel()
	q.wg.Wait()
	q.logger.Debug("Mutation queue disposed")
}

func (q *Queue) loop(ctx context.Context, changes <-chan bool) {
	var tick <-chan time.Time
	if q.cfg.ProcessInterval > 0 {
		ticker := time.NewTicker(q.cfg.ProcessInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if online {
				q.logger.Info("Connectivity restored, draining mutation queue")
				q.drain(ctx)
			}
		case <-q.trigger:
			q.drain(ctx)
		case <-tick:
			q.drain(ctx)
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	if _, err := q.ProcessQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		q.logger.Warn("Mutation queue drain failed", "error", err)
	}
}

// Recover возвращает зависшие processing записи в pending без запуска
// фонового цикла (для разовых команд).
func (q *Queue) Recover(ctx context.Context) error {
	return q.recoverProcessing(ctx)
}

func (q *Queue) recoverProcessing(ctx context.Context) error {
	stuck, err := q.store.ListMutations(ctx, models.MutationProcessing)
	if err != nil {
		return fmt.Errorf("failed to list processing mutations: %w", err)
	}
	for _, rec := range stuck {
		rec.Status = models.MutationPending
		rec.UpdatedAt = q.now().UTC()
		if err := q.store.UpdateMutation(ctx, rec); err != nil {
			return fmt.Errorf("failed to recover mutation %s: %w", rec.ID, err)
		}
	}
	if len(stuck) > 0 {
		q.logger.Info("Recovered interrupted mutations", "count", len(stuck))
	}
	return nil
}

// Enqueue сохраняет новую pending мутацию для e. Для delete хранится только ID.
// В онлайне фоновый цикл сразу будится.
func (q *Queue) Enqueue(ctx context.Context, op models.Operation, e models.Entity, clock crdt.VectorClock) (*models.MutationRecord, error) {
	payload, err := models.NewMutationPayload(op, e, clock)
	if err != nil {
		return nil, err
	}

	now := q.now().UTC()
	rec := &models.MutationRecord{
		ID:         uuid.New().String(),
		EntityType: e.EntityType(),
		EntityID:   e.EntityID(),
		Operation:  op,
		Payload:    payload,
		Status:     models.MutationPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := q.store.AppendMutation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to enqueue mutation: %w", err)
	}

	q.metrics.MutationEnqueued(string(rec.EntityType), string(rec.Operation))
	q.logger.Debug("Mutation enqueued",
		"id", rec.ID,
		"entity_type", rec.EntityType,
		"entity_id", rec.EntityID,
		"operation", rec.Operation)

	if q.conn.IsOnline() {
		q.Trigger()
	}
	return rec, nil
}

// Trigger будит фоновый цикл без блокировки.
func (q *Queue) Trigger() {
	select {
	case q.trigger <- struct{}{}:
	default:
	}
}

// RetryFailedItems возвращает все failed записи в pending с новым бюджетом попыток.
func (q *Queue) RetryFailedItems(ctx context.Context) (int, error) {
	failed, err := q.store.ListMutations(ctx, models.MutationFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to list failed mutations: %w", err)
	}

	now := q.now().UTC()
	for _, rec := range failed {
		rec.Status = models.MutationPending
		rec.RetryCount = 0
		rec.NextAttemptAt = time.Time{}
		rec.UpdatedAt = now
		if err := q.store.UpdateMutation(ctx, rec); err != nil {
			return 0, fmt.Errorf("failed to reset mutation %s: %w", rec.ID, err)
		}
	}

	if len(failed) > 0 {
		q.logger.Info("Failed mutations reset for retry", "count", len(failed))
		if q.conn.IsOnline() {
			q.Trigger()
		}
	}
	return len(failed), nil
}

// Discard удаляет failed запись, от которой отказался пользователь.
func (q *Queue) Discard(ctx context.Context, id string) error {
	rec, err := q.store.GetMutation(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != models.MutationFailed {
		return fmt.Errorf("mutation %s is %s: %w", id, rec.Status, ErrNotFailed)
	}
	if err := q.store.DeleteMutation(ctx, id); err != nil {
		return fmt.Errorf("failed to discard mutation: %w", err)
	}
	q.logger.Info("Failed mutation discarded", "id", id, "entity_id", rec.EntityID)
	return nil
}

// Pending возвращает ожидающие отправки записи в порядке очереди.
func (q *Queue) Pending(ctx context.Context) ([]*models.MutationRecord, error) {
	return q.store.ListMutations(ctx, models.MutationPending, models.MutationProcessing)
}

// Failed возвращает записи, требующие ручного повтора.
func (q *Queue) Failed(ctx context.Context) ([]*models.MutationRecord, error) {
	return q.store.ListMutations(ctx, models.MutationFailed)
}

// Stats - количество записей по статусам.
type Stats struct {
	Pending    int
	Processing int
	Failed     int
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	all, err := q.store.ListMutations(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list mutations: %w", err)
	}

	var s Stats
	for _, rec := range all {
		switch rec.Status {
		case models.MutationPending:
			s.Pending++
		case models.MutationProcessing:
			s.Processing++
		case models.MutationFailed:
			s.Failed++
		}
	}

	q.metrics.QueueDepth(string(models.MutationPending), s.Pending)
	q.metrics.QueueDepth(string(models.MutationFailed), s.Failed)
	return s, nil
}
