// Package sync связывает очередь мутаций, резолвер конфликтов и транспорт
// в движок синхронизации, которым пользуются доменные сервисы клиента.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/ledgersync/internal/breaker"
	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/queue"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/client/transport"
	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

//go:generate moq -out remote_mock.go . Remote

// Remote - REST API сервера, используемое движком.
type Remote interface {
	CreateEntity(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error)
	UpdateEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) (*api.EntityResponse, error)
	DeleteEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) error
	GetEntity(ctx context.Context, entityType models.EntityType, serverID string) (*api.EntityResponse, error)
	Pull(ctx context.Context, since int64, limit int) (*api.SyncResponse, error)
}

//go:generate moq -out transport_mock.go . Transport

// Transport - канал push уведомлений (реализуется *transport.Transport).
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() transport.State
	States() (<-chan transport.State, func())
	Subscribe(msgType string, buffer int) (<-chan api.Message, func())
	SendRequest(ctx context.Context, msg api.Message, timeout time.Duration) (api.Message, error)
}

// Store - локальное хранилище клиента (реализуется boltdb.Storage).
type Store interface {
	storage.MutationStorage
	storage.IDMappingStorage
	storage.EntityStorage
	storage.ConflictLogStorage
	storage.MetadataStorage
}

type Config struct {
	Policy    conflict.Policy
	Queue     queue.Config
	DedupeTTL time.Duration
	PullLimit int
	// RequestTimeout - таймаут sync.request через транспорт
	RequestTimeout time.Duration
}

// DefaultConfig возвращает параметры клиента по умолчанию.
func DefaultConfig() Config {
	return Config{
		Policy:         conflict.DefaultPolicy(),
		Queue:          queue.DefaultConfig(),
		DedupeTTL:      time.Minute,
		PullLimit:      100,
		RequestTimeout: 15 * time.Second,
	}
}

type Option func(*Engine)

// WithTransport включает push уведомления и pull через websocket.
func WithTransport(t Transport) Option {
	return func(e *Engine) { e.transport = t }
}

// WithBreaker ограничивает запросы очереди. Breaker должен быть отдельным:
// у транспорта свои счетчики отказов.
func WithBreaker(b *breaker.Breaker) Option {
	return func(e *Engine) { e.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine - движок синхронизации клиента. Создается NewEngine, запускается Initialize.
type Engine struct {
	store     Store
	remote    Remote
	conn      queue.Connectivity
	transport Transport
	breaker   *breaker.Breaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	queue    *queue.Queue
	resolver *conflict.Resolver

	// seen подавляет повторные push уведомления об одной версии
	seen    *gocache.Cache
	fetches singleflight.Group

	conflicts chan *conflict.Result
	events    chan api.Message
	pending   map[string]*conflict.Result

	cancel context.CancelFunc
	nodeID string
	cfg    Config
	wg     stdsync.WaitGroup
	// applyMu сериализует изменение локальных реплик: локальные записи,
	// push уведомления и подтверждения очереди не перемешиваются
	applyMu stdsync.Mutex
	mu      stdsync.Mutex
	running bool
}

// NewEngine собирает очередь и резолвер поверх store.
func NewEngine(store Store, remote Remote, conn queue.Connectivity, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		remote:    remote,
		conn:      conn,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		conflicts: make(chan *conflict.Result, 16),
		events:    make(chan api.Message, 16),
		pending:   make(map[string]*conflict.Result),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.Policy == nil {
		e.cfg.Policy = conflict.DefaultPolicy()
	}
	if e.cfg.DedupeTTL <= 0 {
		e.cfg.DedupeTTL = time.Minute
	}
	if e.cfg.PullLimit <= 0 {
		e.cfg.PullLimit = 100
	}
	e.seen = gocache.New(e.cfg.DedupeTTL, 2*e.cfg.DedupeTTL)

	queueOpts := []queue.Option{
		queue.WithClock(e.now),
		queue.WithMetrics(e.metrics),
		queue.WithOnSynced(e.onSynced),
	}
	if e.breaker != nil {
		queueOpts = append(queueOpts, queue.WithBreaker(e.breaker))
	}
	e.queue = queue.New(store, store, remote, conn, cfg.Queue, logger, queueOpts...)
	e.resolver = conflict.NewResolver(store, store, logger,
		conflict.WithResolverClock(e.now),
		conflict.WithResolverMetrics(e.metrics))

	return e
}

// Queue открывает очередь мутаций для административных команд.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// NodeID возвращает узел векторных часов этого устройства (известен после Initialize).
func (e *Engine) NodeID() string {
	return e.nodeID
}

// Conflicts доставляет конфликты, требующие решения пользователя.
func (e *Engine) Conflicts() <-chan *conflict.Result {
	return e.conflicts
}

// Events delivers non-entity pushes: member.joined, member.left, vault.updated.
func (e *Engine) Events() <-chan api.Message {
	return e.events
}

// IsOnline reports the host connectivity signal.
func (e *Engine) IsOnline() bool {
	return e.conn.IsOnline()
}

// Initialize загружает ID узла и запускает очередь. С транспортом также
// подключает его по сигналу сети и разбирает его push уведомления.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	nodeID, err := e.store.GetOrCreateNodeID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load node id: %w", err)
	}
	e.nodeID = nodeID

	if err := e.queue.Initialize(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.running = true

	if e.transport != nil {
		messages, unsubscribe := e.transport.Subscribe(transport.AllTypes, 0)
		states, unsubscribeStates := e.transport.States()
		changes, unsubscribeConn := e.conn.Subscribe()

		e.wg.Add(2)
		go func() {
			defer e.wg.Done()
			defer unsubscribe()
			e.routeMessages(runCtx, messages)
		}()
		go func() {
			defer e.wg.Done()
			defer unsubscribeStates()
			defer unsubscribeConn()
			e.followConnectivity(runCtx, changes, states)
		}()

		if e.conn.IsOnline() {
			e.connect(runCtx)
		}
	}

	e.logger.Info("Sync engine started", "node_id", e.nodeID)
	return nil
}

// Dispose останавливает фоновую работу. Транспорт отключается, но не освобождается.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	if e.transport != nil {
		e.transport.Disconnect()
	}
	e.wg.Wait()
	e.queue.Dispose()
	e.logger.Info("Sync engine stopped")
}

func (e *Engine) connect(ctx context.Context) {
	if err := e.transport.Connect(ctx); err != nil {
		e.logger.Warn("Transport connect failed, reconnect scheduled", "error", err)
	}
}

func (e *Engine) followConnectivity(ctx context.Context, changes <-chan bool, states <-chan transport.State) {
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
				e.connect(ctx)
			} else {
				e.transport.Disconnect()
			}
		case state, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			if state == transport.StateConnected {
				// после переподключения догоняем пропущенные push
				e.queue.Trigger()
				if _, err := e.PullOverTransport(ctx); err != nil && !errors.Is(err, context.Canceled) {
					e.logger.Warn("Catch-up pull failed", "error", err)
				}
			}
		}
	}
}

func (e *Engine) routeMessages(ctx context.Context, messages <-chan api.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			e.handleMessage(ctx, msg)
		}
	}
}

func (e *Engine) handleMessage(ctx context.Context, msg api.Message) {
	if entityType, _, ok := api.ParseChangeType(msg.Type); ok {
		var change api.EntityChange
		if err := msg.Decode(&change); err != nil {
			e.logger.Warn("Invalid change notification", "type", msg.Type, "error", err)
			return
		}
		if change.EntityType == "" {
			change.EntityType = entityType
		}
		if _, err := e.HandleRemoteChange(ctx, change); err != nil {
			var conflictErr *conflict.ConflictError
			if errors.As(err, &conflictErr) {
				e.logger.Info("Manual conflict pending", "entity_id", change.EntityID, "type", conflictErr.Result.Type)
				return
			}
			e.logger.Warn("Failed to apply remote change", "type", msg.Type, "entity_id", change.EntityID, "error", err)
		}
		return
	}

	switch msg.Type {
	case api.TypeMemberJoined, api.TypeMemberLeft, api.TypeVaultUpdated:
		select {
		case e.events <- msg:
		default:
			e.logger.Warn("Event dropped, consumer too slow", "type", msg.Type)
		}
	case api.TypeError:
		var body api.ErrorResponse
		_ = msg.Decode(&body)
		e.logger.Warn("Server reported an error", "error", body.Error, "message", body.Message)
	default:
		e.logger.Debug("Unhandled message", "type", msg.Type)
	}
}
