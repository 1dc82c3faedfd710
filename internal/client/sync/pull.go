package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/queue"
	"github.com/iudanet/ledgersync/internal/client/transport"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

// ErrOffline возвращается Sync при отсутствии сети.
var ErrOffline = errors.New("offline")

// SyncResult содержит итоги полной синхронизации.
type SyncResult struct {
	Queue     *queue.ProcessResult
	Version   int64 // последняя полученная версия сервера
	Pulled    int   // получено изменений
	Applied   int   // изменений, принятых без ручного разрешения
	Conflicts int   // конфликтов, ожидающих ручного разрешения

	// hold - версия, дальше которой сохранять нельзя: изменение после нее
	// ждет ручного разрешения и должно прийти снова при следующем pull.
	// held отличает hold = 0 (конфликт на версии 1) от отсутствия ограничения.
	hold int64
	held bool
}

// holdBefore запоминает, что версия conflicted должна прийти снова.
func (r *SyncResult) holdBefore(conflicted int64) {
	if !r.held || conflicted-1 < r.hold {
		r.hold = conflicted - 1
		r.held = true
	}
}

// Sync отправляет очередь мутаций, затем постранично забирает изменения сервера
// с последней известной версии.
func (e *Engine) Sync(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	if !e.conn.IsOnline() {
		return result, ErrOffline
	}

	processed, err := e.queue.ProcessQueue(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to process queue: %w", err)
	}
	result.Queue = processed

	since, err := e.store.GetLastSyncVersion(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to get last sync version: %w", err)
	}
	result.Version = since

	for {
		resp, err := e.remote.Pull(ctx, since, e.cfg.PullLimit)
		if err != nil {
			return result, fmt.Errorf("failed to pull changes: %w", err)
		}

		if err := e.applyPage(ctx, resp, result); err != nil {
			return result, err
		}

		if !resp.HasMore || resp.CurrentVersion <= since {
			break
		}
		since = resp.CurrentVersion
	}

	e.logger.Info("Sync completed",
		"queue_status", processed.Status,
		"sent", processed.Completed,
		"pulled", result.Pulled,
		"conflicts", result.Conflicts,
		"version", result.Version)

	return result, nil
}

// PullOverTransport запрашивает пропущенные изменения через websocket
// (sync.request / sync.response). Без подключенного транспорта ничего не делает.
func (e *Engine) PullOverTransport(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}
	if e.transport == nil || e.transport.State() != transport.StateConnected {
		return result, nil
	}

	since, err := e.store.GetLastSyncVersion(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to get last sync version: %w", err)
	}
	result.Version = since

	for {
		msg, err := api.NewMessage(api.TypeSyncRequest, api.SyncRequest{Since: since, Limit: e.cfg.PullLimit})
		if err != nil {
			return result, err
		}

		reply, err := e.transport.SendRequest(ctx, msg, e.cfg.RequestTimeout)
		if err != nil {
			return result, fmt.Errorf("sync request failed: %w", err)
		}

		var resp api.SyncResponse
		if err := reply.Decode(&resp); err != nil {
			return result, err
		}

		if err := e.applyPage(ctx, &resp, result); err != nil {
			return result, err
		}

		if !resp.HasMore || resp.CurrentVersion <= since {
			break
		}
		since = resp.CurrentVersion
	}

	return result, nil
}

// applyPage применяет страницу изменений и сохраняет версию только после
// применения всех записей страницы. Версия не сдвигается за изменение,
// оставшееся в ручных конфликтах.
func (e *Engine) applyPage(ctx context.Context, resp *api.SyncResponse, result *SyncResult) error {
	for _, entity := range resp.Entities {
		result.Pulled++

		_, err := e.HandleRemoteChange(ctx, api.ChangeFromEntity(entity, ""))
		var conflictErr *conflict.ConflictError
		switch {
		case err == nil && e.isPending(models.EntityType(entity.EntityType), entity.ClientID):
			// сущность все еще ждет ручного решения
			result.Conflicts++
			result.holdBefore(entity.Version)
		case err == nil:
			result.Applied++
		case errors.As(err, &conflictErr), errors.Is(err, conflict.ErrNotMergeable):
			result.Conflicts++
			result.holdBefore(entity.Version)
		default:
			return fmt.Errorf("failed to apply %s %s: %w", entity.EntityType, entity.ID, err)
		}
	}

	version := resp.CurrentVersion
	if result.held && result.hold < version {
		version = result.hold
	}
	if version > result.Version {
		if err := e.store.SaveLastSyncVersion(ctx, version); err != nil {
			return fmt.Errorf("failed to save last sync version: %w", err)
		}
		result.Version = version
	}
	return nil
}

func pendingKey(entityType models.EntityType, id string) string {
	return string(entityType) + ":" + id
}

func (e *Engine) addPending(res *conflict.Result) {
	e.mu.Lock()
	e.pending[pendingKey(res.EntityType, res.EntityID)] = res
	e.mu.Unlock()

	select {
	case e.conflicts <- res:
	default:
		e.logger.Warn("Conflict notification dropped, consumer too slow", "entity_id", res.EntityID)
	}
}

func (e *Engine) takePending(entityType models.EntityType, id string) (*conflict.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := e.pending[pendingKey(entityType, id)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", entityType, id, ErrNoPendingConflict)
	}
	return res, nil
}

func (e *Engine) isPending(entityType models.EntityType, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[pendingKey(entityType, id)]
	return ok
}

func (e *Engine) dropPending(entityType models.EntityType, id string) {
	e.mu.Lock()
	delete(e.pending, pendingKey(entityType, id))
	e.mu.Unlock()
}

// PendingConflicts возвращает конфликты, ждущие решения пользователя, по порядку сущностей.
func (e *Engine) PendingConflicts() []*conflict.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*conflict.Result, 0, len(e.pending))
	for _, res := range e.pending {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// ResolveWith разрешает ожидающий конфликт одной из автоматических стратегий.
func (e *Engine) ResolveWith(ctx context.Context, entityType models.EntityType, id string, strategy models.Strategy) (*models.EntityState, error) {
	res, err := e.takePending(entityType, id)
	if err != nil {
		return nil, err
	}

	resolved, err := conflict.AutoResolve(res, strategy)
	if err != nil {
		return nil, err
	}
	return e.settle(ctx, res, resolved, strategy)
}

// ResolveManually settles a pending conflict with a user-built snapshot.
func (e *Engine) ResolveManually(ctx context.Context, entityType models.EntityType, id string, resolved models.Snapshot) (*models.EntityState, error) {
	res, err := e.takePending(entityType, id)
	if err != nil {
		return nil, err
	}

	snapshot := resolved.Clone()
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	snapshot[models.FieldID] = id

	// снапшот должен оставаться корректной сущностью
	entity, err := models.EntityFromSnapshot(entityType, snapshot)
	if err != nil {
		return nil, err
	}
	if err := entity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolution: %w", err)
	}

	return e.settle(ctx, res, snapshot, models.StrategyManual)
}

func (e *Engine) settle(ctx context.Context, res *conflict.Result, resolved models.Snapshot, strategy models.Strategy) (*models.EntityState, error) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	state, err := e.resolver.ResolveConflict(ctx, res, resolved, strategy)
	if err != nil {
		return nil, err
	}

	if res.Type != models.ConflictDeleteDelete && !sameData(state.Snapshot, res.Remote) {
		if err := e.pushResolutionLocked(ctx, state); err != nil {
			return nil, err
		}
	}

	e.dropPending(res.EntityType, res.EntityID)
	return state, nil
}

// Status - сводка состояния синхронизации для CLI.
type Status struct {
	NodeID           string
	Transport        string
	Queue            queue.Stats
	LastSyncVersion  int64
	PendingConflicts int
	Online           bool
}

func (e *Engine) Status(ctx context.Context) (*Status, error) {
	nodeID, err := e.node(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := e.queue.Stats(ctx)
	if err != nil {
		return nil, err
	}
	version, err := e.store.GetLastSyncVersion(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		NodeID:          nodeID,
		Online:          e.conn.IsOnline(),
		Queue:           stats,
		LastSyncVersion: version,
		Transport:       "none",
	}
	if e.transport != nil {
		st.Transport = e.transport.State().String()
	}

	e.mu.Lock()
	st.PendingConflicts = len(e.pending)
	e.mu.Unlock()

	return st, nil
}
