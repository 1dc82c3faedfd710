package sync

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

var (
	// ErrNoPendingConflict возвращается при ручном разрешении неизвестного конфликта.
	ErrNoPendingConflict = errors.New("no pending conflict for entity")
	ErrAlreadyDeleted    = errors.New("entity already deleted")
)

// Save валидирует сущность, проставляет метки времени, продвигает часы и ставит
// в очередь create (сущность локально не встречалась) или update.
func (e *Engine) Save(ctx context.Context, entity models.Entity) (*models.MutationRecord, error) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	state, err := e.store.GetState(ctx, entity.EntityType(), entity.EntityID())
	switch {
	case errors.Is(err, storage.ErrEntityNotFound):
		return e.writeLocked(ctx, models.OperationCreate, entity, nil)
	case err != nil:
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	models.InheritCreatedAt(entity, state.Snapshot)
	return e.writeLocked(ctx, models.OperationUpdate, entity, state)
}

// Delete превращает локальную реплику в надгробие и ставит в очередь delete.
func (e *Engine) Delete(ctx context.Context, entityType models.EntityType, id string) (*models.MutationRecord, error) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	state, err := e.store.GetState(ctx, entityType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if state.Deleted() {
		return nil, fmt.Errorf("%s %s: %w", entityType, id, ErrAlreadyDeleted)
	}

	entity, err := models.EntityFromSnapshot(entityType, state.Snapshot)
	if err != nil {
		return nil, err
	}
	models.MarkDeleted(entity, e.now().UTC())

	return e.writeLocked(ctx, models.OperationDelete, entity, state)
}

// Get возвращает локальную реплику сущности.
func (e *Engine) Get(ctx context.Context, entityType models.EntityType, id string) (models.Entity, error) {
	state, err := e.store.GetState(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	return models.EntityFromSnapshot(entityType, state.Snapshot)
}

// List возвращает живые (не удаленные) локальные реплики типа.
func (e *Engine) List(ctx context.Context, entityType models.EntityType) ([]models.Entity, error) {
	states, err := e.store.ListStates(ctx, entityType)
	if err != nil {
		return nil, err
	}

	entities := make([]models.Entity, 0, len(states))
	for _, s := range states {
		if s.Deleted() {
			continue
		}
		entity, err := models.EntityFromSnapshot(entityType, s.Snapshot)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// writeLocked вызывается под applyMu.
func (e *Engine) writeLocked(ctx context.Context, op models.Operation, entity models.Entity, prev *models.EntityState) (*models.MutationRecord, error) {
	now := e.now().UTC()
	if op != models.OperationDelete {
		models.Touch(entity, now)
	}
	if err := entity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", entity.EntityType(), err)
	}

	nodeID, err := e.node(ctx)
	if err != nil {
		return nil, err
	}

	var clock crdt.VectorClock
	if prev != nil {
		clock = prev.Clock
	}
	clock = clock.Increment(nodeID)

	snapshot, err := models.SnapshotOf(entity)
	if err != nil {
		return nil, err
	}

	state := &models.EntityState{
		Type:      entity.EntityType(),
		ID:        entity.EntityID(),
		Snapshot:  snapshot,
		Clock:     clock,
		UpdatedAt: now,
	}
	if err := e.store.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	return e.queue.Enqueue(ctx, op, entity, clock)
}

func (e *Engine) node(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.nodeID != "" {
		return e.nodeID, nil
	}
	nodeID, err := e.store.GetOrCreateNodeID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load node id: %w", err)
	}
	e.nodeID = nodeID
	return nodeID, nil
}

// onSynced запоминает отправленный снапшот как общего предка:
// после подтверждения сервером обе стороны его видели.
func (e *Engine) onSynced(ctx context.Context, rec *models.MutationRecord, _ *api.EntityResponse) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	p, err := models.DecodeMutationPayload(rec.Payload)
	if err != nil {
		e.logger.Warn("Failed to decode synced payload", "id", rec.ID, "error", err)
		return
	}

	var ancestor models.Snapshot
	if len(p.Data) > 0 {
		ancestor, err = models.DecodeSnapshot(p.Data)
		if err != nil {
			e.logger.Warn("Failed to decode synced snapshot", "id", rec.ID, "error", err)
			return
		}
	} else {
		ancestor = models.Snapshot{models.FieldID: rec.EntityID, models.FieldDeleted: true}
	}

	if err := e.store.SaveAncestor(ctx, rec.EntityType, rec.EntityID, ancestor); err != nil {
		e.logger.Warn("Failed to save ancestor", "entity_id", rec.EntityID, "error", err)
	}
}

// HandleRemoteChange применяет изменение, сделанное на другом устройстве.
//
// Эхо собственных записей и повторные уведомления о той же версии сервера
// игнорируются (результат nil). Результаты, требующие решения пользователя,
// остаются в ожидающих конфликтах и возвращаются с *conflict.ConflictError
// или conflict.ErrNotMergeable.
func (e *Engine) HandleRemoteChange(ctx context.Context, change api.EntityChange) (*conflict.Result, error) {
	entityType, err := models.ParseEntityType(change.EntityType)
	if err != nil {
		return nil, err
	}

	nodeID, err := e.node(ctx)
	if err != nil {
		return nil, err
	}
	if change.DeviceID != "" && change.DeviceID == nodeID {
		return nil, nil
	}

	key := ""
	if change.ServerID != "" && change.Version > 0 {
		key = fmt.Sprintf("%s:%s:%d", entityType, change.ServerID, change.Version)
		if err := e.seen.Add(key, struct{}{}, gocache.DefaultExpiration); err != nil {
			e.logger.Debug("Duplicate change ignored", "key", key)
			return nil, nil
		}
	}

	res, err := e.applyRemote(ctx, entityType, change)
	if err != nil && key != "" {
		// не применили или ждем ручного решения: повторная доставка той же
		// версии должна снова дойти до resolver
		e.seen.Delete(key)
	}
	return res, err
}

func (e *Engine) applyRemote(ctx context.Context, entityType models.EntityType, change api.EntityChange) (*conflict.Result, error) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	localID := change.EntityID
	if localID == "" && change.ServerID != "" {
		id, err := e.store.GetLocalID(ctx, entityType, change.ServerID)
		if err != nil {
			return nil, fmt.Errorf("change for unknown %s %s: %w", entityType, change.ServerID, err)
		}
		localID = id
	}
	if localID == "" {
		return nil, fmt.Errorf("change without entity id for %s", entityType)
	}

	if change.ServerID != "" {
		if err := e.store.SaveServerID(ctx, entityType, localID, change.ServerID); err != nil {
			return nil, fmt.Errorf("failed to save id mapping: %w", err)
		}
	}

	remote, remoteClock, err := e.remoteSnapshot(ctx, entityType, localID, change)
	if err != nil {
		return nil, err
	}

	local, err := e.store.GetState(ctx, entityType, localID)
	if err != nil {
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		local = nil
	}

	res, err := e.resolver.Compare(ctx, entityType, localID, local, remote, remoteClock)
	if err != nil {
		return nil, err
	}

	if local == nil {
		// сущность еще не видели: удаленная версия принимается как есть
		res.Resolution = models.StrategyRemoteWins
		res.HasConflict = false
		res.Type = models.ConflictNone
	} else if res.Ordering == crdt.Equal || res.Ordering == crdt.After {
		// удаленная версия не новее локальной
		return res, nil
	}

	state, strategy, err := e.resolver.Resolve(ctx, res, e.cfg.Policy)
	if err != nil {
		var conflictErr *conflict.ConflictError
		if errors.As(err, &conflictErr) || errors.Is(err, conflict.ErrNotMergeable) {
			e.addPending(res)
		}
		return res, err
	}

	if res.HasConflict && strategy != models.StrategyRemoteWins && !sameData(state.Snapshot, res.Remote) {
		if err := e.pushResolutionLocked(ctx, state); err != nil {
			return res, err
		}
	}

	e.logger.Debug("Remote change applied",
		"entity_type", entityType,
		"entity_id", localID,
		"ordering", res.Ordering,
		"conflict_type", res.Type,
		"resolution", strategy)

	return res, nil
}

// remoteSnapshot берет данные из уведомления, а при их отсутствии
// запрашивает снапшот у сервера (параллельные запросы одной сущности склеиваются).
func (e *Engine) remoteSnapshot(ctx context.Context, entityType models.EntityType, localID string, change api.EntityChange) (models.Snapshot, crdt.VectorClock, error) {
	data := change.Data
	clock := crdt.VectorClock(change.Clock)

	if len(data) == 0 && !change.Deleted {
		if change.ServerID == "" {
			return nil, nil, fmt.Errorf("change for %s %s carries neither data nor server id", entityType, localID)
		}

		v, err, _ := e.fetches.Do(string(entityType)+":"+change.ServerID, func() (any, error) {
			return e.remote.GetEntity(ctx, entityType, change.ServerID)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch %s %s: %w", entityType, change.ServerID, err)
		}
		resp := v.(*api.EntityResponse)
		data = resp.Data
		if len(clock) == 0 {
			clock = crdt.VectorClock(resp.Clock)
		}
		change.Deleted = change.Deleted || resp.Deleted
	}

	snapshot := models.Snapshot{}
	if len(data) > 0 {
		decoded, err := models.DecodeSnapshot(data)
		if err != nil {
			return nil, nil, err
		}
		if decoded != nil {
			snapshot = decoded
		}
	}
	snapshot[models.FieldID] = localID
	if change.Deleted {
		snapshot[models.FieldDeleted] = true
	}

	return snapshot, clock.Clone(), nil
}

// pushResolutionLocked отправляет разрешенную версию на сервер с часами,
// доминирующими обе стороны.
func (e *Engine) pushResolutionLocked(ctx context.Context, state *models.EntityState) error {
	nodeID, err := e.node(ctx)
	if err != nil {
		return err
	}

	entity, err := models.EntityFromSnapshot(state.Type, state.Snapshot)
	if err != nil {
		return err
	}

	state.Clock = state.Clock.Increment(nodeID)
	if err := e.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	op := models.OperationUpdate
	if state.Deleted() {
		op = models.OperationDelete
	}
	_, err = e.queue.Enqueue(ctx, op, entity, state.Clock)
	return err
}

// sameData сравнивает снапшоты без учета служебных полей, кроме флага удаления.
func sameData(a, b models.Snapshot) bool {
	if a.Deleted() != b.Deleted() {
		return false
	}
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if models.BookkeepingFields[k] {
			continue
		}
		if !reflect.DeepEqual(a[k], b[k]) {
			return false
		}
	}
	return true
}
