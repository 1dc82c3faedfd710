package conflict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/crdt"
	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/internal/models"
)

// Resolver связывает Detect/AutoResolve с локальным хранилищем.
// ResolveConflict - единственная операция с долговременным эффектом.
type Resolver struct {
	entities storage.EntityStorage
	logs     storage.ConflictLogStorage
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

type ResolverOption func(*Resolver)

// WithResolverClock подменяет time.Now для меток resolved_at и updated_at.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(entities storage.EntityStorage, logs storage.ConflictLogStorage, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		entities: entities,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compare detects a conflict between the stored replica and a remote version,
// using the persisted ancestor when one exists. local may be nil for an entity
// never seen locally.
func (r *Resolver) Compare(ctx context.Context, entityType models.EntityType, id string, local *models.EntityState, remote models.Snapshot, remoteClock crdt.VectorClock) (*Result, error) {
	var (
		localSnap  models.Snapshot
		localClock crdt.VectorClock
	)
	if local != nil {
		localSnap = local.Snapshot
		localClock = local.Clock
	}

	ancestor, err := r.entities.GetAncestor(ctx, entityType, id)
	if err != nil {
		if !errors.Is(err, storage.ErrAncestorNotFound) {
			return nil, fmt.Errorf("failed to load ancestor: %w", err)
		}
		ancestor = nil
	}

	res := Detect(localSnap, remote, localClock, remoteClock, ancestor)
	res.EntityType = entityType
	res.EntityID = id
	return res, nil
}

// Resolve применяет стратегию политики и сохраняет результат.
// Стратегия manual возвращает *ConflictError и ничего не сохраняет.
func (r *Resolver) Resolve(ctx context.Context, res *Result, policy Policy) (*models.EntityState, models.Strategy, error) {
	strategy := res.Resolution
	if res.HasConflict {
		strategy = policy.For(res.Type)
	}

	resolved, err := AutoResolve(res, strategy)
	if err != nil {
		return nil, strategy, err
	}

	state, err := r.ResolveConflict(ctx, res, resolved, strategy)
	if err != nil {
		return nil, strategy, err
	}
	return state, strategy, nil
}

// ResolveConflict persists the resolved snapshot with the merged clock, records it
// as the new common ancestor and appends a conflict log entry for real conflicts.
func (r *Resolver) ResolveConflict(ctx context.Context, res *Result, resolved models.Snapshot, strategy models.Strategy) (*models.EntityState, error) {
	now := r.now().UTC()

	state := &models.EntityState{
		Type:      res.EntityType,
		ID:        res.EntityID,
		Snapshot:  resolved,
		Clock:     res.LocalClock.Merge(res.RemoteClock),
		UpdatedAt: now,
	}

	if err := r.entities.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save resolved state: %w", err)
	}
	if err := r.entities.SaveAncestor(ctx, res.EntityType, res.EntityID, resolved); err != nil {
		return nil, fmt.Errorf("failed to save ancestor: %w", err)
	}

	if !res.HasConflict {
		return state, nil
	}

	entry := &models.ConflictLog{
		ID:           uuid.New().String(),
		EntityType:   res.EntityType,
		EntityID:     res.EntityID,
		ConflictType: res.Type,
		Resolution:   strategy,
		ResolvedAt:   now,
	}
	if err := r.logs.AppendConflictLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append conflict log: %w", err)
	}

	r.metrics.Conflict(string(res.Type), string(strategy))
	r.logger.Info("Conflict resolved",
		"entity_type", res.EntityType,
		"entity_id", res.EntityID,
		"conflict_type", res.Type,
		"resolution", strategy,
		"fields", res.Conflicting)

	return state, nil
}
