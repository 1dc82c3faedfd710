package storage

import (
	"context"

	"github.com/iudanet/ledgersync/internal/models"
)

//go:generate moq -out entity_mock.go . EntityStorage

// EntityStorage stores local replicas and their last common ancestors.
type EntityStorage interface {
	// SaveState stores or replaces the local replica of an entity
	SaveState(ctx context.Context, state *models.EntityState) error

	// GetState returns ErrEntityNotFound if no replica exists
	GetState(ctx context.Context, entityType models.EntityType, id string) (*models.EntityState, error)

	// ListStates returns replicas of the given type, or of all types when entityType is empty
	ListStates(ctx context.Context, entityType models.EntityType) ([]*models.EntityState, error)

	// SaveAncestor stores the snapshot both replicas last agreed on
	SaveAncestor(ctx context.Context, entityType models.EntityType, id string, snapshot models.Snapshot) error

	// GetAncestor returns ErrAncestorNotFound if no ancestor was stored
	GetAncestor(ctx context.Context, entityType models.EntityType, id string) (models.Snapshot, error)
}

//go:generate moq -out conflictlog_mock.go . ConflictLogStorage

// ConflictLogStorage is the audit log of resolved conflicts.
type ConflictLogStorage interface {
	// AppendConflictLog persists a resolution record
	AppendConflictLog(ctx context.Context, entry *models.ConflictLog) error

	// ListConflictLogs returns the most recent entries, oldest first.
	// limit <= 0 returns everything
	ListConflictLogs(ctx context.Context, limit int) ([]*models.ConflictLog, error)
}
