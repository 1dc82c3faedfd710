package storage

import (
	"context"

	"github.com/iudanet/ledgersync/internal/models"
)

// EntityStorage хранит серверные копии сущностей пользователей.
// Каждая запись (включая удаление) получает новую версию из монотонного
// счетчика пользователя; по версиям клиенты делают pull синхронизацию.
type EntityStorage interface {
	// UpsertEntity creates the entity or replaces the one with the same
	// (UserID, Type, ClientID). Returns ErrStaleClock if the stored clock dominates
	// e.Clock; a tombstone is revived only by a clock that dominates it.
	// ID, Version and timestamps of e are filled in. created is true for a new row.
	UpsertEntity(ctx context.Context, e *models.ServerEntity) (created bool, err error)

	// UpdateEntity replaces data and clock of the entity e.ID.
	// Returns ErrEntityNotFound if it doesn't exist, ErrEntityDeleted for a tombstone
	// and ErrStaleClock if the stored clock dominates e.Clock.
	UpdateEntity(ctx context.Context, e *models.ServerEntity) error

	// DeleteEntity turns the entity into a tombstone carrying clock.
	// Returns ErrEntityNotFound if it doesn't exist and ErrEntityDeleted if already deleted.
	DeleteEntity(ctx context.Context, userID string, entityType models.EntityType, id string, clock []byte) (*models.ServerEntity, error)

	// GetEntity retrieves entity by server ID, tombstones included.
	// Returns ErrEntityNotFound if it doesn't exist
	GetEntity(ctx context.Context, userID string, entityType models.EntityType, id string) (*models.ServerEntity, error)

	// ListEntitiesSince returns up to limit entities (tombstones included)
	// with version > since ordered by version.
	ListEntitiesSince(ctx context.Context, userID string, since int64, limit int) ([]*models.ServerEntity, error)

	// CurrentVersion returns the latest version assigned to the user's entities.
	CurrentVersion(ctx context.Context, userID string) (int64, error)
}
