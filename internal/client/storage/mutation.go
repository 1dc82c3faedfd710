package storage

import (
	"context"

	"github.com/iudanet/ledgersync/internal/models"
)

//go:generate moq -out mutation_mock.go . MutationStorage

// MutationStorage defines the persisted table of the mutation queue.
// Only the queue writes to it.
type MutationStorage interface {
	// AppendMutation assigns the next queue sequence number to rec and persists it
	AppendMutation(ctx context.Context, rec *models.MutationRecord) error

	// UpdateMutation overwrites an existing record
	// Returns ErrMutationNotFound if the record doesn't exist
	UpdateMutation(ctx context.Context, rec *models.MutationRecord) error

	// GetMutation retrieves a record by ID
	// Returns ErrMutationNotFound if the record doesn't exist
	GetMutation(ctx context.Context, id string) (*models.MutationRecord, error)

	// ListMutations returns records in queue order (FIFO by sequence).
	// With no statuses all records are returned
	ListMutations(ctx context.Context, statuses ...models.MutationStatus) ([]*models.MutationRecord, error)

	// DeleteMutation removes a record
	DeleteMutation(ctx context.Context, id string) error
}

//go:generate moq -out idmapping_mock.go . IDMappingStorage

// IDMappingStorage stores the entityType:localID -> serverID mapping.
// It is written only after a successful create (and cleared after a delete).
type IDMappingStorage interface {
	// SaveServerID records the server ID of a local entity
	SaveServerID(ctx context.Context, entityType models.EntityType, localID, serverID string) error

	// GetServerID returns ErrMappingNotFound if the entity was never created on the server
	GetServerID(ctx context.Context, entityType models.EntityType, localID string) (string, error)

	// GetLocalID resolves a server ID back to the local ID
	GetLocalID(ctx context.Context, entityType models.EntityType, serverID string) (string, error)

	// DeleteMapping removes both directions of the mapping
	DeleteMapping(ctx context.Context, entityType models.EntityType, localID string) error
}
