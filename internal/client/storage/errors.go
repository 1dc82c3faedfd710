package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrMutationNotFound indicates that a queue record was not found
	ErrMutationNotFound = errors.New("mutation not found")

	// ErrEntityNotFound indicates that no local replica exists for the entity
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMappingNotFound indicates that the entity has no server ID yet
	ErrMappingNotFound = errors.New("server id mapping not found")

	// ErrAncestorNotFound indicates that no common ancestor snapshot is stored
	ErrAncestorNotFound = errors.New("ancestor snapshot not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
