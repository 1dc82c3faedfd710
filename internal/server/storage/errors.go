package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrEntityNotFound indicates that entity was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityDeleted indicates that entity exists only as a tombstone
	ErrEntityDeleted = errors.New("entity deleted")

	// ErrStaleClock indicates that the stored version is causally newer than the write
	ErrStaleClock = errors.New("stale vector clock")
)
