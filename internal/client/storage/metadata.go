package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncVersion saves the server version reached by the last successful pull
	SaveLastSyncVersion(ctx context.Context, version int64) error

	// GetLastSyncVersion retrieves the server version of the last successful pull
	// Returns 0 if no sync has been performed yet
	GetLastSyncVersion(ctx context.Context) (int64, error)

	// GetOrCreateNodeID returns the persistent vector clock node ID of this device,
	// generating it on first use
	GetOrCreateNodeID(ctx context.Context) (string, error)
}
