package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/crdt"
)

const (
	keyLastSyncVersion = "last_sync_version"
	keyNodeID          = "node_id"
)

// SaveLastSyncVersion saves the server version reached by the last successful pull
func (s *Storage) SaveLastSyncVersion(ctx context.Context, version int64) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)

		// Конвертируем int64 в bytes
		versionBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(versionBytes, uint64(version))

		if err := bucket.Put([]byte(keyLastSyncVersion), versionBytes); err != nil {
			return fmt.Errorf("failed to save last sync version: %w", err)
		}

		return nil
	})
}

// GetLastSyncVersion retrieves the server version of the last successful pull
// Returns 0 if no sync has been performed yet
func (s *Storage) GetLastSyncVersion(ctx context.Context) (int64, error) {
	var version int64

	err := s.view(func(tx *bbolt.Tx) error {
		versionBytes := tx.Bucket(bucketMetadata).Get([]byte(keyLastSyncVersion))
		if versionBytes == nil {
			// первая синхронизация
			return nil
		}

		version = int64(binary.BigEndian.Uint64(versionBytes))
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to get last sync version: %w", err)
	}

	return version, nil
}

// GetOrCreateNodeID returns the device node ID, generating and persisting it on first use.
// NodeID должен быть уникальным для каждого физического устройства
func (s *Storage) GetOrCreateNodeID(ctx context.Context) (string, error) {
	var nodeID string

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)

		if existing := bucket.Get([]byte(keyNodeID)); existing != nil {
			nodeID = string(existing)
			return nil
		}

		nodeID = crdt.NewNodeID()
		return bucket.Put([]byte(keyNodeID), []byte(nodeID))
	})

	if err != nil {
		return "", fmt.Errorf("failed to get node id: %w", err)
	}

	return nodeID, nil
}
