package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
)

// SaveServerID records the server ID of a local entity (both directions)
func (s *Storage) SaveServerID(ctx context.Context, entityType models.EntityType, localID, serverID string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketIDMap).Put(entityKey(entityType, localID), []byte(serverID)); err != nil {
			return fmt.Errorf("failed to save id mapping: %w", err)
		}
		if err := tx.Bucket(bucketIDMapReverse).Put(entityKey(entityType, serverID), []byte(localID)); err != nil {
			return fmt.Errorf("failed to save reverse id mapping: %w", err)
		}
		return nil
	})
}

// GetServerID returns the server ID of a local entity
func (s *Storage) GetServerID(ctx context.Context, entityType models.EntityType, localID string) (string, error) {
	var serverID string

	err := s.view(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketIDMap).Get(entityKey(entityType, localID))
		if v == nil {
			return storage.ErrMappingNotFound
		}
		serverID = string(v)
		return nil
	})

	return serverID, err
}

// GetLocalID resolves a server ID back to the local ID
func (s *Storage) GetLocalID(ctx context.Context, entityType models.EntityType, serverID string) (string, error) {
	var localID string

	err := s.view(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketIDMapReverse).Get(entityKey(entityType, serverID))
		if v == nil {
			return storage.ErrMappingNotFound
		}
		localID = string(v)
		return nil
	})

	return localID, err
}

// DeleteMapping removes both directions of the mapping
func (s *Storage) DeleteMapping(ctx context.Context, entityType models.EntityType, localID string) error {
	return s.update(func(tx *bbolt.Tx) error {
		forward := tx.Bucket(bucketIDMap)
		key := entityKey(entityType, localID)

		serverID := forward.Get(key)
		if serverID == nil {
			return nil
		}
		if err := tx.Bucket(bucketIDMapReverse).Delete(entityKey(entityType, string(serverID))); err != nil {
			return fmt.Errorf("failed to delete reverse id mapping: %w", err)
		}
		if err := forward.Delete(key); err != nil {
			return fmt.Errorf("failed to delete id mapping: %w", err)
		}
		return nil
	})
}
