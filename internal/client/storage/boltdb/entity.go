package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
)

// SaveState stores or replaces the local replica of an entity
func (s *Storage) SaveState(ctx context.Context, state *models.EntityState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal entity state: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketEntities).Put(entityKey(state.Type, state.ID), data); err != nil {
			return fmt.Errorf("failed to save entity state: %w", err)
		}
		return nil
	})
}

// GetState returns the local replica of an entity
func (s *Storage) GetState(ctx context.Context, entityType models.EntityType, id string) (*models.EntityState, error) {
	var state *models.EntityState

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntities).Get(entityKey(entityType, id))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		state = &models.EntityState{}
		if err := json.Unmarshal(data, state); err != nil {
			return fmt.Errorf("failed to unmarshal entity state: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return state, nil
}

// ListStates returns replicas of the given type, or of all types when entityType is empty
func (s *Storage) ListStates(ctx context.Context, entityType models.EntityType) ([]*models.EntityState, error) {
	var states []*models.EntityState

	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntities).Cursor()

		var prefix []byte
		if entityType != "" {
			prefix = []byte(string(entityType) + ":")
		}

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var state models.EntityState
			if err := json.Unmarshal(v, &state); err != nil {
				return fmt.Errorf("failed to unmarshal entity state: %w", err)
			}
			states = append(states, &state)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list entity states: %w", err)
	}
	return states, nil
}

// SaveAncestor stores the snapshot both replicas last agreed on
func (s *Storage) SaveAncestor(ctx context.Context, entityType models.EntityType, id string, snapshot models.Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}

	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketAncestors).Put(entityKey(entityType, id), data); err != nil {
			return fmt.Errorf("failed to save ancestor: %w", err)
		}
		return nil
	})
}

// GetAncestor returns the last common ancestor snapshot
func (s *Storage) GetAncestor(ctx context.Context, entityType models.EntityType, id string) (models.Snapshot, error) {
	var snapshot models.Snapshot

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAncestors).Get(entityKey(entityType, id))
		if data == nil {
			return storage.ErrAncestorNotFound
		}

		var err error
		snapshot, err = models.DecodeSnapshot(data)
		return err
	})

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
