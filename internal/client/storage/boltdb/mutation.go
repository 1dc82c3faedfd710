package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/golang/snappy"
	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
)

// encodeMutation сериализует запись в JSON и сжимает snappy.
// Payload содержит полный снапшот сущности, поэтому сжатие заметно уменьшает файл очереди.
func encodeMutation(rec *models.MutationRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mutation: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func decodeMutation(raw []byte) (*models.MutationRecord, error) {
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress mutation: %w", err)
	}
	var rec models.MutationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mutation: %w", err)
	}
	return &rec, nil
}

// AppendMutation assigns the next queue sequence number and persists the record
func (s *Storage) AppendMutation(ctx context.Context, rec *models.MutationRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("mutation id is required")
	}

	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMutations)
		index := tx.Bucket(bucketMutationIndex)

		if index.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("mutation %s already exists", rec.ID)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		rec.Seq = seq

		data, err := encodeMutation(rec)
		if err != nil {
			return err
		}

		key := itob(seq)
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save mutation: %w", err)
		}
		if err := index.Put([]byte(rec.ID), key); err != nil {
			return fmt.Errorf("failed to index mutation: %w", err)
		}

		return nil
	})
}

// UpdateMutation overwrites an existing record
func (s *Storage) UpdateMutation(ctx context.Context, rec *models.MutationRecord) error {
	return s.update(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketMutationIndex).Get([]byte(rec.ID))
		if key == nil {
			return storage.ErrMutationNotFound
		}

		data, err := encodeMutation(rec)
		if err != nil {
			return err
		}

		if err := tx.Bucket(bucketMutations).Put(key, data); err != nil {
			return fmt.Errorf("failed to update mutation: %w", err)
		}
		return nil
	})
}

// GetMutation retrieves a record by ID
func (s *Storage) GetMutation(ctx context.Context, id string) (*models.MutationRecord, error) {
	var rec *models.MutationRecord

	err := s.view(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketMutationIndex).Get([]byte(id))
		if key == nil {
			return storage.ErrMutationNotFound
		}

		raw := tx.Bucket(bucketMutations).Get(key)
		if raw == nil {
			return storage.ErrMutationNotFound
		}

		var err error
		rec, err = decodeMutation(raw)
		return err
	})

	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListMutations returns records in queue order filtered by status
func (s *Storage) ListMutations(ctx context.Context, statuses ...models.MutationStatus) ([]*models.MutationRecord, error) {
	var records []*models.MutationRecord

	err := s.view(func(tx *bbolt.Tx) error {
		// Cursor обходит ключи по возрастанию, т.е. в порядке постановки в очередь
		c := tx.Bucket(bucketMutations).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			rec, err := decodeMutation(v)
			if err != nil {
				return err
			}
			if len(statuses) > 0 && !slices.Contains(statuses, rec.Status) {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	return records, nil
}

// DeleteMutation removes a record
func (s *Storage) DeleteMutation(ctx context.Context, id string) error {
	return s.update(func(tx *bbolt.Tx) error {
		index := tx.Bucket(bucketMutationIndex)
		key := index.Get([]byte(id))
		if key == nil {
			return storage.ErrMutationNotFound
		}

		if err := tx.Bucket(bucketMutations).Delete(key); err != nil {
			return fmt.Errorf("failed to delete mutation: %w", err)
		}
		if err := index.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete mutation index: %w", err)
		}
		return nil
	})
}
