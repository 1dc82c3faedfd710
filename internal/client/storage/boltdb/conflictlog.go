package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/models"
)

// AppendConflictLog persists a resolution record
func (s *Storage) AppendConflictLog(ctx context.Context, entry *models.ConflictLog) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflictLog)

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal conflict log: %w", err)
		}

		if err := bucket.Put(itob(seq), data); err != nil {
			return fmt.Errorf("failed to save conflict log: %w", err)
		}
		return nil
	})
}

// ListConflictLogs returns the most recent entries, oldest first
func (s *Storage) ListConflictLogs(ctx context.Context, limit int) ([]*models.ConflictLog, error) {
	var entries []*models.ConflictLog

	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketConflictLog).Cursor()

		// идем с конца, чтобы взять последние limit записей
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry models.ConflictLog
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal conflict log: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list conflict logs: %w", err)
	}

	// возвращаем в хронологическом порядке
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
