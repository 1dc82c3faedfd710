package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/models"
)

var (
	// BoltDB bucket names
	bucketAuth          = []byte("auth")
	bucketMetadata      = []byte("metadata")
	bucketMutations     = []byte("mutations")      // seq (big-endian) -> snappy(JSON MutationRecord)
	bucketMutationIndex = []byte("mutation_index") // mutation id -> seq
	bucketIDMap         = []byte("id_map")         // type:localID -> serverID
	bucketIDMapReverse  = []byte("id_map_reverse") // type:serverID -> localID
	bucketEntities      = []byte("entities")       // type:id -> JSON EntityState
	bucketAncestors     = []byte("ancestors")      // type:id -> JSON Snapshot
	bucketConflictLog   = []byte("conflict_log")   // seq (big-endian) -> JSON ConflictLog

	allBuckets = [][]byte{
		bucketAuth,
		bucketMetadata,
		bucketMutations,
		bucketMutationIndex,
		bucketIDMap,
		bucketIDMapReverse,
		bucketEntities,
		bucketAncestors,
		bucketConflictLog,
	}
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// Compile-time checks
var (
	_ storage.AuthStorage        = (*Storage)(nil)
	_ storage.MetadataStorage    = (*Storage)(nil)
	_ storage.MutationStorage    = (*Storage)(nil)
	_ storage.IDMappingStorage   = (*Storage)(nil)
	_ storage.EntityStorage      = (*Storage)(nil)
	_ storage.ConflictLogStorage = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// update и view проверяют, что хранилище не закрыто
func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

// itob кодирует последовательность в big-endian, чтобы порядок ключей bbolt совпадал с FIFO
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func entityKey(entityType models.EntityType, id string) []byte {
	return []byte(string(entityType) + ":" + id)
}
