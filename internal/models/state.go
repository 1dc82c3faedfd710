package models

import (
	"time"

	"github.com/iudanet/ledgersync/internal/crdt"
)

// EntityState - локальная реплика сущности: последний снапшот и его векторные часы.
type EntityState struct {
	UpdatedAt time.Time        `json:"updated_at"`
	Snapshot  Snapshot         `json:"snapshot"`
	Clock     crdt.VectorClock `json:"clock"`
	Type      EntityType       `json:"type"`
	ID        string           `json:"id"`
}

// Deleted reports whether the replica is a tombstone.
func (s *EntityState) Deleted() bool {
	return s.Snapshot.Deleted()
}

// ServerEntity представляет сущность, хранящуюся на сервере.
// Пара (UserID, Type, ClientID) уникальна и служит ключом идемпотентности.
type ServerEntity struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ID        string     `json:"id"`        // ID серверный идентификатор
	ClientID  string     `json:"client_id"` // ClientID идентификатор, сгенерированный клиентом
	UserID    string     `json:"user_id"`
	Type      EntityType `json:"type"`
	Data      []byte     `json:"data"`  // Data JSON снапшот сущности
	Clock     []byte     `json:"clock"` // Clock JSON векторные часы
	Version   int64      `json:"version"`
	Deleted   bool       `json:"deleted"`
}
