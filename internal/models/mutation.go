package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/ledgersync/internal/crdt"
)

// Operation - вид локальной мутации.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ParseOperation проверяет строку операции.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// MutationStatus - состояние записи очереди.
// pending -> processing -> completed, processing -> pending (повтор), processing -> failed.
type MutationStatus string

const (
	MutationPending    MutationStatus = "pending"
	MutationProcessing MutationStatus = "processing"
	MutationCompleted  MutationStatus = "completed"
	MutationFailed     MutationStatus = "failed"
)

// MutationRecord представляет локальную запись, ожидающую отправки на сервер.
// Принадлежит только очереди мутаций: статус меняется исключительно через нее.
type MutationRecord struct {
	CreatedAt     time.Time      `json:"created_at"`      // CreatedAt время постановки в очередь
	UpdatedAt     time.Time      `json:"updated_at"`      // UpdatedAt время последней смены статуса
	NextAttemptAt time.Time      `json:"next_attempt_at"` // NextAttemptAt не раньше этого времени запись будет отправлена снова
	ID            string         `json:"id"`              // ID клиентский UUID записи
	EntityType    EntityType     `json:"entity_type"`
	EntityID      string         `json:"entity_id"` // EntityID локальный (клиентский) ID сущности
	Operation     Operation      `json:"operation"`
	Status        MutationStatus `json:"status"`
	LastError     string         `json:"last_error,omitempty"`
	Payload       []byte         `json:"payload"`    // Payload сериализованный MutationPayload
	Seq           uint64         `json:"seq"`        // Seq порядковый номер в очереди (FIFO)
	RetryCount    int            `json:"retry_count"`
}

// Ready сообщает, можно ли отправить pending запись в момент now.
func (m *MutationRecord) Ready(now time.Time) bool {
	return m.Status == MutationPending && !now.Before(m.NextAttemptAt)
}

// MutationPayload - содержимое мутации: снапшот сущности и ее векторные часы.
// Для delete Data отсутствует, передается только ID.
type MutationPayload struct {
	Clock    crdt.VectorClock `json:"clock"`
	EntityID string           `json:"entity_id"`
	Data     json.RawMessage  `json:"data,omitempty"`
}

// NewMutationPayload serializes the entity (or only its ID for deletes) together with its clock.
func NewMutationPayload(op Operation, e Entity, clock crdt.VectorClock) ([]byte, error) {
	p := MutationPayload{
		EntityID: e.EntityID(),
		Clock:    clock.Clone(),
	}
	if op != OperationDelete {
		data, err := MarshalEntity(e)
		if err != nil {
			return nil, err
		}
		p.Data = data
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mutation payload: %w", err)
	}
	return data, nil
}

// DecodeMutationPayload разбирает MutationRecord.Payload.
func DecodeMutationPayload(data []byte) (*MutationPayload, error) {
	var p MutationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mutation payload: %w", err)
	}
	if p.Clock == nil {
		p.Clock = crdt.NewVectorClock()
	}
	return &p, nil
}
