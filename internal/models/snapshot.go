package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Служебные поля снапшота. Они меняются при каждой правке и поэтому
// не считаются измененными полями при классификации конфликтов.
const (
	FieldID        = "id"
	FieldDeleted   = "deleted"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// BookkeepingFields lists the snapshot keys excluded from field-level diffs.
var BookkeepingFields = map[string]bool{
	FieldID:        true,
	FieldDeleted:   true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}

// Snapshot - полевое представление сущности (JSON объект), используемое
// резолвером конфликтов для сравнения полей. Значения нормализованы через
// encoding/json: числа float64, вложенные объекты map[string]any.
type Snapshot map[string]any

// SnapshotOf строит полевое представление сущности.
func SnapshotOf(e Entity) (Snapshot, error) {
	data, err := MarshalEntity(e)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot разбирает JSON объект в снапшот.
// JSON null дает nil снапшот.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}

// NormalizeSnapshot приводит значения произвольного map к виду, который дает encoding/json
// (например int -> float64), чтобы сравнение полей не зависело от источника данных.
func NormalizeSnapshot(s map[string]any) (Snapshot, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// Encode сериализует снапшот в JSON.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(map[string]any(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Clone returns a shallow copy. Nested values are shared and must be treated as read-only.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// ID возвращает клиентский идентификатор из снапшота.
func (s Snapshot) ID() string {
	id, _ := s[FieldID].(string)
	return id
}

// Deleted возвращает флаг надгробия. Отсутствие флага - не удалено.
func (s Snapshot) Deleted() bool {
	deleted, _ := s[FieldDeleted].(bool)
	return deleted
}

// UpdatedAt разбирает метку последнего изменения.
func (s Snapshot) UpdatedAt() (time.Time, bool) {
	return s.timeField(FieldUpdatedAt)
}

// CreatedAt разбирает метку создания.
func (s Snapshot) CreatedAt() (time.Time, bool) {
	return s.timeField(FieldCreatedAt)
}

func (s Snapshot) timeField(key string) (time.Time, bool) {
	raw, ok := s[key].(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// EntityFromSnapshot превращает полевое представление обратно в типизированный вариант.
func EntityFromSnapshot(t EntityType, s Snapshot) (Entity, error) {
	data, err := s.Encode()
	if err != nil {
		return nil, err
	}
	return DecodeEntity(t, data)
}
