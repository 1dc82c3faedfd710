package api

import (
	"encoding/json"
	"time"
)

// EntityRequest - тело POST /{resource} и PUT /{resource}/{serverId}.
// ClientID служит ключом идемпотентности: повторный POST с тем же ClientID
// не создает дубликат, а возвращает существующую запись.
type EntityRequest struct {
	Clock    map[string]uint64 `json:"clock"`
	ClientID string            `json:"client_id"`
	Data     json.RawMessage   `json:"data"`
}

// EntityResponse описывает серверную версию сущности.
type EntityResponse struct {
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Clock      map[string]uint64 `json:"clock"`
	ID         string            `json:"id"` // серверный ID
	ClientID   string            `json:"client_id"`
	EntityType string            `json:"entity_type"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Version    int64             `json:"version"`
	Deleted    bool              `json:"deleted"`
}

// EntityChange - данные push уведомления <entity>.created|updated|deleted.
// Data может отсутствовать: тогда клиент запрашивает снапшот по ServerID.
type EntityChange struct {
	Clock      map[string]uint64 `json:"clock"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"` // клиентский ID
	ServerID   string            `json:"server_id"`
	DeviceID   string            `json:"device_id,omitempty"` // устройство-источник изменения
	Data       json.RawMessage   `json:"data,omitempty"`
	Version    int64             `json:"version"`
	Deleted    bool              `json:"deleted"`
}

// ChangeFromEntity builds the push payload describing a stored entity.
func ChangeFromEntity(e EntityResponse, deviceID string) EntityChange {
	return EntityChange{
		Clock:      e.Clock,
		EntityType: e.EntityType,
		EntityID:   e.ClientID,
		ServerID:   e.ID,
		DeviceID:   deviceID,
		Data:       e.Data,
		Version:    e.Version,
		Deleted:    e.Deleted,
	}
}

// MemberEvent - данные member.joined / member.left для общих (семейных) книг.
type MemberEvent struct {
	BookID   string `json:"book_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}
