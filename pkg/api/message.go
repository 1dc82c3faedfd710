package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Зарезервированные типы сообщений websocket
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSyncRequest  = "sync.request"
	TypeSyncResponse = "sync.response"
	TypeError        = "error"
	TypeMemberJoined = "member.joined"
	TypeMemberLeft   = "member.left"
	TypeVaultUpdated = "vault.updated"
)

// Действия над сущностями в push уведомлениях
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Message - конверт websocket сообщения.
// MessageID задается только для пар запрос/ответ; широковещательные
// сообщения (heartbeat, push) его не содержат.
type Message struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	MessageID string          `json:"messageId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage создает конверт с текущим временем.
func NewMessage(msgType string, data any) (Message, error) {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}

// Decode разбирает данные сообщения в v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Type, err)
	}
	return nil
}

// ChangeType возвращает тип push для действия над сущностью, например "transaction.created".
func ChangeType(entityType, action string) string {
	return entityType + "." + action
}

// ParseChangeType splits an entity push type. ok is false for non-entity
// messages such as "member.joined" or "sync.response".
func ParseChangeType(msgType string) (entityType, action string, ok bool) {
	entityType, action, found := strings.Cut(msgType, ".")
	if !found {
		return "", "", false
	}
	switch action {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return entityType, action, true
	default:
		return "", "", false
	}
}
