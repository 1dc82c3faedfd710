package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt   time.Time  `json:"created_at"`           // время создания
	LastLogin   *time.Time `json:"last_login,omitempty"` // время последнего входа
	ID          string     `json:"id"`                   // UUID пользователя
	Username    string     `json:"username"`             // уникальный username
	AuthKeyHash string     `json:"auth_key_hash"`        // argon2id хеш auth_key
	PublicSalt  string     `json:"public_salt"`          // base64 encoded salt (32 bytes)
}
