// Package crypto выводит ключ аутентификации из пароля пользователя.
// Пароль не покидает устройство: сервер получает только хеш производного ключа.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024 // KB
	Argon2Threads = 4
	Argon2KeyLen  = 32
	// SaltSize - размер публичной соли в байтах
	SaltSize = 32
)

// authContext отделяет ключ аутентификации от других ключей,
// которые могут быть выведены из того же пароля.
const authContext = "ledgersync/auth"

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrEmptyUsername = errors.New("username cannot be empty")
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 returns a fresh salt in standard base64.
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveAuthKey выводит ключ аутентификации Argon2id из пароля и имени пользователя.
func DeriveAuthKey(password, username string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	input := []byte(password + "\x00" + username + "\x00" + authContext)
	return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen), nil
}

// DeriveAuthKeyBase64Salt is DeriveAuthKey for a salt received from the server.
func DeriveAuthKeyBase64Salt(password, username, saltBase64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	return DeriveAuthKey(password, username, salt)
}
