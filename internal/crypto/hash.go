package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var ErrEmptyAuthKey = errors.New("auth key cannot be empty")

// HashAuthKey returns the hex SHA-256 of the derived key; this is what the
// client sends and the server stores.
func HashAuthKey(authKey []byte) (string, error) {
	if len(authKey) == 0 {
		return "", ErrEmptyAuthKey
	}
	hash := sha256.Sum256(authKey)
	return hex.EncodeToString(hash[:]), nil
}

// EqualAuthKeyHash сравнивает хеши за постоянное время.
func EqualAuthKeyHash(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
