// Package validation проверяет учетные данные до обращения к серверу.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 12
)

// usernamePattern: латинские буквы, цифры, '_', '.', '-'; начинается с буквы
var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrWeakPassword    = errors.New("password too weak")
)

// ValidateUsername checks length and character set.
func ValidateUsername(username string) error {
	switch n := len(username); {
	case n < MinUsernameLen:
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidUsername, MinUsernameLen)
	case n > MaxUsernameLen:
		return fmt.Errorf("%w: must not exceed %d characters", ErrInvalidUsername, MaxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: letters, digits, '_', '.' and '-' only, starting with a letter", ErrInvalidUsername)
	}
	return nil
}

// ValidatePassword требует минимум MinPasswordLen символов (не байт).
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLen)
	}
	return nil
}
