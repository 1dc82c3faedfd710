package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iudanet/ledgersync/pkg/api"
)

// StatusError - ответ сервера с non-2xx статусом.
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

func newStatusError(code int, body []byte) *StatusError {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: code, Message: msg}
	}
	return &StatusError{StatusCode: code, Message: string(body)}
}

// StatusCode извлекает HTTP статус из err, 0 если это не StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsPermanent - отказ, который повтор не исправит: 4xx кроме 408 и 429.
func IsPermanent(err error) bool {
	code := StatusCode(err)
	if code < 400 || code >= 500 {
		return false
	}
	return code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}

// IsNotFound - ответ 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict - ответ 409: у сервера причинно более новая версия.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsRetryable - временный сбой: сетевые ошибки, таймауты, 5xx, 408 и 429.
// Отмена вызывающим не повторяется.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return !IsPermanent(err)
}
