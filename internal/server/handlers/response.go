package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/ledgersync/pkg/api"
)

// responder - общие для handler-ов JSON ответы.
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// userID достает пользователя, установленного AuthMiddleware; при его отсутствии отвечает 401.
func (h responder) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "user id not found in context")
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}
