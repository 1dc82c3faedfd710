package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/internal/server/storage"
	"github.com/iudanet/ledgersync/pkg/api"
)

// Publisher рассылает уведомление об изменении остальным устройствам пользователя.
type Publisher interface {
	Publish(userID, fromDevice string, msg api.Message)
}

// EntityHandler обслуживает единый REST интерфейс сущностей:
// POST /{resource}, GET|PUT|DELETE /{resource}/{id}.
type EntityHandler struct {
	responder
	storage   storage.EntityStorage
	publisher Publisher
}

// NewEntityHandler создает handler сущностей. publisher может быть nil.
func NewEntityHandler(logger *slog.Logger, entities storage.EntityStorage, publisher Publisher) *EntityHandler {
	return &EntityHandler{
		responder: responder{logger: logger},
		storage:   entities,
		publisher: publisher,
	}
}

// Create обрабатывает POST /api/v1/{resource}.
// Повтор с тем же client_id обновляет существующую запись (200), новая запись - 201.
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeEntity(w, r, entityType, true)
	if !ok {
		return
	}

	e := &models.ServerEntity{
		UserID:   userID,
		Type:     entityType,
		ClientID: req.ClientID,
		Data:     req.Data,
		Clock:    encodeClock(req.Clock),
	}

	created, err := h.storage.UpsertEntity(ctx, e)
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	status, action := http.StatusOK, api.ActionUpdated
	if created {
		status, action = http.StatusCreated, api.ActionCreated
	}

	h.logger.InfoContext(ctx, "entity saved",
		slog.String("entity_type", string(entityType)),
		slog.String("client_id", e.ClientID),
		slog.Int64("version", e.Version),
		slog.Bool("created", created))

	resp := EntityResponse(e)
	h.publish(r, userID, action, resp)
	h.sendJSON(w, resp, status)
}

// Update обрабатывает PUT /api/v1/{resource}/{id}
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeEntity(w, r, entityType, true)
	if !ok {
		return
	}

	e := &models.ServerEntity{
		ID:     chi.URLParam(r, "id"),
		UserID: userID,
		Type:   entityType,
		Data:   req.Data,
		Clock:  encodeClock(req.Clock),
	}

	if err := h.storage.UpdateEntity(ctx, e); err != nil {
		h.storageError(w, r, err)
		return
	}

	resp := EntityResponse(e)
	h.publish(r, userID, api.ActionUpdated, resp)
	h.sendJSON(w, resp, http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/{resource}/{id}.
// Тело с часами удаления необязательно.
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeEntity(w, r, entityType, false)
	if !ok {
		return
	}

	var clock []byte
	if len(req.Clock) > 0 {
		clock = encodeClock(req.Clock)
	}

	e, err := h.storage.DeleteEntity(ctx, userID, entityType, chi.URLParam(r, "id"), clock)
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "entity deleted",
		slog.String("entity_type", string(entityType)),
		slog.String("client_id", e.ClientID),
		slog.Int64("version", e.Version))

	h.publish(r, userID, api.ActionDeleted, EntityResponse(e))
	w.WriteHeader(http.StatusNoContent)
}

// Get обрабатывает GET /api/v1/{resource}/{id}; надгробия возвращаются с deleted=true.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}

	e, err := h.storage.GetEntity(r.Context(), userID, entityType, chi.URLParam(r, "id"))
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	h.sendJSON(w, EntityResponse(e), http.StatusOK)
}

func (h *EntityHandler) entityType(w http.ResponseWriter, r *http.Request) (models.EntityType, bool) {
	entityType, err := models.EntityTypeFromResource(chi.URLParam(r, "resource"))
	if err != nil {
		h.sendError(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return entityType, true
}

// decodeEntity читает тело запроса. Для create/update снапшот обязан
// пройти валидацию своего типа (422), а его id - совпасть с client_id.
func (h *EntityHandler) decodeEntity(w http.ResponseWriter, r *http.Request, entityType models.EntityType, withData bool) (api.EntityRequest, bool) {
	var req api.EntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if !withData && errors.Is(err, io.EOF) {
			return req, true
		}
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if !withData {
		return req, true
	}

	if req.ClientID == "" {
		h.sendError(w, "client_id is required", http.StatusBadRequest)
		return req, false
	}

	if err := validateEntity(entityType, req); err != nil {
		h.logger.WarnContext(r.Context(), "entity validation failed",
			slog.String("entity_type", string(entityType)),
			slog.String("client_id", req.ClientID),
			slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return req, false
	}

	return req, true
}

func validateEntity(entityType models.EntityType, req api.EntityRequest) error {
	if len(req.Data) == 0 {
		return errors.New("data is required")
	}
	entity, err := models.DecodeEntity(entityType, req.Data)
	if err != nil {
		return err
	}
	if entity.EntityID() != req.ClientID {
		return fmt.Errorf("data id %q does not match client_id %q", entity.EntityID(), req.ClientID)
	}
	return entity.Validate()
}

func (h *EntityHandler) storageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrEntityNotFound), errors.Is(err, storage.ErrEntityDeleted):
		h.sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrStaleClock):
		// у сервера причинно более новая версия, клиент получит ее через pull
		h.sendError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.ErrorContext(r.Context(), "entity storage failure", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}

// publish уведомляет остальные устройства; источник определяется по X-Device-ID.
func (h *EntityHandler) publish(r *http.Request, userID, action string, resp api.EntityResponse) {
	if h.publisher == nil {
		return
	}

	deviceID := r.Header.Get(api.DeviceIDHeader)
	msg, err := api.NewMessage(api.ChangeType(resp.EntityType, action), api.ChangeFromEntity(resp, deviceID))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build change notification", slog.Any("error", err))
		return
	}
	h.publisher.Publish(userID, deviceID, msg)
}

// EntityResponse converts a stored entity to its wire form.
func EntityResponse(e *models.ServerEntity) api.EntityResponse {
	resp := api.EntityResponse{
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		Clock:      map[string]uint64{},
		ID:         e.ID,
		ClientID:   e.ClientID,
		EntityType: string(e.Type),
		Version:    e.Version,
		Deleted:    e.Deleted,
	}
	if len(e.Data) > 0 {
		resp.Data = json.RawMessage(e.Data)
	}
	if len(e.Clock) > 0 {
		// часы пишет только этот пакет, поврежденные читаются как пустые
		_ = json.Unmarshal(e.Clock, &resp.Clock)
	}
	return resp
}

func encodeClock(clock map[string]uint64) []byte {
	if clock == nil {
		clock = map[string]uint64{}
	}
	data, err := json.Marshal(clock)
	if err != nil {
		return []byte("{}")
	}
	return data
}
