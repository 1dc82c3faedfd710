package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/internal/server/storage"
	"github.com/iudanet/ledgersync/pkg/api"
)

const (
	DefaultSyncLimit = 500
	MaxSyncLimit     = 1000
)

// SyncHandler отдает изменения пользователя после известной клиенту версии.
type SyncHandler struct {
	responder
	storage storage.EntityStorage
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, entities storage.EntityStorage) *SyncHandler {
	return &SyncHandler{
		responder: responder{logger: logger},
		storage:   entities,
	}
}

// HandleSync обрабатывает GET /api/v1/sync?since=<version>&limit=<n>
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req := api.SyncRequest{}
	query := r.URL.Query()

	if raw := query.Get("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || since < 0 {
			h.sendError(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		req.Since = since
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.sendError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}
	req.EntityTypes = query["type"]

	resp, err := h.Pull(r.Context(), userID, req)
	if errors.Is(err, models.ErrUnknownEntityType) {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to pull changes", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Pull returns one page of changes after req.Since in version order.
// CurrentVersion is the version of the last change examined, so the next
// page starts right after it even when an entity type filter hides rows.
func (h *SyncHandler) Pull(ctx context.Context, userID string, req api.SyncRequest) (*api.SyncResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSyncLimit
	}
	limit = min(limit, MaxSyncLimit)

	// версию читаем до выборки: строки, записанные между запросами, придут следующей страницей
	current, err := h.storage.CurrentVersion(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := h.storage.ListEntitiesSince(ctx, userID, req.Since, limit+1)
	if err != nil {
		return nil, err
	}

	resp := &api.SyncResponse{
		Entities:       make([]api.EntityResponse, 0, len(rows)),
		CurrentVersion: current,
	}
	if len(rows) > limit {
		rows = rows[:limit]
		resp.HasMore = true
	}
	if len(rows) > 0 {
		resp.CurrentVersion = rows[len(rows)-1].Version
	}

	filter := make(map[models.EntityType]bool, len(req.EntityTypes))
	for _, raw := range req.EntityTypes {
		t, err := models.ParseEntityType(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid entity type filter: %w", err)
		}
		filter[t] = true
	}

	for _, e := range rows {
		if len(filter) > 0 && !filter[e.Type] {
			continue
		}
		resp.Entities = append(resp.Entities, EntityResponse(e))
	}

	h.logger.DebugContext(ctx, "changes pulled",
		slog.String("user_id", userID),
		slog.Int64("since", req.Since),
		slog.Int("count", len(resp.Entities)),
		slog.Bool("has_more", resp.HasMore))

	return resp, nil
}
