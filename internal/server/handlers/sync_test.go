package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/internal/server/storage/sqlite"
	"github.com/iudanet/ledgersync/pkg/api"
)

func seedTransactions(t *testing.T, store *sqlite.Storage, userID string, n int) {
	t.Helper()

	for i := range n {
		req := transactionRequest(t, fmt.Sprintf("tx-%d", i), "10.00", map[string]uint64{"dev-a": 1})
		_, err := store.UpsertEntity(context.Background(), &models.ServerEntity{
			UserID:   userID,
			Type:     models.EntityTransaction,
			ClientID: req.ClientID,
			Data:     req.Data,
			Clock:    []byte(`{"dev-a":1}`),
		})
		require.NoError(t, err)
	}
}

func getSync(t *testing.T, h *SyncHandler, userID, query string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync"+query, nil)
	req = req.WithContext(WithUser(req.Context(), userID, "alice"))
	w := httptest.NewRecorder()
	h.HandleSync(w, req)
	return w
}

func TestSyncHandler_HandleSync_Paging(t *testing.T) {
	store, userID := setupTestStore(t)
	seedTransactions(t, store, userID, 5)
	handler := NewSyncHandler(setupTestLogger(), store)

	var (
		since int64
		seen  []string
		pages int
	)
	for {
		w := getSync(t, handler, userID, fmt.Sprintf("?since=%d&limit=2", since))
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.SyncResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		pages++

		for _, e := range resp.Entities {
			assert.Greater(t, e.Version, since)
			seen = append(seen, e.ClientID)
		}
		since = resp.CurrentVersion
		if !resp.HasMore {
			break
		}
		require.Less(t, pages, 10, "paging must terminate")
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"tx-0", "tx-1", "tx-2", "tx-3", "tx-4"}, seen)
	assert.Equal(t, int64(5), since)
}

func TestSyncHandler_HandleSync_UpToDate(t *testing.T) {
	store, userID := setupTestStore(t)
	seedTransactions(t, store, userID, 2)
	handler := NewSyncHandler(setupTestLogger(), store)

	w := getSync(t, handler, userID, "?since=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SyncResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Entities)
	assert.NotNil(t, resp.Entities, "empty page encodes as []")
	assert.False(t, resp.HasMore)
	assert.Equal(t, int64(2), resp.CurrentVersion)
}

func TestSyncHandler_HandleSync_TypeFilter(t *testing.T) {
	store, userID := setupTestStore(t)
	seedTransactions(t, store, userID, 2)

	_, err := store.UpsertEntity(context.Background(), &models.ServerEntity{
		UserID:   userID,
		Type:     models.EntityCategory,
		ClientID: "cat-1",
		Data:     []byte(`{"id":"cat-1","name":"Food","category_type":1}`),
	})
	require.NoError(t, err)

	handler := NewSyncHandler(setupTestLogger(), store)

	w := getSync(t, handler, userID, "?type=category")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SyncResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Entities, 1)
	assert.Equal(t, "cat-1", resp.Entities[0].ClientID)
	// версия продвигается за отфильтрованные строки
	assert.Equal(t, int64(3), resp.CurrentVersion)
}

func TestSyncHandler_HandleSync_BadRequests(t *testing.T) {
	store, userID := setupTestStore(t)
	handler := NewSyncHandler(setupTestLogger(), store)

	for _, query := range []string{"?since=abc", "?since=-1", "?limit=x", "?type=secret"} {
		t.Run(query, func(t *testing.T) {
			w := getSync(t, handler, userID, query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSyncHandler_HandleSync_Unauthorized(t *testing.T) {
	store, _ := setupTestStore(t)
	handler := NewSyncHandler(setupTestLogger(), store)

	w := httptest.NewRecorder()
	handler.HandleSync(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncHandler_Pull_ClampsLimit(t *testing.T) {
	store, userID := setupTestStore(t)
	seedTransactions(t, store, userID, 3)
	handler := NewSyncHandler(setupTestLogger(), store)

	resp, err := handler.Pull(context.Background(), userID, api.SyncRequest{Limit: MaxSyncLimit * 10})
	require.NoError(t, err)
	assert.Len(t, resp.Entities, 3)
	assert.False(t, resp.HasMore)

	// другой пользователь не видит чужих изменений
	resp, err = handler.Pull(context.Background(), "someone-else", api.SyncRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Entities)
	assert.Equal(t, int64(0), resp.CurrentVersion)
}
