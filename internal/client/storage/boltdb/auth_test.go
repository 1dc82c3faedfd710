package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/client/storage"
)

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	auth := &storage.AuthData{
		Username:    "testuser",
		UserID:      "user-id-123",
		AccessToken: "access-token",
		PublicSalt:  "salt",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}

	// Проверяем что GetAuth до сохранения выдаст ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	require.NoError(t, store.SaveAuth(ctx, auth))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	// IsAuthenticated должна вернуть true (токен не просрочен)
	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authOk)

	// Обновляем auth с истекшим токеном
	auth.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	require.NoError(t, store.SaveAuth(ctx, auth))

	authOk, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authOk)

	require.NoError(t, store.DeleteAuth(ctx))

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Повторное удаление возвращает ErrAuthNotFound
	assert.ErrorIs(t, store.DeleteAuth(ctx), storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated_NoAuth(t *testing.T) {
	store := newTestStorage(t)

	// Если auth не существует, IsAuthenticated должна вернуть false, nil (не ошибку)
	authOk, err := store.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, authOk)
}
