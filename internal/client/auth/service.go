// Package auth реализует регистрацию и вход пользователя на клиенте
// и хранение сессии в локальной базе.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/ledgersync/internal/client/storage"
	"github.com/iudanet/ledgersync/internal/crypto"
	"github.com/iudanet/ledgersync/internal/validation"
	"github.com/iudanet/ledgersync/pkg/api"
)

//go:generate moq -out api_mock.go . API

// API - методы сервера, нужные для аутентификации.
type API interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	GetSalt(ctx context.Context, username string) (*api.GetSaltResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
}

var (
	ErrNotAuthenticated = errors.New("not authenticated, run login first")
	ErrSessionExpired   = errors.New("session expired, run login again")
)

// Service предоставляет функции авторизации
type Service struct {
	api    API
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient API, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	UserID     string
	Username   string
	PublicSalt string
}

// Register регистрирует нового пользователя. Сессия не создается: после
// регистрации нужен Login.
func (s *Service) Register(ctx context.Context, username, password string) (*RegisterResult, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	// 1. Генерируем публичную соль
	salt, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, err
	}

	// 2. Хеш производного ключа - единственное, что уходит на сервер
	authKeyHash, err := authKeyHash(password, username, salt)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Register(ctx, api.RegisterRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
		PublicSalt:  salt,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("User registered", "username", username, "user_id", resp.UserID)

	return &RegisterResult{
		UserID:     resp.UserID,
		Username:   username,
		PublicSalt: salt,
	}, nil
}

// Login authenticates and stores the session locally.
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, validation.ErrWeakPassword
	}

	// 1. Получаем public_salt с сервера
	saltResp, err := s.api.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}

	authKeyHash, err := authKeyHash(password, username, saltResp.PublicSalt)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Login(ctx, api.LoginRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	session := &storage.AuthData{
		Username:    username,
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
		PublicSalt:  saltResp.PublicSalt,
		ExpiresAt:   s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := s.store.SaveAuth(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Logged in", "username", username, "user_id", resp.UserID)
	return session, nil
}

// Logout удаляет локальную сессию. Отсутствие сессии ошибкой не считается.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Session returns the stored session, checking its expiry.
func (s *Service) Session(ctx context.Context) (*storage.AuthData, error) {
	session, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if session.ExpiresAt > 0 && s.now().Unix() >= session.ExpiresAt {
		return session, ErrSessionExpired
	}
	return session, nil
}

// Token returns the access token of the current session and implements the
// API client's token source.
func (s *Service) Token(ctx context.Context) (string, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

func authKeyHash(password, username, saltBase64 string) (string, error) {
	key, err := crypto.DeriveAuthKeyBase64Salt(password, username, saltBase64)
	if err != nil {
		return "", fmt.Errorf("failed to derive auth key: %w", err)
	}
	return crypto.HashAuthKey(key)
}
