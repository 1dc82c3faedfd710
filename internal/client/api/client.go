package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/ledgersync/internal/models"
	"github.com/iudanet/ledgersync/pkg/api"
)

// DeviceIDHeader идентифицирует устройство: сервер не отправляет push уведомления
// об изменении обратно устройству-источнику.
const DeviceIDHeader = api.DeviceIDHeader

// TokenSource возвращает текущий access token. С пустым токеном заголовок Authorization не отправляется.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc - функция как TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken возвращает TokenSource с фиксированным токеном.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// Option - настройка клиента.
type Option func(*Client)

// WithTokenSource задает источник bearer токена.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithDeviceID задает значение заголовка X-Device-ID.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

// WithTimeout переопределяет HTTP таймаут (по умолчанию 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
	deviceID   string
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// GetSalt получает public_salt пользователя
func (c *Client) GetSalt(ctx context.Context, username string) (*api.GetSaltResponse, error) {
	var resp api.GetSaltResponse
	path := "/api/v1/auth/salt/" + url.PathEscape(username)
	err := c.doRequest(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// CreateEntity выполняет POST /{resource}. Повторный вызов с тем же client_id
// возвращает уже созданную запись (идемпотентный upsert на сервере).
func (c *Client) CreateEntity(ctx context.Context, entityType models.EntityType, req api.EntityRequest) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	if err := c.doRequest(ctx, http.MethodPost, resourcePath(entityType, ""), req, &resp); err != nil {
		return nil, fmt.Errorf("create %s failed: %w", entityType, err)
	}
	return &resp, nil
}

// UpdateEntity выполняет PUT /{resource}/{serverId}
func (c *Client) UpdateEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	if err := c.doRequest(ctx, http.MethodPut, resourcePath(entityType, serverID), req, &resp); err != nil {
		return nil, fmt.Errorf("update %s %s failed: %w", entityType, serverID, err)
	}
	return &resp, nil
}

// DeleteEntity выполняет DELETE /{resource}/{serverId}.
// Тело несет часы удаления, чтобы надгробие доминировало над прежней версией.
func (c *Client) DeleteEntity(ctx context.Context, entityType models.EntityType, serverID string, req api.EntityRequest) error {
	if err := c.doRequest(ctx, http.MethodDelete, resourcePath(entityType, serverID), req, nil); err != nil {
		return fmt.Errorf("delete %s %s failed: %w", entityType, serverID, err)
	}
	return nil
}

// GetEntity выполняет GET /{resource}/{serverId}
func (c *Client) GetEntity(ctx context.Context, entityType models.EntityType, serverID string) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	if err := c.doRequest(ctx, http.MethodGet, resourcePath(entityType, serverID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get %s %s failed: %w", entityType, serverID, err)
	}
	return &resp, nil
}

// Pull получает изменения с сервера после версии since
func (c *Client) Pull(ctx context.Context, since int64, limit int) (*api.SyncResponse, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp api.SyncResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/sync?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func resourcePath(entityType models.EntityType, serverID string) string {
	path := "/api/v1/" + entityType.Resource()
	if serverID != "" {
		path += "/" + url.PathEscape(serverID)
	}
	return path
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set(DeviceIDHeader, c.deviceID)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
