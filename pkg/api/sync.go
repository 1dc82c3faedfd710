package api

// DeviceIDHeader - заголовок с идентификатором устройства клиента.
const DeviceIDHeader = "X-Device-ID"

// SyncRequest - запрос pull синхронизации (GET /api/v1/sync или сообщение sync.request).
type SyncRequest struct {
	EntityTypes []string `json:"entity_types,omitempty"`
	Since       int64    `json:"since"` // Since версия, после которой нужны изменения
	Limit       int      `json:"limit,omitempty"`
}

// SyncResponse представляет ответ сервера на синхронизацию
type SyncResponse struct {
	Entities       []EntityResponse `json:"entities"`        // Изменения от сервера
	CurrentVersion int64            `json:"current_version"` // Максимальная версия в ответе
	HasMore        bool             `json:"has_more"`
}

// HealthResponse - ответ /health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
