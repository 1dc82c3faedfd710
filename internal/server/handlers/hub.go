package handlers

import (
	"log/slog"
	"sync"

	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/pkg/api"
)

const defaultClientBuffer = 256

// Hub хранит websocket подключения устройств и рассылает им push уведомления.
type Hub struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	clients map[string]map[*wsClient]struct{} // user id -> подключения
	buffer  int
	mu      sync.RWMutex
}

// wsClient - одно подключение устройства.
type wsClient struct {
	send     chan api.Message
	done     chan struct{}
	userID   string
	deviceID string
	once     sync.Once
}

// NewHub создает hub; buffer - длина очереди отправки на соединение.
func NewHub(logger *slog.Logger, m *metrics.Metrics, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Hub{
		logger:  logger,
		metrics: m,
		clients: make(map[string]map[*wsClient]struct{}),
		buffer:  buffer,
	}
}

func (h *Hub) register(userID, deviceID string) *wsClient {
	c := &wsClient{
		userID:   userID,
		deviceID: deviceID,
		send:     make(chan api.Message, h.buffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*wsClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	h.metrics.WSConnectionOpened()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if conns, ok := h.clients[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()

	c.once.Do(func() {
		close(c.done)
		h.metrics.WSConnectionClosed()
	})
}

// Publish отправляет msg всем соединениям userID, кроме устройства fromDevice.
// Соединение с полной очередью пропускает сообщение и догоняет через pull.
func (h *Hub) Publish(userID, fromDevice string, msg api.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		if fromDevice != "" && c.deviceID == fromDevice {
			continue
		}

		select {
		case c.send <- msg:
			h.metrics.Broadcast(msg.Type)
		case <-c.done:
		default:
			h.logger.Warn("Client send queue full, dropping message",
				"user_id", userID,
				"device_id", c.deviceID,
				"type", msg.Type)
		}
	}
}

// Close отключает всех клиентов при остановке сервера:
// http.Server.Shutdown не отслеживает hijacked соединения.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]map[*wsClient]struct{})
	h.mu.Unlock()

	for _, conns := range clients {
		for c := range conns {
			c.once.Do(func() {
				close(c.done)
				h.metrics.WSConnectionClosed()
			})
		}
	}
}

// Count возвращает число открытых соединений.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// reply ставит ответ на запрос в очередь подключения, дожидаясь места.
func (c *wsClient) reply(msg api.Message) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}
