package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/ledgersync/pkg/api"
)

const (
	maxMessageSize = 1 << 20
	requestTimeout = 10 * time.Second
)

// WSConfig - тайминги websocket подключений.
type WSConfig struct {
	// ReadTimeout - сколько ждать любого сообщения клиента; клиент шлет ping
	// чаще, поэтому тишина дольше значит потерянное соединение
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WSHandler обслуживает GET /api/v1/ws: push уведомления, ping/pong и sync.request.
type WSHandler struct {
	responder
	hub      *Hub
	sync     *SyncHandler
	upgrader websocket.Upgrader
	cfg      WSConfig
}

// NewWSHandler creates the websocket endpoint handler.
func NewWSHandler(logger *slog.Logger, hub *Hub, syncHandler *SyncHandler, cfg WSConfig) *WSHandler {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 90 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &WSHandler{
		responder: responder{logger: logger},
		hub:       hub,
		sync:      syncHandler,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// клиенты - не браузеры, аутентификация по Bearer токену
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and serves it until either side closes it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	deviceID := r.Header.Get(api.DeviceIDHeader)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту ошибкой
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := h.hub.register(userID, deviceID)
	h.logger.InfoContext(r.Context(), "websocket connected",
		slog.String("user_id", userID),
		slog.String("device_id", deviceID))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(conn, client)
	}()

	h.readLoop(context.WithoutCancel(r.Context()), conn, client)

	h.hub.unregister(client)
	wg.Wait()
	_ = conn.Close()

	h.logger.Info("websocket disconnected",
		slog.String("user_id", userID),
		slog.String("device_id", deviceID))
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, c *wsClient) {
	conn.SetReadLimit(maxMessageSize)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", slog.String("user_id", c.userID), slog.Any("error", err))
			}
			return
		}

		var msg api.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if !c.reply(errorMessage("", "bad_request", "invalid message format")) {
				return
			}
			continue
		}

		resp, ok := h.handle(ctx, c, msg)
		if ok && !c.reply(resp) {
			return
		}
	}
}

// handle отвечает на сообщение клиента; ok=false означает, что ответ не нужен.
func (h *WSHandler) handle(ctx context.Context, c *wsClient, msg api.Message) (api.Message, bool) {
	switch msg.Type {
	case api.TypePing:
		return api.Message{Type: api.TypePong, MessageID: msg.MessageID, Timestamp: time.Now().UTC()}, true
	case api.TypePong:
		return api.Message{}, false
	case api.TypeSyncRequest:
		var req api.SyncRequest
		if len(msg.Data) > 0 {
			if err := msg.Decode(&req); err != nil {
				return errorMessage(msg.MessageID, "bad_request", err.Error()), true
			}
		}

		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		page, err := h.sync.Pull(ctx, c.userID, req)
		if err != nil {
			h.logger.Error("websocket sync failed", slog.String("user_id", c.userID), slog.Any("error", err))
			return errorMessage(msg.MessageID, "sync_failed", "failed to pull changes"), true
		}

		resp, err := api.NewMessage(api.TypeSyncResponse, page)
		if err != nil {
			return errorMessage(msg.MessageID, "internal", err.Error()), true
		}
		resp.MessageID = msg.MessageID
		return resp, true
	default:
		return errorMessage(msg.MessageID, "unsupported", "unsupported message type "+msg.Type), true
	}
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, c *wsClient) {
	for {
		select {
		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to encode websocket message", slog.Any("error", err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// закрытие соединения завершит readLoop
				_ = conn.Close()
				return
			}
		case <-c.done:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
			return
		}
	}
}

func errorMessage(messageID, code, message string) api.Message {
	msg, _ := api.NewMessage(api.TypeError, api.ErrorResponse{Error: code, Message: message})
	msg.MessageID = messageID
	return msg
}
