// Package transport - устойчивый двунаправленный канал к серверу поверх websocket:
// heartbeat, переподключение с экспоненциальной задержкой, буфер исходящих сообщений,
// корреляция запрос/ответ и подписки на push уведомления.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/ledgersync/internal/breaker"
	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/pkg/api"
)

// State - состояние соединения.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// AllTypes - подписка на все broadcast сообщения.
const AllTypes = "*"

const writeWait = 10 * time.Second

var (
	ErrClosed           = errors.New("transport is closed")
	ErrDisconnected     = errors.New("transport disconnected")
	ErrRequestTimeout   = errors.New("request timed out")
	ErrOutboxFull       = errors.New("outbox is full")
	ErrHeartbeatTimeout = errors.New("pong not received in time")
)

// RemoteError - ответ сервера с type=error на запрос.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote error: " + e.Code
	}
	return fmt.Sprintf("remote error %s: %s", e.Code, e.Message)
}

type Config struct {
	URL                  string
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	RequestTimeout       time.Duration
	MaxReconnectAttempts int // 0 - без ограничения
	OutboxLimit          int // 0 - без ограничения
	SubscriberBuffer     int
}

// HeaderFunc возвращает заголовки рукопожатия (авторизация, ID устройства).
type HeaderFunc func(ctx context.Context) (http.Header, error)

type Option func(*Transport)

func WithBreaker(b *breaker.Breaker) Option {
	return func(t *Transport) { t.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

func WithHeader(fn HeaderFunc) Option {
	return func(t *Transport) { t.header = fn }
}

type result struct {
	err error
	msg api.Message
}

// Transport is safe for concurrent use.
//
// Порядок блокировок: writeMu захватывается раньше mu, никогда наоборот.
type Transport struct {
	dialer  Dialer
	breaker *breaker.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	header  HeaderFunc

	lifeCtx    context.Context
	lifeCancel context.CancelFunc

	conn           Conn
	connDone       chan struct{}
	reconnectTimer *time.Timer
	pongTimer      *time.Timer
	pending        map[string]chan result
	subs           map[string][]*subscriber[api.Message]
	stateSubs      []*subscriber[State]
	outbox         []api.Message

	cfg      Config
	wg       sync.WaitGroup
	gen      uint64
	attempts int
	// writeMu упорядочивает запись в сокет: сброс outbox и новые Send не перемешиваются
	writeMu sync.Mutex
	mu      sync.Mutex
	state   State
	closed  bool
}

// New создает отключенный транспорт. До Connect ничего не происходит.
func New(cfg Config, dialer Dialer, logger *slog.Logger, opts ...Option) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		cfg:        cfg,
		dialer:     dialer,
		logger:     logger,
		lifeCtx:    ctx,
		lifeCancel: cancel,
		pending:    make(map[string]chan result),
		subs:       make(map[string][]*subscriber[api.Message]),
		header: func(context.Context) (http.Header, error) {
			return http.Header{}, nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State возвращает текущее состояние соединения.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect подключается к серверу сразу и сбрасывает счетчик попыток, поэтому
// оживляет и транспорт, сдавшийся после MaxReconnectAttempts. При ошибке
// планируется переподключение; breaker.ErrOpen значит, что dial не выполнялся.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state == StateConnected || t.state == StateConnecting {
		t.mu.Unlock()
		return nil
	}
	t.stopReconnectLocked()
	t.attempts = 0
	t.setStateLocked(StateConnecting)
	t.mu.Unlock()

	return t.dial(ctx)
}

// Disconnect закрывает соединение, отменяет таймеры и отклоняет ожидающие запросы.
// Сообщения outbox остаются до следующего Connect.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopReconnectLocked()
	t.dropConnLocked()
	for id, ch := range t.pending {
		ch <- result{err: ErrDisconnected}
		delete(t.pending, id)
	}
	if t.state != StateDisconnected {
		t.setStateLocked(StateDisconnected)
		t.logger.Info("Transport disconnected")
	}
}

// Dispose отключается, закрывает каналы подписок и ждет фоновые горутины.
func (t *Transport) Dispose() {
	t.Disconnect()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.lifeCancel()
	for _, subs := range t.subs {
		for _, s := range subs {
			s.close()
		}
	}
	t.subs = make(map[string][]*subscriber[api.Message])
	for _, s := range t.stateSubs {
		s.close()
	}
	t.stateSubs = nil
	t.mu.Unlock()

	t.wg.Wait()
}

func (t *Transport) dial(ctx context.Context) error {
	header, err := t.header(ctx)
	if err == nil {
		var conn Conn
		open := func() error {
			c, err := t.dialer.Dial(ctx, t.cfg.URL, header)
			if err != nil {
				return err
			}
			conn = c
			return nil
		}
		if t.breaker != nil {
			err = t.breaker.Execute(open)
		} else {
			err = open()
		}
		if err == nil {
			return t.attach(conn)
		}
	}

	if errors.Is(err, breaker.ErrOpen) {
		t.logger.Debug("Circuit open, connection attempt skipped")
	} else {
		t.logger.Warn("Connection attempt failed", "url", t.cfg.URL, "error", err)
	}

	t.mu.Lock()
	if t.state == StateConnecting && !t.closed {
		t.scheduleReconnectLocked()
	}
	t.mu.Unlock()
	return fmt.Errorf("connect: %w", err)
}

// attach делает conn текущим соединением и сбрасывает outbox в исходном порядке
// до того, как будут приняты новые Send.
func (t *Transport) attach(conn Conn) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	if t.closed || t.state != StateConnecting {
		t.mu.Unlock()
		_ = conn.Close()
		return ErrDisconnected
	}
	t.gen++
	gen := t.gen
	done := make(chan struct{})
	t.conn = conn
	t.connDone = done
	t.attempts = 0
	outbox := t.outbox
	t.outbox = nil
	t.setStateLocked(StateConnected)
	t.metrics.OutboxSize(0)
	t.wg.Add(2)
	t.mu.Unlock()

	t.logger.Info("Transport connected", "url", t.cfg.URL, "buffered", len(outbox))

	go t.readLoop(gen, conn)
	go t.heartbeat(gen, conn, done)

	for i, msg := range outbox {
		if err := t.write(conn, msg); err != nil {
			t.mu.Lock()
			t.outbox = append(append([]api.Message(nil), outbox[i:]...), t.outbox...)
			t.mu.Unlock()
			t.handleConnError(gen, err)
			return nil
		}
	}
	return nil
}

func (t *Transport) readLoop(gen uint64, conn Conn) {
	defer t.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.handleConnError(gen, err)
			return
		}

		var msg api.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.logger.Warn("Invalid message from server", "error", err)
			continue
		}
		t.metrics.Message("in", msg.Type)
		t.dispatch(gen, conn, msg)
	}
}

func (t *Transport) dispatch(gen uint64, conn Conn, msg api.Message) {
	switch msg.Type {
	case api.TypePong:
		t.mu.Lock()
		if gen == t.gen && t.pongTimer != nil {
			t.pongTimer.Stop()
			t.pongTimer = nil
		}
		t.mu.Unlock()
		return
	case api.TypePing:
		pong := api.Message{Type: api.TypePong, MessageID: msg.MessageID, Timestamp: time.Now().UTC()}
		t.writeMu.Lock()
		err := t.write(conn, pong)
		t.writeMu.Unlock()
		if err != nil {
			t.handleConnError(gen, err)
		}
		return
	}

	if msg.MessageID != "" {
		t.mu.Lock()
		ch, ok := t.pending[msg.MessageID]
		if ok {
			delete(t.pending, msg.MessageID)
		}
		t.mu.Unlock()
		if ok {
			ch <- result{msg: msg}
			return
		}
	}

	t.publish(msg)
}

func (t *Transport) heartbeat(gen uint64, conn Conn, done <-chan struct{}) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		// таймер взводится до отправки, чтобы быстрый pong не пришел раньше него
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		if t.pongTimer == nil {
			t.pongTimer = time.AfterFunc(t.cfg.PongTimeout, func() {
				t.handleConnError(gen, ErrHeartbeatTimeout)
			})
		}
		t.mu.Unlock()

		ping := api.Message{Type: api.TypePing, Timestamp: time.Now().UTC()}
		t.writeMu.Lock()
		err := t.write(conn, ping)
		t.writeMu.Unlock()
		if err != nil {
			t.handleConnError(gen, err)
			return
		}
	}
}

// handleConnError переводит текущее соединение gen в reconnecting.
// Ошибки устаревших соединений игнорируются.
func (t *Transport) handleConnError(gen uint64, cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.state != StateConnected {
		return
	}
	t.logger.Warn("Connection lost", "error", cause)
	t.dropConnLocked()
	t.scheduleReconnectLocked()
}

func (t *Transport) reconnect() {
	t.mu.Lock()
	if t.closed || t.state != StateReconnecting {
		t.mu.Unlock()
		return
	}
	t.reconnectTimer = nil
	t.setStateLocked(StateConnecting)
	t.mu.Unlock()

	_ = t.dial(t.lifeCtx)
}

func (t *Transport) scheduleReconnectLocked() {
	if t.cfg.MaxReconnectAttempts > 0 && t.attempts >= t.cfg.MaxReconnectAttempts {
		t.setStateLocked(StateDisconnected)
		t.logger.Error("Reconnect attempts exhausted, staying disconnected", "attempts", t.attempts)
		return
	}

	delay := t.backoff(t.attempts)
	t.attempts++
	t.setStateLocked(StateReconnecting)
	t.metrics.Reconnect()
	t.logger.Info("Reconnect scheduled", "attempt", t.attempts, "delay", delay)
	t.reconnectTimer = time.AfterFunc(delay, t.reconnect)
}

// backoff возвращает ReconnectDelay * 2^attempts, ограниченное MaxReconnectDelay.
func (t *Transport) backoff(attempts int) time.Duration {
	d := t.cfg.ReconnectDelay
	for i := 0; i < attempts; i++ {
		d *= 2
		if t.cfg.MaxReconnectDelay > 0 && d >= t.cfg.MaxReconnectDelay {
			return t.cfg.MaxReconnectDelay
		}
	}
	if t.cfg.MaxReconnectDelay > 0 && d > t.cfg.MaxReconnectDelay {
		return t.cfg.MaxReconnectDelay
	}
	return d
}

func (t *Transport) stopReconnectLocked() {
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
}

func (t *Transport) dropConnLocked() {
	if t.pongTimer != nil {
		t.pongTimer.Stop()
		t.pongTimer = nil
	}
	if t.connDone != nil {
		close(t.connDone)
		t.connDone = nil
	}
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

func (t *Transport) setStateLocked(s State) {
	if t.state == s {
		return
	}
	t.state = s
	t.metrics.TransportState(int(s))
	for _, sub := range t.stateSubs {
		sub.offer(s)
	}
}

// Send отправляет msg сразу при подключении, иначе кладет в outbox.
// Ошибка записи возвращает сообщение в outbox и запускает переподключение.
func (t *Transport) Send(msg api.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.state != StateConnected {
		err := t.bufferLocked(msg)
		t.mu.Unlock()
		return err
	}
	conn, gen := t.conn, t.gen
	t.mu.Unlock()

	if err := t.write(conn, msg); err != nil {
		t.mu.Lock()
		bufErr := t.bufferLocked(msg)
		t.mu.Unlock()
		t.handleConnError(gen, err)
		return bufErr
	}
	return nil
}

func (t *Transport) bufferLocked(msg api.Message) error {
	if t.cfg.OutboxLimit > 0 && len(t.outbox) >= t.cfg.OutboxLimit {
		return ErrOutboxFull
	}
	t.outbox = append(t.outbox, msg)
	t.metrics.OutboxSize(len(t.outbox))
	return nil
}

// Buffered возвращает число сообщений в outbox.
func (t *Transport) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outbox)
}

// write вызывается под writeMu.
func (t *Transport) write(conn Conn, msg api.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	t.metrics.Message("out", msg.Type)
	return nil
}
