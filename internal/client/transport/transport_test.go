package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ledgersync/internal/breaker"
	"github.com/iudanet/ledgersync/pkg/api"
)

type serverConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *serverConn) send(t *testing.T, msg api.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

// testServer - websocket сервер, записывающий полученные сообщения.
type testServer struct {
	*httptest.Server
	received chan api.Message
	conns    chan *serverConn
	// reply вызывается для каждого сообщения кроме ping
	reply       func(c *serverConn, msg api.Message)
	mu          sync.Mutex
	connCount   int
	ignorePings bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		received: make(chan api.Message, 100),
		conns:    make(chan *serverConn, 10),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		s.mu.Lock()
		s.connCount++
		ignorePings := s.ignorePings
		reply := s.reply
		s.mu.Unlock()

		c := &serverConn{conn: conn}
		s.conns <- c

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg api.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == api.TypePing {
				if !ignorePings {
					c.send(t, api.Message{Type: api.TypePong, Timestamp: time.Now()})
				}
				continue
			}
			s.received <- msg
			if reply != nil {
				reply(c, msg)
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connCount
}

func (s *testServer) next(t *testing.T) api.Message {
	t.Helper()
	select {
	case msg := <-s.received:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a message")
		return api.Message{}
	}
}

func testConfig(url string) Config {
	return Config{
		URL:                  url,
		PingInterval:         time.Hour,
		PongTimeout:          time.Hour,
		ReconnectDelay:       10 * time.Millisecond,
		MaxReconnectDelay:    50 * time.Millisecond,
		RequestTimeout:       time.Second,
		MaxReconnectAttempts: 20,
		SubscriberBuffer:     8,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTransport(t *testing.T, srv *testServer, mutate func(*Config), opts ...Option) *Transport {
	t.Helper()

	url, err := WebSocketURL(srv.URL, "/api/v1/ws")
	require.NoError(t, err)

	cfg := testConfig(url)
	if mutate != nil {
		mutate(&cfg)
	}
	tr := New(cfg, NewWebsocketDialer(time.Second), discardLogger(), opts...)
	t.Cleanup(tr.Dispose)
	return tr
}

func message(msgType, id string) api.Message {
	return api.Message{Type: msgType, MessageID: id, Timestamp: time.Now().UTC()}
}

func TestTransport_ConnectAndSend(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	states, cancel := tr.States()
	defer cancel()

	require.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, StateConnected, tr.State())
	assert.Equal(t, StateConnecting, <-states)
	assert.Equal(t, StateConnected, <-states)

	require.NoError(t, tr.Send(message("transaction.created", "")))
	assert.Equal(t, "transaction.created", srv.next(t).Type)

	// повторный Connect на живом соединении ничего не делает
	require.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, 1, srv.Connections())
}

func TestTransport_BufferedUntilConnected(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, tr.Send(message("note", id)))
	}
	assert.Equal(t, 3, tr.Buffered())
	assert.Equal(t, StateDisconnected, tr.State())

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Send(message("note", "m4")))

	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		assert.Equal(t, id, srv.next(t).MessageID)
	}
	assert.Equal(t, 0, tr.Buffered())
}

func TestTransport_OutboxLimit(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, func(c *Config) { c.OutboxLimit = 1 })

	require.NoError(t, tr.Send(message("note", "m1")))
	assert.ErrorIs(t, tr.Send(message("note", "m2")), ErrOutboxFull)
}

func TestTransport_ReconnectsAndFlushes(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	require.NoError(t, tr.Connect(context.Background()))
	first := <-srv.conns

	// сервер рвет соединение
	_ = first.conn.Close()
	require.Eventually(t, func() bool { return tr.State() != StateConnected }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, tr.Send(message("note", "while-down")))

	require.Eventually(t, func() bool {
		return tr.State() == StateConnected && srv.Connections() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "while-down", srv.next(t).MessageID)
}

func TestTransport_HeartbeatTimeout(t *testing.T) {
	srv := newTestServer(t)
	srv.ignorePings = true
	tr := newTestTransport(t, srv, func(c *Config) {
		c.PingInterval = 20 * time.Millisecond
		c.PongTimeout = 30 * time.Millisecond
		c.ReconnectDelay = 200 * time.Millisecond
	})

	states, cancel := tr.States()
	defer cancel()

	require.NoError(t, tr.Connect(context.Background()))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == StateReconnecting {
				return
			}
		case <-deadline:
			t.Fatal("transport did not leave connected state after missing pong")
		}
	}
}

func TestTransport_HeartbeatKeepsAlive(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, func(c *Config) {
		c.PingInterval = 10 * time.Millisecond
		c.PongTimeout = 200 * time.Millisecond
	})

	require.NoError(t, tr.Connect(context.Background()))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, StateConnected, tr.State())
	assert.Equal(t, 1, srv.Connections())
}

func TestTransport_AnswersServerPing(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	require.NoError(t, tr.Connect(context.Background()))
	c := <-srv.conns

	c.send(t, message(api.TypePing, "hb-1"))
	got := srv.next(t)
	assert.Equal(t, api.TypePong, got.Type)
	assert.Equal(t, "hb-1", got.MessageID)
}

func TestTransport_SendRequest(t *testing.T) {
	srv := newTestServer(t)
	srv.reply = func(c *serverConn, msg api.Message) {
		switch msg.Type {
		case api.TypeSyncRequest:
			reply, _ := api.NewMessage(api.TypeSyncResponse, api.SyncResponse{CurrentVersion: 7})
			reply.MessageID = msg.MessageID
			c.send(t, reply)
		case "bad.request":
			reply, _ := api.NewMessage(api.TypeError, api.ErrorResponse{Error: "bad_request", Message: "nope"})
			reply.MessageID = msg.MessageID
			c.send(t, reply)
		}
	}
	tr := newTestTransport(t, srv, nil)
	require.NoError(t, tr.Connect(context.Background()))

	resp, err := tr.SendRequest(context.Background(), message(api.TypeSyncRequest, ""), 0)
	require.NoError(t, err)
	assert.Equal(t, api.TypeSyncResponse, resp.Type)
	assert.NotEmpty(t, resp.MessageID)

	var body api.SyncResponse
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, int64(7), body.CurrentVersion)

	_, err = tr.SendRequest(context.Background(), message("bad.request", ""), 0)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "bad_request", remote.Code)

	_, err = tr.SendRequest(context.Background(), message("ignored", ""), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.Equal(t, 0, tr.pendingCount(), "pending entries never leak")
}

func TestTransport_SendRequestBufferedWhileDisconnected(t *testing.T) {
	srv := newTestServer(t)
	srv.reply = func(c *serverConn, msg api.Message) {
		reply := message(api.TypeSyncResponse, msg.MessageID)
		c.send(t, reply)
	}
	tr := newTestTransport(t, srv, nil)

	done := make(chan error, 1)
	go func() {
		_, err := tr.SendRequest(context.Background(), message(api.TypeSyncRequest, "req-1"), time.Second)
		done <- err
	}()

	require.Eventually(t, func() bool { return tr.Buffered() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, <-done)
}

func TestTransport_DisconnectRejectsPending(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)
	require.NoError(t, tr.Connect(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := tr.SendRequest(context.Background(), message("ignored", ""), time.Minute)
		done <- err
	}()
	require.Eventually(t, func() bool { return tr.pendingCount() == 1 }, time.Second, 5*time.Millisecond)

	tr.Disconnect()
	assert.ErrorIs(t, <-done, ErrDisconnected)
	assert.Equal(t, StateDisconnected, tr.State())
	assert.Equal(t, 0, tr.pendingCount())
}

func TestTransport_Subscribe(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	created, cancelCreated := tr.Subscribe("transaction.created", 4)
	defer cancelCreated()
	all, cancelAll := tr.Subscribe(AllTypes, 4)
	defer cancelAll()
	members, cancelMembers := tr.Subscribe(api.TypeMemberJoined, 4)
	defer cancelMembers()

	require.NoError(t, tr.Connect(context.Background()))
	c := <-srv.conns
	c.send(t, message("transaction.created", ""))

	select {
	case msg := <-created:
		assert.Equal(t, "transaction.created", msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("typed subscriber got nothing")
	}
	select {
	case msg := <-all:
		assert.Equal(t, "transaction.created", msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("wildcard subscriber got nothing")
	}
	select {
	case msg := <-members:
		t.Fatalf("unexpected message %s", msg.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransport_DisposeClosesSubscriptions(t *testing.T) {
	srv := newTestServer(t)
	tr := newTestTransport(t, srv, nil)

	msgs, _ := tr.Subscribe(AllTypes, 1)
	states, _ := tr.States()

	tr.Dispose()

	_, ok := <-msgs
	assert.False(t, ok)
	for range states {
	}
	assert.ErrorIs(t, tr.Send(message("note", "")), ErrClosed)
	assert.ErrorIs(t, tr.Connect(context.Background()), ErrClosed)
	tr.Dispose()
}

type fakeDialer struct {
	err   error
	mu    sync.Mutex
	calls int
}

func (d *fakeDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return nil, d.err
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type manualClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTransport_CircuitBreakerGatesConnect(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := breaker.New(breaker.Config{FailureThreshold: 2, ResetTimeout: time.Minute}, breaker.WithClock(clock.Now))
	dialer := &fakeDialer{err: errors.New("connection refused")}

	cfg := testConfig("ws://example.invalid/ws")
	cfg.ReconnectDelay = time.Hour
	cfg.MaxReconnectDelay = time.Hour
	tr := New(cfg, dialer, discardLogger(), WithBreaker(b))
	defer tr.Dispose()

	ctx := context.Background()
	assert.Error(t, tr.Connect(ctx))
	assert.Error(t, tr.Connect(ctx))
	assert.Equal(t, 2, dialer.Calls())
	assert.Equal(t, breaker.StateOpen, b.State())

	err := tr.Connect(ctx)
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 2, dialer.Calls(), "open breaker fails fast without dialing")
	assert.Equal(t, StateReconnecting, tr.State(), "reconnect stays scheduled")

	clock.Advance(time.Minute)
	assert.Error(t, tr.Connect(ctx))
	assert.Equal(t, 3, dialer.Calls(), "one trial call after the reset timeout")
	assert.Equal(t, breaker.StateOpen, b.State())

	assert.ErrorIs(t, tr.Connect(ctx), breaker.ErrOpen)
	assert.Equal(t, 3, dialer.Calls())
}

func TestTransport_MaxReconnectAttempts(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("connection refused")}
	cfg := testConfig("ws://example.invalid/ws")
	cfg.ReconnectDelay = time.Millisecond
	cfg.MaxReconnectDelay = 5 * time.Millisecond
	cfg.MaxReconnectAttempts = 2

	tr := New(cfg, dialer, discardLogger())
	defer tr.Dispose()

	assert.Error(t, tr.Connect(context.Background()))
	require.Eventually(t, func() bool {
		return tr.State() == StateDisconnected && dialer.Calls() == 3
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, dialer.Calls(), "no more attempts until an explicit Connect")

	assert.Error(t, tr.Connect(context.Background()))
	assert.Equal(t, 4, dialer.Calls())
}

func TestTransport_Backoff(t *testing.T) {
	tr := New(Config{ReconnectDelay: time.Second, MaxReconnectDelay: 10 * time.Second}, &fakeDialer{}, discardLogger())

	assert.Equal(t, time.Second, tr.backoff(0))
	assert.Equal(t, 2*time.Second, tr.backoff(1))
	assert.Equal(t, 8*time.Second, tr.backoff(3))
	assert.Equal(t, 10*time.Second, tr.backoff(4))
	assert.Equal(t, 10*time.Second, tr.backoff(60))
}

func TestSubscriber_DropsOldest(t *testing.T) {
	s := newSubscriber[int](2)

	assert.False(t, s.offer(1))
	assert.False(t, s.offer(2))
	assert.True(t, s.offer(3))

	assert.Equal(t, 2, <-s.ch)
	assert.Equal(t, 3, <-s.ch)

	s.close()
	s.close()
	assert.False(t, s.offer(4))
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
		hasErr bool
	}{
		{server: "http://localhost:8080", want: "ws://localhost:8080/api/v1/ws"},
		{server: "https://ledger.example.com/base/", want: "wss://ledger.example.com/base/api/v1/ws"},
		{server: "ftp://x", hasErr: true},
	}
	for _, tt := range tests {
		got, err := WebSocketURL(tt.server, "/api/v1/ws")
		if tt.hasErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
