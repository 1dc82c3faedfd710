package transport

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/ledgersync/pkg/api"
)

// SendRequest отправляет msg и ждет ответа с тем же messageId.
//
// Пустой messageId генерируется. Запись ожидания удаляется на любом выходе;
// ответ после таймаута публикуется как broadcast.
// timeout <= 0 означает Config.RequestTimeout.
func (t *Transport) SendRequest(ctx context.Context, msg api.Message, timeout time.Duration) (api.Message, error) {
	if msg.MessageID == "" {
		msg.MessageID = uuid.New().String()
	}
	if timeout <= 0 {
		timeout = t.cfg.RequestTimeout
	}

	ch := make(chan result, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return api.Message{}, ErrClosed
	}
	t.pending[msg.MessageID] = ch
	t.mu.Unlock()

	defer t.forget(msg.MessageID, ch)

	if err := t.Send(msg); err != nil {
		return api.Message{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return api.Message{}, res.err
		}
		if res.msg.Type == api.TypeError {
			return res.msg, remoteError(res.msg)
		}
		return res.msg, nil
	case <-timer.C:
		t.metrics.RequestTimeout()
		t.logger.Warn("Request timed out", "type", msg.Type, "message_id", msg.MessageID, "timeout", timeout)
		return api.Message{}, ErrRequestTimeout
	case <-ctx.Done():
		return api.Message{}, ctx.Err()
	}
}

// forget удаляет запись ожидания, если она еще принадлежит этому запросу.
func (t *Transport) forget(id string, ch chan result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.pending[id]; ok && cur == ch {
		delete(t.pending, id)
	}
}

func (t *Transport) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func remoteError(msg api.Message) error {
	var body api.ErrorResponse
	if err := msg.Decode(&body); err != nil {
		return &RemoteError{Code: "unknown"}
	}
	return &RemoteError{Code: body.Error, Message: body.Message}
}

// Subscribe возвращает broadcast сообщения типа msgType (AllTypes - все типы).
// Если подписчик отстает, самое старое сообщение в буфере вытесняется.
// buffer <= 0 означает Config.SubscriberBuffer.
func (t *Transport) Subscribe(msgType string, buffer int) (<-chan api.Message, func()) {
	if buffer <= 0 {
		buffer = t.cfg.SubscriberBuffer
	}
	sub := newSubscriber[api.Message](buffer)

	t.mu.Lock()
	if t.closed {
		sub.close()
	} else {
		t.subs[msgType] = append(t.subs[msgType], sub)
	}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.subs[msgType] = removeSubscriber(t.subs[msgType], sub)
		sub.close()
	}
	return sub.ch, cancel
}

// States возвращает смены состояния соединения. При медленном чтении в канале
// остаются только последние состояния.
func (t *Transport) States() (<-chan State, func()) {
	sub := newSubscriber[State](4)

	t.mu.Lock()
	if t.closed {
		sub.close()
	} else {
		t.stateSubs = append(t.stateSubs, sub)
	}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.stateSubs = removeSubscriber(t.stateSubs, sub)
		sub.close()
	}
	return sub.ch, cancel
}

func (t *Transport) publish(msg api.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delivered := false
	for _, key := range []string{msg.Type, AllTypes} {
		for _, sub := range t.subs[key] {
			delivered = true
			if sub.offer(msg) {
				t.logger.Debug("Subscriber lagging, oldest message dropped", "type", msg.Type)
			}
		}
	}
	if !delivered {
		t.logger.Debug("No subscribers for message", "type", msg.Type)
	}
}
