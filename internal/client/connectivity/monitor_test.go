package connectivity

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(initial bool) *Monitor {
	return NewMonitor(initial, slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func receive(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no connectivity event")
		return false
	}
}

func TestMonitor_SetOnlineNotifiesOnChange(t *testing.T) {
	m := newTestMonitor(false)
	ch, cancel := m.Subscribe()
	defer cancel()

	assert.False(t, m.IsOnline())

	m.SetOnline(true)
	assert.True(t, m.IsOnline())
	assert.True(t, receive(t, ch))

	// повторная установка того же значения не рассылается
	m.SetOnline(true)
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %v", v)
	default:
	}
}

func TestMonitor_SlowSubscriberGetsLatest(t *testing.T) {
	m := newTestMonitor(false)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(true)

	assert.True(t, receive(t, ch))
	select {
	case v := <-ch:
		t.Fatalf("intermediate states should be coalesced, got %v", v)
	default:
	}
}

func TestMonitor_CancelClosesChannel(t *testing.T) {
	m := newTestMonitor(true)
	ch, cancel := m.Subscribe()

	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)

	// после отписки рассылка не паникует
	m.SetOnline(false)
	assert.False(t, m.IsOnline())
}

func TestMonitor_MultipleSubscribers(t *testing.T) {
	m := newTestMonitor(true)
	a, cancelA := m.Subscribe()
	defer cancelA()
	b, cancelB := m.Subscribe()
	defer cancelB()

	m.SetOnline(false)

	assert.False(t, receive(t, a))
	assert.False(t, receive(t, b))
}
