// Package connectivity отслеживает сигнал online/offline, который задает приложение.
package connectivity

import (
	"log/slog"
	"sync"
)

// Monitor хранит текущее состояние сети и рассылает изменения подписчикам.
// Сам Monitor сеть не проверяет: состояние задает хост через SetOnline.
type Monitor struct {
	logger *slog.Logger
	subs   map[int]chan bool
	nextID int
	mu     sync.RWMutex
	online bool
}

// NewMonitor создает монитор с начальным состоянием.
func NewMonitor(initial bool, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
		online: initial,
		subs:   make(map[int]chan bool),
	}
}

// IsOnline возвращает последнее известное состояние.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline обновляет состояние. Подписчики уведомляются только об изменениях.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	m.logger.Info("connectivity changed", "online", online)

	for _, ch := range m.subs {
		publish(ch, online)
	}
}

// Subscribe возвращает канал изменений состояния и функцию отписки.
// Канал имеет буфер на одно значение: медленный подписчик получает
// только последнее состояние, промежуточные переключения схлопываются.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// publish вызывается под m.mu, поэтому отправка в канал не гонится с close.
func publish(ch chan bool, v bool) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		// вытесняем устаревшее значение
		select {
		case <-ch:
		default:
		}
	}
}
