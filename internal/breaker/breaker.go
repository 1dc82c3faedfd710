// Package breaker - circuit breaker: пока зависимость отказывает, вызовы
// отклоняются сразу, а после паузы пропускается один пробный вызов.
package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State - состояние breaker.
type State int

const (
	// StateClosed - нормальная работа, вызовы проходят
	StateClosed State = iota
	// StateOpen - вызовы отклоняются без обращения к зависимости
	StateOpen
	// StateHalfOpen - разрешен один пробный вызов
	StateHalfOpen
)

// String возвращает имя состояния.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen возвращается, когда breaker отклонил вызов, не выполняя его.
var ErrOpen = errors.New("circuit breaker is open")

// Config - параметры breaker.
type Config struct {
	// FailureThreshold - количество последовательных ошибок до размыкания
	// Default: 5
	FailureThreshold int

	// ResetTimeout - время в состоянии open до пробного вызова
	// Default: 30s
	ResetTimeout time.Duration
}

// DefaultConfig возвращает параметры по умолчанию.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Option - необязательная настройка breaker.
type Option func(*Breaker)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithStateListener регистрирует callback на каждую смену состояния.
// Callback вызывается вне блокировки breaker.
func WithStateListener(fn func(from, to State)) Option {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

// Breaker is safe for concurrent use.
type Breaker struct {
	openedAt      time.Time
	now           func() time.Time
	onStateChange func(from, to State)
	cfg           Config
	failures      int
	state         State
	trialInFlight bool
	mu            sync.Mutex
}

// New создает breaker в состоянии closed.
func New(cfg Config, opts ...Option) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}

	b := &Breaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute выполняет op через breaker. Отклоненный вызов op не выполняет,
// возвращаемая ошибка оборачивает ErrOpen.
func (b *Breaker) Execute(op func() error) error {
	b.mu.Lock()
	transition, err := b.acquireLocked()
	b.mu.Unlock()
	b.notify(transition)

	if err != nil {
		return err
	}

	opErr := op()

	b.mu.Lock()
	transition = b.recordLocked(opErr)
	b.mu.Unlock()
	b.notify(transition)

	return opErr
}

type stateTransition struct {
	from, to State
	changed  bool
}

func (b *Breaker) acquireLocked() (stateTransition, error) {
	switch b.state {
	case StateClosed:
		return stateTransition{}, nil

	case StateOpen:
		remaining := b.cfg.ResetTimeout - b.now().Sub(b.openedAt)
		if remaining > 0 {
			return stateTransition{}, fmt.Errorf("%w: retry in %s", ErrOpen, remaining.Round(time.Millisecond))
		}
		// Таймаут истек: пропускаем ровно один пробный вызов
		t := b.setStateLocked(StateHalfOpen)
		b.trialInFlight = true
		return t, nil

	case StateHalfOpen:
		if b.trialInFlight {
			return stateTransition{}, fmt.Errorf("%w: trial call in progress", ErrOpen)
		}
		b.trialInFlight = true
		return stateTransition{}, nil
	}

	return stateTransition{}, nil
}

func (b *Breaker) recordLocked(err error) stateTransition {
	if b.state == StateHalfOpen {
		b.trialInFlight = false
		if err == nil {
			b.failures = 0
			return b.setStateLocked(StateClosed)
		}
		// Любая ошибка в half-open снова размыкает цепь
		b.failures++
		b.openedAt = b.now()
		return b.setStateLocked(StateOpen)
	}

	if err == nil {
		b.failures = 0
		return stateTransition{}
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		return b.setStateLocked(StateOpen)
	}
	return stateTransition{}
}

func (b *Breaker) setStateLocked(to State) stateTransition {
	from := b.state
	b.state = to
	return stateTransition{from: from, to: to, changed: from != to}
}

func (b *Breaker) notify(t stateTransition) {
	if t.changed && b.onStateChange != nil {
		b.onStateChange(t.from, t.to)
	}
}

// State возвращает текущее состояние. После истечения ResetTimeout breaker
// остается open, пока следующий вызов не станет пробным.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures возвращает число отказов подряд.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// RemainingTimeout возвращает, сколько еще open breaker будет отклонять вызовы.
// Для closed и half-open - ноль.
func (b *Breaker) RemainingTimeout() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return 0
	}
	remaining := b.cfg.ResetTimeout - b.now().Sub(b.openedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset принудительно возвращает breaker в closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	t := b.setStateLocked(StateClosed)
	b.failures = 0
	b.trialInFlight = false
	b.mu.Unlock()
	b.notify(t)
}
