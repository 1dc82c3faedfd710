package transport

// subscriber - канал подписки с вытеснением самого старого значения.
// Все вызовы offer и close выполняются под Transport.mu.
type subscriber[T any] struct {
	ch     chan T
	closed bool
}

func newSubscriber[T any](buffer int) *subscriber[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &subscriber[T]{ch: make(chan T, buffer)}
}

// offer не блокируется; возвращает true, если старое значение вытеснено.
func (s *subscriber[T]) offer(v T) bool {
	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return false
	default:
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- v:
	default:
	}
	return true
}

func (s *subscriber[T]) close() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func removeSubscriber[T any](subs []*subscriber[T], target *subscriber[T]) []*subscriber[T] {
	for i, s := range subs {
		if s == target {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
