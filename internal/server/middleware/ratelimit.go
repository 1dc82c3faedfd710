package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter ограничивает число запросов с одного адреса за окно времени.
// Используется на эндпоинтах аутентификации против перебора паролей.
type RateLimiter struct {
	now     func() time.Time
	buckets map[string]*bucket
	logger  *slog.Logger
	rate    int
	window  time.Duration
	mu      sync.Mutex
}

// bucket - остаток запросов адреса в текущем окне
type bucket struct {
	windowStart time.Time
	tokens      int
}

// NewRateLimiter создает limiter: rate запросов за window с одного адреса.
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		now:     time.Now,
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		logger:  logger,
	}
}

// Allow проверяет, разрешен ли запрос для данного ключа (обычно IP адрес)
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now, tokens: rl.rate}
		rl.buckets[key] = b
	}

	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// Run periodically drops buckets whose window has passed, until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}

// Middleware отвечает 429 при превышении лимита.
// Адрес берется из RemoteAddr: за прокси его выставляет chi middleware.RealIP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r.RemoteAddr)

		if !rl.Allow(key) {
			rl.logger.Warn("Rate limit exceeded",
				"ip", key,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", retryAfter(rl.window))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
