// Package metrics - Prometheus коллекторы движка синхронизации и сервера.
// Все методы безопасны на nil *Metrics: компоненты работают и без метрик.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgersync"

// Metrics группирует коллекторы. Создается через New.
type Metrics struct {
	mutationsEnqueued  *prometheus.CounterVec
	mutationsProcessed *prometheus.CounterVec
	queueDepth         *prometheus.GaugeVec
	drainDuration      prometheus.Histogram
	conflicts          *prometheus.CounterVec
	transportState     prometheus.Gauge
	reconnects         prometheus.Counter
	messages           *prometheus.CounterVec
	outboxSize         prometheus.Gauge
	requestTimeouts    prometheus.Counter
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	wsConnections      prometheus.Gauge
	broadcasts         *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их в reg.
// Уже зарегистрированные в reg коллекторы переиспользуются.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		mutationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_enqueued_total",
			Help:      "Local mutations persisted in the outbound queue",
		}, []string{"entity_type", "operation"}),
		mutationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_processed_total",
			Help:      "Queue drain outcomes per mutation",
		}, []string{"result"}), // result: completed|retry|failed|deferred|circuit_open
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Queue records by status after the last drain",
		}, []string{"status"}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_drain_duration_seconds",
			Help:      "Duration of queue drain passes",
			Buckets:   prometheus.DefBuckets,
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Detected conflicts by type and applied resolution",
		}, []string{"type", "resolution"}),
		transportState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_state",
			Help:      "Transport state: 0 disconnected, 1 connecting, 2 connected, 3 reconnecting",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_reconnects_total",
			Help:      "Scheduled reconnect attempts",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_messages_total",
			Help:      "Websocket messages by direction and type",
		}, []string{"direction", "type"}),
		outboxSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_outbox_size",
			Help:      "Messages buffered while disconnected",
		}),
		requestTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_request_timeouts_total",
			Help:      "Correlated requests rejected by timeout",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		}, []string{"name"}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		}, []string{"name", "from", "to"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by the server",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections on the server hub",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_broadcasts_total",
			Help:      "Push notifications sent by the server hub",
		}, []string{"type"}),
	}

	collectors := []prometheus.Collector{
		m.mutationsEnqueued, m.mutationsProcessed, m.queueDepth, m.drainDuration,
		m.conflicts, m.transportState, m.reconnects, m.messages, m.outboxSize,
		m.requestTimeouts, m.breakerState, m.breakerTransitions, m.httpRequests,
		m.httpDuration, m.wsConnections, m.broadcasts,
	}
	for _, c := range collectors {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerCollector registers c, ignoring duplicates.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// Handler exposes the metrics of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// MutationEnqueued считает сохраненную мутацию.
func (m *Metrics) MutationEnqueued(entityType, operation string) {
	if m == nil {
		return
	}
	m.mutationsEnqueued.WithLabelValues(entityType, operation).Inc()
}

// MutationProcessed считает исход отправки.
func (m *Metrics) MutationProcessed(result string) {
	if m == nil {
		return
	}
	m.mutationsProcessed.WithLabelValues(result).Inc()
}

// QueueDepth задает число записей в статусе.
func (m *Metrics) QueueDepth(status string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(status).Set(float64(n))
}

// DrainFinished фиксирует длительность прохода очереди.
func (m *Metrics) DrainFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(d.Seconds())
}

// Conflict считает обнаруженный конфликт.
func (m *Metrics) Conflict(conflictType, resolution string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(conflictType, resolution).Inc()
}

// TransportState записывает числовое состояние транспорта.
func (m *Metrics) TransportState(state int) {
	if m == nil {
		return
	}
	m.transportState.Set(float64(state))
}

// Reconnect считает запланированное переподключение.
func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// Message counts a websocket message; direction is "in" or "out".
func (m *Metrics) Message(direction, msgType string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(direction, msgType).Inc()
}

// OutboxSize задает число сообщений в outbox.
func (m *Metrics) OutboxSize(n int) {
	if m == nil {
		return
	}
	m.outboxSize.Set(float64(n))
}

// RequestTimeout считает запрос, не дождавшийся ответа.
func (m *Metrics) RequestTimeout() {
	if m == nil {
		return
	}
	m.requestTimeouts.Inc()
}

// BreakerTransition фиксирует смену состояния breaker; toValue соответствует breaker.State.
func (m *Metrics) BreakerTransition(name string, toValue int, fromName, toName string) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(toValue))
	m.breakerTransitions.WithLabelValues(name, fromName, toName).Inc()
}

// WSConnectionOpened увеличивает число открытых websocket соединений.
func (m *Metrics) WSConnectionOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

// WSConnectionClosed уменьшает число открытых websocket соединений.
func (m *Metrics) WSConnectionClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

// Broadcast считает push уведомление, отправленное устройству.
func (m *Metrics) Broadcast(msgType string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(msgType).Inc()
}

// Middleware instruments HTTP handlers. The route label is the chi route
// pattern, so IDs in paths do not explode the label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}
