// Package server собирает HTTP API сервера синхронизации.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/internal/server/handlers"
	"github.com/iudanet/ledgersync/internal/server/middleware"
	"github.com/iudanet/ledgersync/internal/server/storage"
)

// Store - хранилище, которого достаточно для всего API.
type Store interface {
	storage.UserStorage
	storage.EntityStorage
	handlers.Pinger
}

// Deps - зависимости роутера. Metrics, Gatherer и AuthLimiter необязательны.
type Deps struct {
	Logger      *slog.Logger
	Store       Store
	Hub         *handlers.Hub
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	AuthLimiter *middleware.RateLimiter
	JWT         handlers.JWTConfig
	WS          handlers.WSConfig
	MetricsPath string
}

// NewRouter wires handlers and middleware:
//
//	GET  /health
//	GET  /metrics
//	POST /api/v1/auth/register, POST /api/v1/auth/login, GET /api/v1/auth/salt/{username}
//	GET  /api/v1/sync, GET /api/v1/ws
//	POST /api/v1/{resource}, GET|PUT|DELETE /api/v1/{resource}/{id}
func NewRouter(d Deps) http.Handler {
	if d.MetricsPath == "" {
		d.MetricsPath = "/metrics"
	}
	if d.Hub == nil {
		d.Hub = handlers.NewHub(d.Logger, d.Metrics, 0)
	}

	health := handlers.NewHealthHandler(d.Logger, d.Store)
	auth := handlers.NewAuthHandler(d.Logger, d.Store, d.JWT)
	syncHandler := handlers.NewSyncHandler(d.Logger, d.Store)
	entities := handlers.NewEntityHandler(d.Logger, d.Store, d.Hub)
	ws := handlers.NewWSHandler(d.Logger, d.Hub, syncHandler, d.WS)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoveryMiddleware(d.Logger))
	r.Use(middleware.LoggingWithSkip(d.Logger, []string{"/health", d.MetricsPath}))
	r.Use(d.Metrics.Middleware)

	r.Get("/health", health.Health)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, d.MetricsPath, metrics.Handler(d.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/auth/register", auth.Register)
			r.Post("/auth/login", auth.Login)
			r.Get("/auth/salt/{username}", auth.GetSalt)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.Logger, d.JWT))

			r.Get("/sync", syncHandler.HandleSync)
			r.Get("/ws", ws.ServeWS)

			r.Post("/{resource}", entities.Create)
			r.Get("/{resource}/{id}", entities.Get)
			r.Put("/{resource}/{id}", entities.Update)
			r.Delete("/{resource}/{id}", entities.Delete)
		})
	})

	return r
}
