package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/ledgersync/internal/config"
	"github.com/iudanet/ledgersync/internal/metrics"
	"github.com/iudanet/ledgersync/internal/server"
	"github.com/iudanet/ledgersync/internal/server/handlers"
	"github.com/iudanet/ledgersync/internal/server/middleware"
	"github.com/iudanet/ledgersync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret (LEDGERSYNC_JWT_SECRET) is required")
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Server.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	hub := handlers.NewHub(logger, m, 0)

	var limiter *middleware.RateLimiter
	if cfg.Server.AuthRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.AuthRateLimit, cfg.Server.AuthRateWindow, logger)
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Deps{
			Logger:      logger,
			Store:       store,
			Hub:         hub,
			Metrics:     m,
			Gatherer:    reg,
			AuthLimiter: limiter,
			JWT: handlers.JWTConfig{
				Secret:         []byte(cfg.Server.JWTSecret),
				AccessTokenTTL: cfg.Server.TokenTTL,
			},
			MetricsPath: cfg.Server.MetricsPath,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// websocket соединения hijacked, Shutdown их не ждет
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("LedgerSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
