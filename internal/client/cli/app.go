package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iudanet/ledgersync/internal/breaker"
	apiclient "github.com/iudanet/ledgersync/internal/client/api"
	"github.com/iudanet/ledgersync/internal/client/auth"
	"github.com/iudanet/ledgersync/internal/client/conflict"
	"github.com/iudanet/ledgersync/internal/client/connectivity"
	"github.com/iudanet/ledgersync/internal/client/data"
	"github.com/iudanet/ledgersync/internal/client/iocli"
	"github.com/iudanet/ledgersync/internal/client/queue"
	"github.com/iudanet/ledgersync/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/ledgersync/internal/client/sync"
	"github.com/iudanet/ledgersync/internal/client/transport"
	"github.com/iudanet/ledgersync/internal/config"
	"github.com/iudanet/ledgersync/internal/metrics"
)

// App - собранные зависимости клиента для одной команды.
type App struct {
	Config           *config.Config
	Logger           *slog.Logger
	Store            *boltdb.Storage
	API              *apiclient.Client
	Auth             *auth.Service
	Monitor          *connectivity.Monitor
	Breaker          *breaker.Breaker // REST запросы очереди
	TransportBreaker *breaker.Breaker // websocket подключение, только для watch
	Metrics          *metrics.Metrics
	Registry         *prometheus.Registry
	Transport        *transport.Transport // только для watch
	Engine           *clientsync.Engine
	Data             *data.Service
	Prompt           iocli.Prompter
	Out              *Output
}

// loadConfig reads .env, the YAML file and the environment, then applies flags.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.ServerURL != "" {
		cfg.Client.ServerURL = opts.ServerURL
	}
	if opts.DBPath != "" {
		cfg.Client.DBPath = opts.DBPath
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// openApp builds the client. With live set it also creates the websocket
// transport, so that the engine receives pushes.
func openApp(ctx context.Context, cmd *cobra.Command, opts *RootOptions, live bool) (*App, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr())

	store, err := boltdb.New(ctx, cfg.Client.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Prompt:   opts.Prompt,
		Out:      newOutput(cmd, opts),
		Registry: prometheus.NewRegistry(),
	}
	if app.Prompt == nil {
		app.Prompt = iocli.NewTerminal()
	}

	if err := app.wire(ctx, live); err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, live bool) error {
	cfg := a.Config

	nodeID, err := a.Store.GetOrCreateNodeID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load node id: %w", err)
	}

	a.Metrics, err = metrics.New(a.Registry)
	if err != nil {
		return err
	}

	// у очереди и транспорта свои счетчики отказов: успешный REST не должен
	// сбрасывать неудачи websocket рукопожатия и наоборот
	a.Breaker = a.newBreaker("rest")

	a.API = apiclient.NewClient(cfg.Client.ServerURL,
		apiclient.WithDeviceID(nodeID),
		apiclient.WithTokenSource(apiclient.TokenFunc(a.token)),
		apiclient.WithTimeout(cfg.Client.Transport.RequestTimeout),
	)
	a.Auth = auth.NewService(a.API, a.Store, a.Logger)

	// сеть считается недоступной, пока sync или watch не проверят сервер
	a.Monitor = connectivity.NewMonitor(false, a.Logger)

	policy, err := conflict.PolicyFromConfig(cfg.Client.Conflicts)
	if err != nil {
		return err
	}
	engineCfg := clientsync.DefaultConfig()
	engineCfg.Policy = policy
	engineCfg.Queue = queue.Config{
		MaxRetries:      cfg.Client.Queue.MaxRetries,
		RetryBaseDelay:  cfg.Client.Queue.RetryBaseDelay,
		RetryMaxDelay:   cfg.Client.Queue.RetryMaxDelay,
		ProcessInterval: cfg.Client.Queue.ProcessInterval,
	}
	engineCfg.DedupeTTL = cfg.Client.DedupeTTL
	engineCfg.RequestTimeout = cfg.Client.Transport.RequestTimeout

	engineOpts := []clientsync.Option{
		clientsync.WithBreaker(a.Breaker),
		clientsync.WithMetrics(a.Metrics),
	}

	if live {
		wsURL, err := transport.WebSocketURL(cfg.Client.ServerURL, cfg.Client.WSPath)
		if err != nil {
			return err
		}
		tc := cfg.Client.Transport
		a.TransportBreaker = a.newBreaker("websocket")
		a.Transport = transport.New(transport.Config{
			URL:                  wsURL,
			PingInterval:         tc.PingInterval,
			PongTimeout:          tc.PongTimeout,
			ReconnectDelay:       tc.ReconnectDelay,
			MaxReconnectDelay:    tc.MaxReconnectDelay,
			RequestTimeout:       tc.RequestTimeout,
			MaxReconnectAttempts: tc.MaxReconnectAttempts,
			OutboxLimit:          tc.OutboxLimit,
			SubscriberBuffer:     tc.SubscriberBuffer,
		}, transport.NewWebsocketDialer(tc.RequestTimeout), a.Logger,
			transport.WithBreaker(a.TransportBreaker),
			transport.WithMetrics(a.Metrics),
			transport.WithHeader(func(ctx context.Context) (http.Header, error) {
				h := http.Header{}
				h.Set(apiclient.DeviceIDHeader, nodeID)
				token, err := a.token(ctx)
				if err != nil {
					return nil, err
				}
				if token != "" {
					h.Set("Authorization", "Bearer "+token)
				}
				return h, nil
			}),
		)
		engineOpts = append(engineOpts, clientsync.WithTransport(a.Transport))
	}

	a.Engine = clientsync.NewEngine(a.Store, a.API, a.Monitor, engineCfg, a.Logger, engineOpts...)
	a.Data = data.NewService(a.Engine)
	return nil
}

// newBreaker создает breaker с общими настройками; name - метка в логах и метриках.
func (a *App) newBreaker(name string) *breaker.Breaker {
	return breaker.New(breaker.Config{
		FailureThreshold: a.Config.Client.Breaker.FailureThreshold,
		ResetTimeout:     a.Config.Client.Breaker.ResetTimeout,
	}, breaker.WithStateListener(func(from, to breaker.State) {
		a.Logger.Info("Circuit breaker state changed", "breaker", name, "from", from, "to", to)
		a.Metrics.BreakerTransition(name, int(to), from.String(), to.String())
	}))
}

// token - источник токена для API клиента. Без сессии запросы уходят
// без Authorization: register и login работают до входа, остальное
// получит 401 от сервера.
func (a *App) token(ctx context.Context) (string, error) {
	token, err := a.Auth.Token(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, auth.ErrSessionExpired) {
		return "", nil
	}
	return token, err
}

// CheckServer проверяет сервер и обновляет состояние сети.
func (a *App) CheckServer(ctx context.Context) bool {
	err := a.API.Health(ctx)
	if err != nil {
		a.Logger.Debug("Server unreachable", "error", err)
	}
	a.Monitor.SetOnline(err == nil)
	return err == nil
}

// Close stops background work and closes the database.
func (a *App) Close() {
	a.Engine.Dispose()
	if a.Transport != nil {
		a.Transport.Dispose()
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close database", "error", err)
	}
}

// withApp runs fn with an opened App and closes it afterwards.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx, cmd, opts, false)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
