// Package config loads client and server settings from YAML, .env files and
// LEDGERSYNC_* environment variables (in increasing priority).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix - префикс переменных окружения
const EnvPrefix = "LEDGERSYNC_"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

// LogConfig - настройки slog.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type ClientConfig struct {
	// Conflicts - политика разрешения по типу конфликта, например fieldConflict: latestWins
	Conflicts   map[string]string `yaml:"conflicts"`
	ServerURL   string            `yaml:"server_url"`
	WSPath      string            `yaml:"ws_path"`
	DBPath      string            `yaml:"db_path"`
	MetricsAddr string            `yaml:"metrics_addr"` // пусто - метрики не публикуются
	Queue       QueueConfig       `yaml:"queue"`
	Transport   TransportConfig   `yaml:"transport"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	DedupeTTL   time.Duration     `yaml:"dedupe_ttl"` // окно подавления повторных push уведомлений
}

type QueueConfig struct {
	MaxRetries      int           `yaml:"max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay"`
	ProcessInterval time.Duration `yaml:"process_interval"` // период фоновой попытки отправки
}

type TransportConfig struct {
	PingInterval         time.Duration `yaml:"ping_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay    time.Duration `yaml:"max_reconnect_delay"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	OutboxLimit          int           `yaml:"outbox_limit"`
	SubscriberBuffer     int           `yaml:"subscriber_buffer"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	DSN             string        `yaml:"dsn"`
	JWTSecret       string        `yaml:"jwt_secret"`
	MetricsPath     string        `yaml:"metrics_path"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AuthRateWindow  time.Duration `yaml:"auth_rate_window"`
	AuthRateLimit   int           `yaml:"auth_rate_limit"` // запросов к /auth с одного адреса за окно; 0 - без лимита
}

// Default возвращает конфигурацию, используемую, когда ничего не задано.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
			WSPath:    "/api/v1/ws",
			DBPath:    "ledgersync.db",
			Queue: QueueConfig{
				MaxRetries:      5,
				RetryBaseDelay:  2 * time.Second,
				RetryMaxDelay:   5 * time.Minute,
				ProcessInterval: 30 * time.Second,
			},
			Transport: TransportConfig{
				PingInterval:         30 * time.Second,
				PongTimeout:          10 * time.Second,
				ReconnectDelay:       time.Second,
				MaxReconnectDelay:    30 * time.Second,
				MaxReconnectAttempts: 10,
				RequestTimeout:       15 * time.Second,
				OutboxLimit:          1000,
				SubscriberBuffer:     64,
			},
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
			DedupeTTL: time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			DSN:             "ledgersync-server.db",
			MetricsPath:     "/metrics",
			TokenTTL:        24 * time.Hour,
			ShutdownTimeout: 10 * time.Second,
			AuthRateWindow:  time.Minute,
			AuthRateLimit:   20,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDotEnv loads .env files into the process environment.
// Missing files are skipped, variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FORMAT":   &c.Log.Format,
		"SERVER_URL":   &c.Client.ServerURL,
		"WS_PATH":      &c.Client.WSPath,
		"DB_PATH":      &c.Client.DBPath,
		"METRICS_ADDR": &c.Client.MetricsAddr,
		"LISTEN_ADDR":  &c.Server.Addr,
		"DSN":          &c.Server.DSN,
		"JWT_SECRET":   &c.Server.JWTSecret,
	}
	for key, dst := range strs {
		if v, ok := getEnvStr(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"QUEUE_MAX_RETRIES":           &c.Client.Queue.MaxRetries,
		"MAX_RECONNECT_ATTEMPTS":      &c.Client.Transport.MaxReconnectAttempts,
		"BREAKER_FAILURE_THRESHOLD":   &c.Client.Breaker.FailureThreshold,
		"TRANSPORT_OUTBOX_LIMIT":      &c.Client.Transport.OutboxLimit,
		"TRANSPORT_SUBSCRIBER_BUFFER": &c.Client.Transport.SubscriberBuffer,
		"AUTH_RATE_LIMIT":             &c.Server.AuthRateLimit,
	}
	for key, dst := range ints {
		if v, ok := getEnvStr(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"PING_INTERVAL":         &c.Client.Transport.PingInterval,
		"PONG_TIMEOUT":          &c.Client.Transport.PongTimeout,
		"RECONNECT_DELAY":       &c.Client.Transport.ReconnectDelay,
		"MAX_RECONNECT_DELAY":   &c.Client.Transport.MaxReconnectDelay,
		"REQUEST_TIMEOUT":       &c.Client.Transport.RequestTimeout,
		"BREAKER_RESET_TIMEOUT": &c.Client.Breaker.ResetTimeout,
		"QUEUE_RETRY_BASE":      &c.Client.Queue.RetryBaseDelay,
		"QUEUE_RETRY_MAX":       &c.Client.Queue.RetryMaxDelay,
		"TOKEN_TTL":             &c.Server.TokenTTL,
	}
	for key, dst := range durations {
		if v, ok := getEnvStr(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	return nil
}

// Validate проверяет значения, которые сломали бы движок во время работы.
func (c *Config) Validate() error {
	var errs []error

	if c.Client.Queue.MaxRetries < 0 {
		errs = append(errs, errors.New("client.queue.max_retries must not be negative"))
	}
	if c.Client.Transport.PingInterval <= 0 || c.Client.Transport.PongTimeout <= 0 {
		errs = append(errs, errors.New("client.transport ping_interval and pong_timeout must be positive"))
	}
	if c.Client.Transport.ReconnectDelay <= 0 || c.Client.Transport.MaxReconnectDelay < c.Client.Transport.ReconnectDelay {
		errs = append(errs, errors.New("client.transport.max_reconnect_delay must be >= reconnect_delay > 0"))
	}
	if c.Client.Breaker.FailureThreshold <= 0 {
		errs = append(errs, errors.New("client.breaker.failure_threshold must be positive"))
	}
	for conflictType, strategy := range c.Client.Conflicts {
		switch strategy {
		case "localWins", "remoteWins", "latestWins", "merge", "manual":
		default:
			errs = append(errs, fmt.Errorf("client.conflicts.%s: unknown strategy %q", conflictType, strategy))
		}
	}
	if c.Server.AuthRateLimit < 0 || (c.Server.AuthRateLimit > 0 && c.Server.AuthRateWindow <= 0) {
		errs = append(errs, errors.New("server.auth_rate_window must be positive when auth_rate_limit is set"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
