package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"HTTP_PORT" envDefault:"8080"`
}

// GRPC holds gRPC health server configuration.
type GRPC struct {
	Enabled bool   `env:"GRPC_ENABLED" envDefault:"true"`
	Host    string `env:"GRPC_HOST" envDefault:"0.0.0.0"`
	Port    int    `env:"GRPC_PORT" envDefault:"9090"`
}

// Auth holds the shared API key checked on every protected request. An empty
// key rejects all protected requests.
type Auth struct {
	APIKey string `env:"API_KEY"`
	Header string `env:"API_KEY_HEADER" envDefault:"X-API-Key"`
}

// Security configures CORS and rate limiting at the HTTP boundary.
type Security struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"https://localhost" envSeparator:","`
	RateLimit      RateLimit
}

// RateLimit bounds requests per API key.
type RateLimit struct {
	Enabled           bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	Burst             int           `env:"RATE_LIMIT_BURST" envDefault:"100"`
	ExpiresIn         time.Duration `env:"RATE_LIMIT_EXPIRES_IN" envDefault:"3m"`
}

// ERP names the upstream sales order service the repository is bound to.
type ERP struct {
	Endpoint string `env:"ERP_ENDPOINT" envDefault:"API_SALES_ORDER_SRV/A_SalesOrder"`
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool          `env:"CACHE_ENABLED" envDefault:"false"`
	Driver     string        `env:"CACHE_DRIVER" envDefault:"redis"`
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"5m"`
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Messaging configures the message bus used by the application.
type Messaging struct {
	Driver        string `env:"MESSAGING_DRIVER" envDefault:"kafka"`
	Enabled       bool   `env:"MESSAGING_ENABLED" envDefault:"false"`
	Kafka         Kafka
	ConsumerGroup string `env:"KAFKA_CONSUMER_GROUP" envDefault:"salesorder-worker"`
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string      `env:"KAFKA_BROKERS" envDefault:"127.0.0.1:9092" envSeparator:","`
	ClientID       string        `env:"KAFKA_CLIENT_ID" envDefault:"salesorder-service"`
	Topic          string        `env:"KAFKA_TOPIC" envDefault:"salesorders.events"`
	CommitInterval time.Duration `env:"KAFKA_COMMIT_INTERVAL" envDefault:"1s"`
	MinBytes       int           `env:"KAFKA_MIN_BYTES" envDefault:"10000"`
	MaxBytes       int           `env:"KAFKA_MAX_BYTES" envDefault:"10000000"`
	ConnectTimeout time.Duration `env:"KAFKA_CONNECT_TIMEOUT" envDefault:"5s"`
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool          `env:"WORKER_ENABLED" envDefault:"true"`
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"1s"`
	Concurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName      string  `env:"OBS_SERVICE_NAME" envDefault:"salesorder"`
	Environment      string  `env:"OBS_ENVIRONMENT" envDefault:"local"`
	LogLevel         string  `env:"OBS_LOG_LEVEL" envDefault:"info"`
	LogEncoding      string  `env:"OBS_LOG_ENCODING" envDefault:"json"`
	EnableTracing    bool    `env:"OBS_ENABLE_TRACING" envDefault:"true"`
	TraceExporter    string  `env:"OBS_TRACE_EXPORTER" envDefault:"stdout"`
	TraceEndpoint    string  `env:"OBS_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TraceInsecure    bool    `env:"OBS_OTLP_INSECURE" envDefault:"true"`
	TraceSampleRatio float64 `env:"OBS_TRACE_SAMPLE_RATIO" envDefault:"1"`
	EnableMetrics    bool    `env:"OBS_ENABLE_METRICS" envDefault:"true"`
	MetricsExporter  string  `env:"OBS_METRICS_EXPORTER" envDefault:"prometheus"`
	PrometheusPath   string  `env:"OBS_PROMETHEUS_PATH" envDefault:"/metrics"`
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Auth          Auth
	Security      Security
	ERP           ERP
	Cache         Cache
	Messaging     Messaging
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New reads the environment, after loading a .env file once if present, and
// returns a normalised Config.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}
	if cfg.GRPC.Enabled && cfg.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", cfg.GRPC.Port)
	}

	cfg.Auth.APIKey = strings.TrimSpace(cfg.Auth.APIKey)
	cfg.Auth.Header = strings.TrimSpace(cfg.Auth.Header)
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = "X-API-Key"
	}

	cfg.Security.AllowedOrigins = cleanList(cfg.Security.AllowedOrigins, "https://localhost")
	rl := &cfg.Security.RateLimit
	if rl.RequestsPerMinute <= 0 {
		rl.RequestsPerMinute = 100
	}
	if rl.Burst <= 0 {
		rl.Burst = rl.RequestsPerMinute
	}
	if rl.ExpiresIn <= 0 {
		rl.ExpiresIn = 3 * time.Minute
	}

	cfg.ERP.Endpoint = strings.Trim(strings.TrimSpace(cfg.ERP.Endpoint), "/")
	if cfg.ERP.Endpoint == "" {
		return errors.New("missing ERP_ENDPOINT")
	}

	if err := cfg.normalizeCache(); err != nil {
		return err
	}
	if err := cfg.normalizeMessaging(); err != nil {
		return err
	}
	cfg.normalizeObservability()
	return nil
}

func (cfg *Config) normalizeCache() error {
	c := &cfg.Cache
	if !c.Enabled {
		c.Driver = "noop"
	}
	switch c.Driver {
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("missing REDIS_ADDR for redis cache")
		}
	case "noop":
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	return nil
}

func (cfg *Config) normalizeMessaging() error {
	m := &cfg.Messaging
	m.Kafka.Brokers = cleanList(m.Kafka.Brokers)
	if !m.Enabled {
		m.Driver = "noop"
	}
	switch m.Driver {
	case "kafka":
		switch {
		case len(m.Kafka.Brokers) == 0:
			return errors.New("KAFKA_BROKERS must be provided")
		case m.Kafka.Topic == "":
			return errors.New("KAFKA_TOPIC must be provided")
		case m.ConsumerGroup == "":
			return errors.New("KAFKA_CONSUMER_GROUP must be provided")
		}
	case "noop":
	default:
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
	if m.Workers.Concurrency <= 0 {
		m.Workers.Concurrency = 1
	}
	if m.Workers.PollInterval <= 0 {
		m.Workers.PollInterval = time.Second
	}
	return nil
}

func (cfg *Config) normalizeObservability() {
	o := &cfg.Observability
	o.LogLevel = lowerOr(o.LogLevel, "info")
	o.LogEncoding = lowerOr(o.LogEncoding, "json")
	o.TraceExporter = lowerOr(o.TraceExporter, "stdout")
	o.MetricsExporter = lowerOr(o.MetricsExporter, "prometheus")
	if o.TraceSampleRatio <= 0 || o.TraceSampleRatio > 1 {
		o.TraceSampleRatio = 1
	}
	switch {
	case o.PrometheusPath == "":
		o.PrometheusPath = "/metrics"
	case !strings.HasPrefix(o.PrometheusPath, "/"):
		o.PrometheusPath = "/" + o.PrometheusPath
	}
}

// cleanList trims entries, drops empty ones and falls back to defaults when
// nothing is left.
func cleanList(values []string, defaults ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

func lowerOr(value, fallback string) string {
	if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
		return value
	}
	return fallback
}
