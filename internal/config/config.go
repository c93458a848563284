package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/maintenance-desk/pkg/messaging/nats"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging/redis"
	"github.com/jwalitptl/maintenance-desk/pkg/worker"
)

// EnvPrefix prefixes environment overrides, e.g. MDESK_DATABASE_HOST or
// MDESK_SESSION_IDLE_TIMEOUT.
const EnvPrefix = "MDESK"

// Feed and storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendNATS     = "nats"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" split_words:"true"`
	Database  DatabaseConfig  `mapstructure:"database" split_words:"true"`
	Redis     RedisConfig     `mapstructure:"redis" split_words:"true"`
	NATS      NATSConfig      `mapstructure:"nats" split_words:"true"`
	Feed      FeedConfig      `mapstructure:"feed" split_words:"true"`
	Storage   StorageConfig   `mapstructure:"storage" split_words:"true"`
	Session   SessionConfig   `mapstructure:"session" split_words:"true"`
	JWT       JWTConfig       `mapstructure:"jwt" split_words:"true"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	Outbox    OutboxConfig    `mapstructure:"outbox" split_words:"true"`
	Log       LogConfig       `mapstructure:"log" split_words:"true"`
	Metrics   MetricsConfig   `mapstructure:"metrics" split_words:"true"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" split_words:"true"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	// AllowedOrigins are the dashboard origins accepted by CORS.
	AllowedOrigins  []string      `mapstructure:"allowed_origins" split_words:"true"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" split_words:"true"`
	Port         int    `mapstructure:"port" split_words:"true"`
	User         string `mapstructure:"user" split_words:"true"`
	Password     string `mapstructure:"password" split_words:"true"`
	Name         string `mapstructure:"name" split_words:"true"`
	SSLMode      string `mapstructure:"sslmode" split_words:"true"`
	MaxOpenConns int    `mapstructure:"max_open_conns" split_words:"true"`
	AutoMigrate  bool   `mapstructure:"auto_migrate" split_words:"true"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url" split_words:"true"`
	Name          string        `mapstructure:"name" split_words:"true"`
	MaxReconnects int           `mapstructure:"max_reconnects" split_words:"true"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" split_words:"true"`
}

// FeedConfig selects the broker carrying the comment change feed.
type FeedConfig struct {
	Backend string `mapstructure:"backend" split_words:"true"`
	Topic   string `mapstructure:"topic" split_words:"true"`
}

// StorageConfig selects the key-value surface of the notification log.
type StorageConfig struct {
	Backend     string `mapstructure:"backend" split_words:"true"`
	SQLitePath  string `mapstructure:"sqlite_path" envconfig:"SQLITE_PATH"`
	RedisPrefix string `mapstructure:"redis_prefix" split_words:"true"`
}

type SessionConfig struct {
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" split_words:"true"`
	DedupWindow    time.Duration `mapstructure:"dedup_window" split_words:"true"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout" split_words:"true"`
	OrderCacheTTL  time.Duration `mapstructure:"order_cache_ttl" split_words:"true"`
	AlertBuffer    int           `mapstructure:"alert_buffer" split_words:"true"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" split_words:"true"`
	Issuer      string `mapstructure:"issuer" split_words:"true"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" split_words:"true"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst" split_words:"true"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval  time.Duration `mapstructure:"poll_interval" split_words:"true"`
	RetryAttempts int           `mapstructure:"retry_attempts" split_words:"true"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" split_words:"true"`
	Retention     time.Duration `mapstructure:"retention" split_words:"true"`
}

type LogConfig struct {
	Level string `mapstructure:"level" split_words:"true"`
	JSON  bool   `mapstructure:"json" split_words:"true"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" split_words:"true"`
	Path      string `mapstructure:"path" split_words:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", "100ms")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.name", "maintenance-desk")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")

	v.SetDefault("feed.backend", BackendMemory)
	v.SetDefault("feed.topic", "comments")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.sqlite_path", "maintenance-desk.db")
	v.SetDefault("storage.redis_prefix", "mdesk:")

	v.SetDefault("session.idle_timeout", "10m")
	v.SetDefault("session.dedup_window", "5m")
	v.SetDefault("session.resolve_timeout", "10s")
	v.SetDefault("session.order_cache_ttl", "1m")
	v.SetDefault("session.alert_buffer", 50)

	v.SetDefault("jwt.issuer", "maintenance-desk")
	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", "1s")
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", "500ms")
	v.SetDefault("outbox.retention", "168h")

	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.namespace", "mdesk")
	v.SetDefault("metrics.path", "/metrics")
}

// LoadConfig reads config.yml from path (or ".", "./config" when path is
// empty), then applies MDESK_* environment overrides. A missing file is
// not an error; defaults and the environment still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Feed.Backend {
	case BackendMemory, BackendRedis, BackendNATS:
	default:
		return fmt.Errorf("invalid feed backend %q", c.Feed.Backend)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}
	if c.Feed.Topic == "" {
		return errors.New("feed topic is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("session idle timeout must be positive")
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.PollInterval <= 0 {
		return errors.New("outbox batch size and poll interval must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("rate limit requests per second must be positive")
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig(topic string) worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Topic:         topic,
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		Retention:     c.Retention,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *NATSConfig) ToBrokerConfig() nats.Config {
	return nats.Config{
		URL:           c.URL,
		Name:          c.Name,
		MaxReconnects: c.MaxReconnects,
		ReconnectWait: c.ReconnectWait,
	}
}
