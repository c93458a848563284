package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
feed:
  backend: nats
  topic: order-comments
storage:
  backend: sqlite
  sqlite_path: /tmp/desk.db
session:
  idle_timeout: 10m
  dedup_window: 90s
jwt:
  secret: file-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendNATS, cfg.Feed.Backend)
	assert.Equal(t, "order-comments", cfg.Feed.Topic)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/desk.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 90*time.Second, cfg.Session.DedupWindow)
	// untouched sections keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
jwt:
  secret: file-secret
`)
	t.Setenv("MDESK_DATABASE_HOST", "db.override")
	t.Setenv("MDESK_JWT_SECRET", "env-secret")
	t.Setenv("MDESK_SESSION_IDLE_TIMEOUT", "15m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("MDESK_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Feed.Backend)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Feed:      FeedConfig{Backend: BackendRedis, Topic: "comments"},
			Storage:   StorageConfig{Backend: BackendPostgres},
			Session:   SessionConfig{IdleTimeout: 10 * time.Minute},
			JWT:       JWTConfig{Secret: "s"},
			Outbox:    OutboxConfig{BatchSize: 10, PollInterval: time.Second},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown feed", func(c *Config) { c.Feed.Backend = "kafka" }, true},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, true},
		{"missing topic", func(c *Config) { c.Feed.Topic = "" }, true},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }, true},
		{"zero batch", func(c *Config) { c.Outbox.BatchSize = 0 }, true},
		{"rate limit disabled ignores rps", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: false}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
