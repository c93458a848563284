// Package bootstrap opens the backends selected in the configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jwalitptl/maintenance-desk/internal/config"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	"github.com/jwalitptl/maintenance-desk/internal/repository/memory"
	"github.com/jwalitptl/maintenance-desk/internal/repository/postgres"
	rediskv "github.com/jwalitptl/maintenance-desk/internal/repository/redis"
	"github.com/jwalitptl/maintenance-desk/internal/repository/sqlite"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging"
	membroker "github.com/jwalitptl/maintenance-desk/pkg/messaging/memory"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging/nats"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging/redis"
)

func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.JSON,
	})
}

// Resources tracks what was opened so it can be closed in reverse order.
type Resources struct {
	cfg    *config.Config
	logger *logger.Logger

	db      *sqlx.DB
	redis   *goredis.Client
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func NewResources(cfg *config.Config, logger *logger.Logger) *Resources {
	return &Resources{cfg: cfg, logger: logger}
}

func (r *Resources) onClose(name string, fn func() error) {
	r.closers = append(r.closers, namedCloser{name: name, close: fn})
}

// Close releases every opened backend, most recent first.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if err := c.close(); err != nil {
			r.logger.Error(err, "Failed to close backend", "backend", c.name)
		}
	}
	r.closers = nil
}

// DB opens the Postgres pool once.
func (r *Resources) DB() (*sqlx.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := postgres.NewDB(r.cfg.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.onClose("postgres", db.Close)
	return db, nil
}

// Redis opens the Redis client once; the feed and the KV store share it.
func (r *Resources) Redis(ctx context.Context) (*goredis.Client, error) {
	if r.redis != nil {
		return r.redis, nil
	}
	client, err := redis.NewClient(ctx, r.cfg.Redis.ToBrokerConfig())
	if err != nil {
		return nil, err
	}
	r.redis = client
	r.onClose("redis", client.Close)
	return client, nil
}

// Broker returns the change feed broker named by feed.backend.
func (r *Resources) Broker(ctx context.Context) (messaging.Broker, error) {
	var (
		broker messaging.Broker
		err    error
	)
	switch r.cfg.Feed.Backend {
	case config.BackendMemory:
		broker = membroker.NewBroker()
	case config.BackendRedis:
		client, cerr := r.Redis(ctx)
		if cerr != nil {
			return nil, cerr
		}
		broker = redis.NewRedisBroker(client, r.logger)
	case config.BackendNATS:
		broker, err = nats.NewNATSBroker(r.cfg.NATS.ToBrokerConfig(), r.logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported feed backend %q", r.cfg.Feed.Backend)
	}

	r.onClose("feed", broker.Close)
	r.logger.Info("Change feed ready", "backend", r.cfg.Feed.Backend, "topic", r.cfg.Feed.Topic)
	return broker, nil
}

// KVStore returns the notification log storage named by storage.backend.
func (r *Resources) KVStore(ctx context.Context) (repository.KVStore, error) {
	var kv repository.KVStore
	switch r.cfg.Storage.Backend {
	case config.BackendMemory:
		kv = memory.NewKVStore()
	case config.BackendSQLite:
		store, err := sqlite.NewKVStore(r.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		r.onClose("sqlite", store.Close)
		kv = store
	case config.BackendRedis:
		client, err := r.Redis(ctx)
		if err != nil {
			return nil, err
		}
		kv = rediskv.NewKVStore(client, r.cfg.Storage.RedisPrefix)
	case config.BackendPostgres:
		db, err := r.DB()
		if err != nil {
			return nil, err
		}
		kv = postgres.NewKVStore(postgres.NewBaseRepository(db))
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", r.cfg.Storage.Backend)
	}

	r.logger.Info("Notification storage ready", "backend", r.cfg.Storage.Backend)
	return kv, nil
}
