package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/maintenance-desk/internal/config"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	membroker "github.com/jwalitptl/maintenance-desk/pkg/messaging/memory"
)

func TestMemoryBackends(t *testing.T) {
	cfg := &config.Config{
		Feed:    config.FeedConfig{Backend: config.BackendMemory, Topic: "comments"},
		Storage: config.StorageConfig{Backend: config.BackendMemory},
	}
	res := NewResources(cfg, logger.Nop())
	defer res.Close()

	broker, err := res.Broker(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &membroker.Broker{}, broker)

	kv, err := res.KVStore(context.Background())
	require.NoError(t, err)
	_, err = kv.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.db")
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: path}}
	ctx := context.Background()

	res := NewResources(cfg, logger.Nop())
	kv, err := res.KVStore(ctx)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "notifications:u1", `[]`))
	res.Close()

	res = NewResources(cfg, logger.Nop())
	defer res.Close()
	kv, err = res.KVStore(ctx)
	require.NoError(t, err)
	got, err := kv.Get(ctx, "notifications:u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

func TestUnknownBackends(t *testing.T) {
	cfg := &config.Config{
		Feed:    config.FeedConfig{Backend: "kafka"},
		Storage: config.StorageConfig{Backend: "s3"},
	}
	res := NewResources(cfg, logger.Nop())

	_, err := res.Broker(context.Background())
	assert.Error(t, err)
	_, err = res.KVStore(context.Background())
	assert.Error(t, err)
}
