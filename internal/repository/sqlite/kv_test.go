package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

func newTestStore(t *testing.T, path string) *KVStore {
	t.Helper()

	s, err := NewKVStore(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func TestKVStoreMissingKey(t *testing.T) {
	s := newTestStore(t, ":memory:")

	_, err := s.Get(context.Background(), "notifications:u1")
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)
}

func TestKVStoreOverwrite(t *testing.T) {
	s := newTestStore(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "one"))
	require.NoError(t, s.Set(ctx, "k", "two"))

	value, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	first, err := NewKVStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "notifications:u1", `[{"title":"x"}]`))
	require.NoError(t, first.Close())

	second := newTestStore(t, path)
	value, err := second.Get(ctx, "notifications:u1")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"x"}]`, value)
}
