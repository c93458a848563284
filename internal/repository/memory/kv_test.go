package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

func TestKVStore(t *testing.T) {
	s := NewKVStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	value, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}
