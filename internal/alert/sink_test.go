package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/maintenance-desk/pkg/logger"
)

func TestBufferDrain(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	b := NewBuffer(0, func() time.Time { return at })

	b.Raise("Novo comentário", "OS-1")
	b.Raise("Novo comentário", "OS-2")

	alerts := b.Drain()
	require.Len(t, alerts, 2)
	assert.Equal(t, "OS-1", alerts[0].Message)
	assert.Equal(t, "OS-2", alerts[1].Message)
	assert.Equal(t, at, alerts[0].RaisedAt)

	assert.Empty(t, b.Drain())
	assert.NotNil(t, b.Drain())
}

func TestBufferDropsOldest(t *testing.T) {
	b := NewBuffer(2, nil)

	b.Raise("a", "1")
	b.Raise("b", "2")
	b.Raise("c", "3")

	alerts := b.Drain()
	require.Len(t, alerts, 2)
	assert.Equal(t, "b", alerts[0].Title)
	assert.Equal(t, "c", alerts[1].Title)
}

func TestMulti(t *testing.T) {
	first := NewBuffer(10, nil)
	second := NewBuffer(10, nil)
	sink := Multi(first, second, NewLogSink(logger.Nop()))

	sink.Raise("t", "m")

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())
}
