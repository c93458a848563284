package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "comments")
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), "comments", map[string]string{"id": "c1"}))
	require.NoError(t, b.Publish(context.Background(), "comments", []byte(`raw`)))
	require.NoError(t, b.Publish(context.Background(), "other", []byte(`ignored`)))

	assert.JSONEq(t, `{"id":"c1"}`, string(<-ch))
	assert.Equal(t, "raw", string(<-ch))
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "comments")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, b.Subscribers("comments"))
	assert.NoError(t, b.Publish(context.Background(), "comments", []byte("x")))
}

func TestClosedBroker(t *testing.T) {
	b := NewBroker()
	require.NoError(t, b.Close())

	_, err := b.Subscribe(context.Background(), "comments")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Publish(context.Background(), "comments", []byte("x")), ErrClosed)
}
