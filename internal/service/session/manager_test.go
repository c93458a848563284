package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/maintenance-desk/internal/repository/memory"
	"github.com/jwalitptl/maintenance-desk/internal/service/comment"
	"github.com/jwalitptl/maintenance-desk/internal/service/notification"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	membroker "github.com/jwalitptl/maintenance-desk/pkg/messaging/memory"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

type labelResolver struct{}

func (labelResolver) ResolveOrderLabel(context.Context, string) (string, error) {
	return "OS-0001", nil
}

type refusingBroker struct {
	*membroker.Broker
}

func (refusingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("connection refused")
}

type managerFixture struct {
	broker  *membroker.Broker
	kv      *memory.KVStore
	clock   *clock.FakeClock
	manager *Manager
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		broker: membroker.NewBroker(),
		kv:     memory.NewKVStore(),
		clock:  clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
	}
	f.manager = NewManager(f.broker, labelResolver{}, f.kv, f.clock, Config{}, logger.Nop(), metrics.NewTestMetrics())
	t.Cleanup(f.manager.Close)
	return f
}

func TestLoginStartsWatcherAndWatchdog(t *testing.T) {
	f := newManagerFixture(t)

	s, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)

	again, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, s, again)

	state, err := f.manager.State("u1")
	require.NoError(t, err)
	assert.True(t, state.Subscribed)
	assert.True(t, state.Watchdog.Armed)
	assert.Equal(t, 1, f.broker.Subscribers(comment.DefaultTopic))
}

func TestLoginFailsWhenFeedUnavailable(t *testing.T) {
	kv := memory.NewKVStore()
	m := NewManager(refusingBroker{membroker.NewBroker()}, labelResolver{}, kv, clock.Fake(time.Now()), Config{}, logger.Nop(), metrics.NewTestMetrics())

	_, err := m.Login(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrSubscriptionSetup))
	_, err = m.Get("u1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLogoutTearsDown(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout("u1"))

	assert.True(t, apperrors.IsNotFound(f.manager.Logout("u1")))
	assert.Equal(t, 0, f.clock.PendingCount())
	assert.Eventually(t, func() bool { return f.broker.Subscribers(comment.DefaultTopic) == 0 }, time.Second, 5*time.Millisecond)
}

func TestIdleExpiryEndsSession(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)

	f.clock.Advance(9 * time.Minute)
	require.NoError(t, f.manager.Activity("u1", SignalKeyPress))
	f.clock.Advance(9 * time.Minute)
	_, err = f.manager.Get("u1")
	require.NoError(t, err, "activity at 9m keeps the session alive")

	f.clock.Advance(time.Minute)

	_, err = f.manager.Get("u1")
	assert.True(t, apperrors.IsNotFound(err))
	_, signedIn := s.CurrentUserID()
	assert.False(t, signedIn)

	alerts, err := f.manager.Alerts("u1")
	require.NoError(t, err, "alerts of an ended session stay readable")
	require.Len(t, alerts, 1)
	assert.Equal(t, ExpiredAlertTitle, alerts[0].Title)

	state, err := f.manager.State("u1")
	require.NoError(t, err)
	assert.Equal(t, AuthPath, state.RedirectTo)
	_, err = f.manager.State("u1")
	assert.True(t, apperrors.IsNotFound(err), "redirect is reported once")

	// the durable trail survives into the next session
	store := notification.NewService(context.Background(), f.kv, notification.StorageKey("u1"), logger.Nop(), metrics.NewTestMetrics())
	records := store.List()
	require.Len(t, records, 1)
	assert.Equal(t, EndedNotificationTitle, records[0].Title)
}

func TestEndedStateCarriesPendingAlerts(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	state, err := f.manager.State("u1")
	require.NoError(t, err)
	assert.Equal(t, AuthPath, state.RedirectTo)
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, ExpiredAlertTitle, state.Alerts[0].Title)
	assert.Equal(t, ExpiredAlertMessage, state.Alerts[0].Message)

	_, err = f.manager.Alerts("u1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReloginDiscardsEndedAlerts(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	_, err = f.manager.Login(context.Background(), "u1")
	require.NoError(t, err)

	alerts, err := f.manager.Alerts("u1")
	require.NoError(t, err)
	assert.Empty(t, alerts)
	state, err := f.manager.State("u1")
	require.NoError(t, err)
	assert.Empty(t, state.RedirectTo)
}

// stallingBroker holds Subscribe calls while stall is set.
type stallingBroker struct {
	*membroker.Broker
	stall   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (b *stallingBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if b.stall.Load() {
		b.entered <- struct{}{}
		<-b.release
	}
	return b.Broker.Subscribe(ctx, channel)
}

func returnsWithin(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("call blocked behind a pending login")
	}
}

func TestSlowLoginDoesNotBlockOtherSessions(t *testing.T) {
	broker := &stallingBroker{
		Broker:  membroker.NewBroker(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	clk := clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	m := NewManager(broker, labelResolver{}, memory.NewKVStore(), clk, Config{}, logger.Nop(), metrics.NewTestMetrics())
	t.Cleanup(m.Close)

	_, err := m.Login(context.Background(), "u1")
	require.NoError(t, err)

	broker.stall.Store(true)
	loginErr := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "u2")
		loginErr <- err
	}()
	<-broker.entered

	returnsWithin(t, time.Second, func() {
		_, err := m.Get("u1")
		assert.NoError(t, err)
		_, err = m.State("u1")
		assert.NoError(t, err)
		assert.NoError(t, m.Activity("u1", SignalPointerMove))
	})
	returnsWithin(t, time.Second, func() {
		clk.Advance(10 * time.Minute)
	})
	_, err = m.Get("u1")
	assert.True(t, apperrors.IsNotFound(err), "u1 expired while u2 was still logging in")

	broker.stall.Store(false)
	close(broker.release)
	require.NoError(t, <-loginErr)
	_, err = m.Get("u2")
	assert.NoError(t, err)
}

func TestActivityUnknownSession(t *testing.T) {
	f := newManagerFixture(t)
	assert.True(t, apperrors.IsNotFound(f.manager.Activity("nobody", SignalScroll)))
}

func TestLoginRequiresUser(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.Login(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))
}
