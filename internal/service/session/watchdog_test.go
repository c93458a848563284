package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/maintenance-desk/internal/alert"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

type recorder struct {
	mu         sync.Mutex
	signOuts   int
	navigated  []string
	signOutErr error
}

func (r *recorder) SignOut(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signOuts++
	return r.signOutErr
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigated = append(r.navigated, path)
}

type watchdogFixture struct {
	clock    *clock.FakeClock
	bus      *ActivityBus
	rec      *recorder
	alerts   *alert.Buffer
	watchdog *Watchdog
}

func newWatchdogFixture() *watchdogFixture {
	f := &watchdogFixture{
		clock:  clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
		bus:    NewActivityBus(),
		rec:    &recorder{},
		alerts: alert.NewBuffer(10, nil),
	}
	f.watchdog = NewWatchdog(f.clock, f.bus, 0, f.rec, f.rec, f.alerts, logger.Nop(), metrics.NewTestMetrics())
	return f
}

func TestWatchdogExpiresAfterIdleTimeout(t *testing.T) {
	f := newWatchdogFixture()
	f.watchdog.Start()

	f.clock.Advance(10*time.Minute - time.Second)
	assert.Equal(t, 0, f.rec.signOuts)

	f.clock.Advance(time.Second)

	assert.Equal(t, 1, f.rec.signOuts)
	assert.Equal(t, []string{AuthPath}, f.rec.navigated)
	alerts := f.alerts.Drain()
	require.Len(t, alerts, 1)
	assert.Equal(t, ExpiredAlertTitle, alerts[0].Title)
}

func TestWatchdogActivityPushesDeadline(t *testing.T) {
	f := newWatchdogFixture()
	f.watchdog.Start()

	f.clock.Advance(9 * time.Minute)
	f.bus.Dispatch(SignalPointerMove)

	f.clock.Advance(time.Minute)
	assert.Equal(t, 0, f.rec.signOuts, "no expiry at t=10m")

	f.clock.Advance(9 * time.Minute)
	assert.Equal(t, 1, f.rec.signOuts, "expiry by t=19m")

	f.clock.Advance(time.Hour)
	assert.Equal(t, 1, f.rec.signOuts, "expiry fires once")
	assert.Len(t, f.rec.navigated, 1)
}

func TestWatchdogBurstKeepsSingleTimer(t *testing.T) {
	f := newWatchdogFixture()
	f.watchdog.Start()

	for i := 0; i < 100; i++ {
		f.bus.Dispatch(Signals[i%len(Signals)])
	}

	assert.Equal(t, 1, f.clock.PendingCount())
	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, f.rec.signOuts)
}

func TestWatchdogStopPreventsExpiry(t *testing.T) {
	f := newWatchdogFixture()
	other := 0
	f.bus.AddEventListener(SignalScroll, func() { other++ })
	f.watchdog.Start()

	f.clock.Advance(5 * time.Minute)
	f.watchdog.Stop()
	f.clock.Advance(time.Hour)

	assert.Equal(t, 0, f.rec.signOuts)
	assert.Empty(t, f.rec.navigated)
	assert.Equal(t, 0, f.alerts.Len())
	assert.Equal(t, 0, f.clock.PendingCount())

	// only the watchdog's own listeners are gone
	assert.Equal(t, 1, f.bus.ListenerCount())
	f.bus.Dispatch(SignalScroll)
	assert.Equal(t, 1, other)
}

func TestWatchdogSignOutFailureStillNavigates(t *testing.T) {
	f := newWatchdogFixture()
	f.rec.signOutErr = errors.New("auth service unavailable")
	f.watchdog.Start()

	f.clock.Advance(10 * time.Minute)

	assert.Equal(t, 1, f.rec.signOuts)
	assert.Equal(t, []string{AuthPath}, f.rec.navigated)
	assert.Equal(t, 1, f.alerts.Len())
}

func TestWatchdogInertAfterExpiry(t *testing.T) {
	f := newWatchdogFixture()
	f.watchdog.Start()
	f.clock.Advance(10 * time.Minute)

	f.bus.Dispatch(SignalKeyPress)
	f.clock.Advance(time.Hour)

	assert.Equal(t, 1, f.rec.signOuts)
	assert.False(t, f.watchdog.State().Armed)
	assert.Equal(t, 0, f.bus.ListenerCount())

	f.watchdog.Start()
	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 2, f.rec.signOuts)
}

func TestWatchdogStartIsIdempotent(t *testing.T) {
	f := newWatchdogFixture()
	f.watchdog.Start()
	f.watchdog.Start()

	assert.Equal(t, len(Signals), f.bus.ListenerCount())
	assert.Equal(t, 1, f.clock.PendingCount())
}

func TestWatchdogState(t *testing.T) {
	f := newWatchdogFixture()
	assert.False(t, f.watchdog.State().Armed)

	f.watchdog.Start()
	f.clock.Advance(3 * time.Minute)
	f.bus.Dispatch(SignalTouchStart)

	state := f.watchdog.State()
	require.True(t, state.Armed)
	require.NotNil(t, state.Deadline)
	assert.Equal(t, f.clock.Now().Add(DefaultIdleTimeout), *state.Deadline)
}
