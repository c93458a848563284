package session

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/maintenance-desk/internal/alert"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

const (
	DefaultIdleTimeout = 10 * time.Minute

	// AuthPath is the authentication entry point users land on after expiry.
	AuthPath = "/auth"

	ExpiredAlertTitle   = "Sessão expirada"
	ExpiredAlertMessage = "Você foi desconectado por inatividade."
)

// SignOuter ends the session on expiry.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(path string)
}

type SignOutFunc func(ctx context.Context) error

func (f SignOutFunc) SignOut(ctx context.Context) error { return f(ctx) }

type NavigateFunc func(path string)

func (f NavigateFunc) Navigate(path string) { f(path) }

// Watchdog signs the user out after a period without activity signals.
// Every signal while armed replaces the pending timer, so only the latest
// one counts. Expiry happens at most once per arm cycle.
type Watchdog struct {
	clock     clock.Clock
	bus       *ActivityBus
	timeout   time.Duration
	signOut   SignOuter
	navigator Navigator
	sink      alert.Sink
	logger    *logger.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	armed    bool
	gen      uint64
	timer    *clock.Timer
	deadline time.Time
	removers []func()
}

func NewWatchdog(
	clk clock.Clock,
	bus *ActivityBus,
	timeout time.Duration,
	signOut SignOuter,
	navigator Navigator,
	sink alert.Sink,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Watchdog{
		clock:     clk,
		bus:       bus,
		timeout:   timeout,
		signOut:   signOut,
		navigator: navigator,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start registers the activity listeners and arms the timer. Starting an
// armed watchdog does nothing.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.armed {
		return
	}
	w.armed = true
	for _, s := range Signals {
		w.removers = append(w.removers, w.bus.AddEventListener(s, w.reset))
	}
	w.scheduleLocked()
}

// Stop cancels the pending timer and removes the listeners Start added.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return
	}
	w.disarmLocked()
}

// State returns a snapshot for the session endpoint.
func (w *Watchdog) State() model.WatchdogState {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return model.WatchdogState{}
	}
	deadline := w.deadline
	return model.WatchdogState{Armed: true, Deadline: &deadline}
}

func (w *Watchdog) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return
	}
	w.timer.Stop()
	w.scheduleLocked()
}

// scheduleLocked starts a new arm cycle. A timer from an older cycle that
// slipped past Stop sees a stale generation and does nothing.
func (w *Watchdog) scheduleLocked() {
	w.gen++
	gen := w.gen
	w.deadline = w.clock.Now().Add(w.timeout)
	w.timer = w.clock.AfterFunc(w.timeout, func() { w.expire(gen) })
}

func (w *Watchdog) disarmLocked() {
	w.armed = false
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	for _, remove := range w.removers {
		remove()
	}
	w.removers = nil
}

func (w *Watchdog) expire(gen uint64) {
	w.mu.Lock()
	if !w.armed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.disarmLocked()
	w.mu.Unlock()

	w.metrics.IdleExpiries.Inc()
	w.logger.Info("Session idle timeout reached", "timeout", w.timeout.String())

	if err := w.signOut.SignOut(context.Background()); err != nil {
		w.logger.Error(err, "Sign-out after idle timeout failed, redirecting anyway")
	}
	w.sink.Raise(ExpiredAlertTitle, ExpiredAlertMessage)
	w.navigator.Navigate(AuthPath)
}
