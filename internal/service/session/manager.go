// Package session owns the per-user liveness state: the comment watcher,
// the idle watchdog and the notification log of every signed-in user.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jwalitptl/maintenance-desk/internal/alert"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	"github.com/jwalitptl/maintenance-desk/internal/service/comment"
	"github.com/jwalitptl/maintenance-desk/internal/service/notification"
	"github.com/jwalitptl/maintenance-desk/internal/service/order"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

const (
	EndedNotificationTitle       = "Sessão encerrada"
	EndedNotificationDescription = "Sua sessão foi encerrada por inatividade."
)

type Config struct {
	IdleTimeout time.Duration
	AlertBuffer int
	Watcher     comment.Config
}

// Session is the live state of one signed-in user.
type Session struct {
	UserID        string
	Alerts        *alert.Buffer
	Notifications notification.Service
	Bus           *ActivityBus

	watcher  *comment.Watcher
	watchdog *Watchdog
	signedIn atomic.Bool
}

// CurrentUserID reports the session's user until it is signed out.
func (s *Session) CurrentUserID() (string, bool) {
	return s.UserID, s.signedIn.Load()
}

func (s *Session) State() model.SessionState {
	return model.SessionState{
		UserID:     s.UserID,
		Subscribed: s.watcher.Subscribed(),
		Watchdog:   s.watchdog.State(),
	}
}

func (s *Session) close() {
	s.signedIn.Store(false)
	s.watchdog.Stop()
	s.watcher.Stop()
}

type Manager struct {
	broker   messaging.Broker
	resolver order.Resolver
	kv       repository.KVStore
	clock    clock.Clock
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
	// ended holds what the client of a session the watchdog closed has
	// yet to see.
	ended map[string]endedSession
}

type endedSession struct {
	redirect string
	alerts   *alert.Buffer
}

func NewManager(
	broker messaging.Broker,
	resolver order.Resolver,
	kv repository.KVStore,
	clk clock.Clock,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Manager {
	if clk == nil {
		clk = clock.Real()
	}
	return &Manager{
		broker:   broker,
		resolver: resolver,
		kv:       kv,
		clock:    clk,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*Session),
		ended:    make(map[string]endedSession),
	}
}

// Login starts the session of userID. Logging in again while the session
// is live returns it unchanged. If the comment feed cannot be subscribed
// the session is not created and the ErrSubscriptionSetup error is returned.
// The session is built and subscribed without holding the manager lock;
// when two logins race, the first one installed wins.
func (m *Manager) Login(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized(errors.New("empty user id"))
	}
	if s, err := m.Get(userID); err == nil {
		return s, nil
	}

	log := m.logger.WithFields(map[string]interface{}{"user_id": userID})
	s := m.newSession(ctx, userID, log)
	if err := s.watcher.Start(ctx); err != nil {
		s.close()
		log.Error(err, "Failed to start session")
		return nil, err
	}

	m.mu.Lock()
	if live, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		s.close()
		return live, nil
	}
	s.watchdog.Start()
	delete(m.ended, userID)
	m.sessions[userID] = s
	m.metrics.ActiveSessions.Inc()
	m.mu.Unlock()

	log.Info("Session started")
	return s, nil
}

func (m *Manager) newSession(ctx context.Context, userID string, log *logger.Logger) *Session {
	buffer := alert.NewBuffer(m.config.AlertBuffer, m.clock.Now)
	sink := alert.Multi(buffer, alert.NewLogSink(log))

	s := &Session{
		UserID:        userID,
		Alerts:        buffer,
		Notifications: notification.NewService(ctx, m.kv, notification.StorageKey(userID), log, m.metrics),
		Bus:           NewActivityBus(),
	}
	s.signedIn.Store(true)
	s.watcher = comment.NewWatcher(m.broker, m.resolver, s, sink, m.config.Watcher, log, m.metrics)
	s.watchdog = NewWatchdog(
		m.clock,
		s.Bus,
		m.config.IdleTimeout,
		SignOutFunc(func(ctx context.Context) error { return m.expire(ctx, s) }),
		NavigateFunc(func(path string) { m.redirect(s, path) }),
		sink,
		log,
		m.metrics,
	)
	return s
}

// Logout tears the session down. When it returns no alert will be raised
// for the session anymore.
func (m *Manager) Logout(userID string) error {
	if !m.remove(userID) {
		return apperrors.NotFound("session", apperrors.ErrRecordNotFound)
	}
	m.logger.Info("Session ended", "user_id", userID)
	return nil
}

// Get returns the live session of userID.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, apperrors.NotFound("session", apperrors.ErrRecordNotFound)
	}
	return s, nil
}

// State reports the session of userID. For a session the watchdog ended
// it reports the navigation target once, together with the alerts the
// client has not drained yet.
func (m *Manager) State(userID string) (model.SessionState, error) {
	m.mu.Lock()
	s, live := m.sessions[userID]
	e, ended := m.ended[userID]
	if !live && ended {
		delete(m.ended, userID)
	}
	m.mu.Unlock()

	switch {
	case live:
		return s.State(), nil
	case ended:
		return model.SessionState{
			UserID:     userID,
			RedirectTo: e.redirect,
			Alerts:     e.alerts.Drain(),
		}, nil
	default:
		return model.SessionState{}, apperrors.NotFound("session", apperrors.ErrRecordNotFound)
	}
}

// Alerts drains the pending alerts of userID. A session the watchdog
// ended keeps its alerts until the client reads them here or through State.
func (m *Manager) Alerts(userID string) ([]model.Alert, error) {
	m.mu.Lock()
	var buffer *alert.Buffer
	if s, ok := m.sessions[userID]; ok {
		buffer = s.Alerts
	} else if e, ok := m.ended[userID]; ok {
		buffer = e.alerts
	}
	m.mu.Unlock()

	if buffer == nil {
		return nil, apperrors.NotFound("session", apperrors.ErrRecordNotFound)
	}
	return buffer.Drain(), nil
}

// Activity feeds a client activity signal to the session's watchdog.
func (m *Manager) Activity(userID string, signal Signal) error {
	s, err := m.Get(userID)
	if err != nil {
		return err
	}
	m.metrics.ActivitySignals.WithLabelValues(string(signal)).Inc()
	s.Bus.Dispatch(signal)
	return nil
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.remove(id)
	}
}

func (m *Manager) remove(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
		m.metrics.ActiveSessions.Dec()
	}
	m.mu.Unlock()

	if ok {
		s.close()
	}
	return ok
}

// expire is the watchdog's sign-out: it leaves a durable trail in the
// notification log and ends the session.
func (m *Manager) expire(ctx context.Context, s *Session) error {
	_, err := s.Notifications.Add(ctx, EndedNotificationTitle, EndedNotificationDescription)
	m.remove(s.UserID)
	return err
}

// redirect runs after the expiry alert was raised, so the ended entry
// carries it.
func (m *Manager) redirect(s *Session, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.sessions[s.UserID]; live {
		return
	}
	m.ended[s.UserID] = endedSession{redirect: path, alerts: s.Alerts}
}
