// Package comment turns comment inserts on the change feed into transient
// alerts for the signed-in user.
package comment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/maintenance-desk/internal/alert"
	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/service/order"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/messaging"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

const (
	AlertTitle = "Novo comentário"

	DefaultTopic          = "comments"
	DefaultDedupWindow    = 5 * time.Minute
	DefaultResolveTimeout = 10 * time.Second

	// queueSize bounds events waiting for an earlier event's lookup.
	queueSize = 256
)

// Identity reports the signed-in user. It is read on every event, never cached.
type Identity interface {
	CurrentUserID() (string, bool)
}

type Config struct {
	Topic string
	// DedupWindow is how long a delivered comment id is remembered.
	DedupWindow    time.Duration
	ResolveTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Topic == "" {
		out.Topic = DefaultTopic
	}
	if out.DedupWindow <= 0 {
		out.DedupWindow = DefaultDedupWindow
	}
	if out.ResolveTimeout <= 0 {
		out.ResolveTimeout = DefaultResolveTimeout
	}
	return out
}

// Watcher owns at most one change feed subscription. Events are handled
// in feed order: lookups for different events run concurrently but their
// alerts are raised in the order the events arrived.
type Watcher struct {
	broker   messaging.Broker
	resolver order.Resolver
	identity Identity
	sink     alert.Sink
	logger   *logger.Logger
	metrics  *metrics.Metrics
	config   Config

	mu     sync.Mutex
	active *run
}

// run is one subscription lifetime.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	seen   *cache.Cache
	wg     sync.WaitGroup
}

// slot carries the outcome of one event's lookup; nil means drop.
type slot chan *model.Alert

func NewWatcher(
	broker messaging.Broker,
	resolver order.Resolver,
	identity Identity,
	sink alert.Sink,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Watcher {
	return &Watcher{
		broker:   broker,
		resolver: resolver,
		identity: identity,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		config:   config.withDefaults(),
	}
}

// Start subscribes to the comment feed. It is a no-op while already
// subscribed or when nobody is signed in. A failed subscription is
// returned as an ErrSubscriptionSetup AppError and leaves the watcher idle.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil {
		return nil
	}
	userID, ok := w.identity.CurrentUserID()
	if !ok {
		w.logger.Debug("No signed-in user, comment watcher stays idle")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	msgs, err := w.broker.Subscribe(runCtx, w.config.Topic)
	if err != nil {
		cancel()
		return apperrors.NewSubscriptionSetup(w.config.Topic, err)
	}

	r := &run{
		ctx:    runCtx,
		cancel: cancel,
		seen:   cache.New(w.config.DedupWindow, w.config.DedupWindow),
	}
	queue := make(chan slot, queueSize)

	r.wg.Add(2)
	go w.receive(r, msgs, queue)
	go w.emit(r, queue)

	w.active = r
	w.logger.Info("Comment watcher subscribed", "topic", w.config.Topic, "user_id", userID)
	return nil
}

// Stop tears the subscription down. When Stop returns no further alert
// will be raised, including for events whose lookup is still running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	r := w.active
	w.active = nil
	w.mu.Unlock()

	if r == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	w.logger.Info("Comment watcher unsubscribed", "topic", w.config.Topic)
}

// Subscribed reports whether a subscription is live.
func (w *Watcher) Subscribed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != nil
}

func (w *Watcher) receive(r *run, msgs <-chan []byte, queue chan<- slot) {
	defer r.wg.Done()
	defer close(queue)

	for {
		select {
		case <-r.ctx.Done():
			return
		case payload, ok := <-msgs:
			if !ok {
				if r.ctx.Err() == nil {
					w.logger.Warn("Comment feed closed by broker", "topic", w.config.Topic)
				}
				return
			}
			s := w.accept(r, payload)
			if s == nil {
				continue
			}
			select {
			case queue <- s:
			case <-r.ctx.Done():
				return
			}
		}
	}
}

// accept filters one payload and starts its lookup. It returns nil for
// events that must not produce an alert.
func (w *Watcher) accept(r *run, payload []byte) slot {
	var change model.ChangeEvent
	if err := json.Unmarshal(payload, &change); err != nil {
		w.metrics.CommentEvents.WithLabelValues("malformed").Inc()
		w.logger.Warn("Dropping malformed feed payload", "error", err.Error())
		return nil
	}
	event, ok := change.CommentEvent()
	if !ok {
		w.metrics.CommentEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	userID, signedIn := w.identity.CurrentUserID()
	if !signedIn || event.AuthorUserID == userID {
		w.metrics.CommentEvents.WithLabelValues("self").Inc()
		return nil
	}

	if err := r.seen.Add(event.CommentID, struct{}{}, cache.DefaultExpiration); err != nil {
		w.metrics.CommentEvents.WithLabelValues("duplicate").Inc()
		w.logger.Debug("Dropping redelivered comment event", "comment_id", event.CommentID)
		return nil
	}

	s := make(slot, 1)
	go w.resolve(r, event, s)
	return s
}

func (w *Watcher) resolve(r *run, event model.CommentEvent, s slot) {
	ctx, cancel := context.WithTimeout(r.ctx, w.config.ResolveTimeout)
	defer cancel()

	start := time.Now()
	label, err := w.resolver.ResolveOrderLabel(ctx, event.TargetOrderID)
	w.metrics.ResolutionLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		// a redelivery may still succeed unless the order is gone
		if !apperrors.IsNotFound(err) {
			r.seen.Delete(event.CommentID)
		}
		err = apperrors.NewEventResolution(event.TargetOrderID, err)
		w.metrics.CommentEvents.WithLabelValues("unresolved").Inc()
		w.logger.Debug("Dropping comment event",
			"comment_id", event.CommentID,
			"order_id", event.TargetOrderID,
			"error", err.Error())
		s <- nil
		return
	}

	s <- &model.Alert{
		Title:   AlertTitle,
		Message: fmt.Sprintf("Novo comentário na ordem de serviço %s", label),
	}
}

func (w *Watcher) emit(r *run, queue <-chan slot) {
	defer r.wg.Done()

	for s := range queue {
		select {
		case a := <-s:
			if a == nil || r.ctx.Err() != nil {
				continue
			}
			w.metrics.CommentEvents.WithLabelValues("alerted").Inc()
			w.sink.Raise(a.Title, a.Message)
		case <-r.ctx.Done():
			return
		}
	}
}
