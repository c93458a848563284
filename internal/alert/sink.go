// Package alert delivers transient, toast-like alerts. Nothing here is
// persisted; the durable trail lives in the notification store.
package alert

import (
	"sync"
	"time"

	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
)

// Sink receives alerts. Raise is fire-and-forget.
type Sink interface {
	Raise(title, message string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(title, message string)

func (f SinkFunc) Raise(title, message string) { f(title, message) }

// Multi fans an alert out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(title, message string) {
		for _, s := range sinks {
			s.Raise(title, message)
		}
	})
}

// LogSink writes alerts to the application log.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(logger *logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Raise(title, message string) {
	s.logger.Info("Alert raised", "title", title, "message", message)
}

// DefaultBufferSize is how many undelivered alerts a Buffer keeps.
const DefaultBufferSize = 50

// Buffer queues alerts until the client drains them. When full the
// oldest alert is dropped.
type Buffer struct {
	mu      sync.Mutex
	pending []model.Alert
	size    int
	now     func() time.Time
}

func NewBuffer(size int, now func() time.Time) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if now == nil {
		now = time.Now
	}
	return &Buffer{size: size, now: now}
}

func (b *Buffer) Raise(title, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == b.size {
		b.pending = b.pending[1:]
	}
	b.pending = append(b.pending, model.Alert{
		Title:    title,
		Message:  message,
		RaisedAt: b.now(),
	})
}

// Drain returns the queued alerts oldest first and empties the queue.
func (b *Buffer) Drain() []model.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.pending
	b.pending = nil
	if out == nil {
		out = []model.Alert{}
	}
	return out
}

// Len returns the number of queued alerts.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
