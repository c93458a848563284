package session

import (
	"sort"
	"sync"
)

// Signal is a kind of user activity that counts against idleness.
type Signal string

const (
	SignalPointerDown Signal = "pointerdown"
	SignalPointerMove Signal = "pointermove"
	SignalKeyPress    Signal = "keypress"
	SignalScroll      Signal = "scroll"
	SignalTouchStart  Signal = "touchstart"
)

// Signals is the fixed set the idle watchdog listens to.
var Signals = []Signal{
	SignalPointerDown,
	SignalPointerMove,
	SignalKeyPress,
	SignalScroll,
	SignalTouchStart,
}

// ParseSignal maps a DOM event name to a Signal. keydown is reported by
// some clients instead of keypress and counts as the same signal.
func ParseSignal(name string) (Signal, bool) {
	if name == "keydown" {
		return SignalKeyPress, true
	}
	for _, s := range Signals {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// ActivityBus is the event target activity listeners register on.
type ActivityBus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Signal]map[uint64]func()
}

func NewActivityBus() *ActivityBus {
	return &ActivityBus{listeners: make(map[Signal]map[uint64]func())}
}

// AddEventListener registers fn for signal and returns the func that
// removes exactly this registration.
func (b *ActivityBus) AddEventListener(signal Signal, fn func()) (remove func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.listeners[signal] == nil {
		b.listeners[signal] = make(map[uint64]func())
	}
	b.listeners[signal][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners[signal], id)
		})
	}
}

// Dispatch calls every listener of signal in registration order. Listeners
// run outside the bus lock and may add or remove registrations.
func (b *ActivityBus) Dispatch(signal Signal) {
	b.mu.Lock()
	ids := make([]uint64, 0, len(b.listeners[signal]))
	for id := range b.listeners[signal] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.listeners[signal][id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ListenerCount returns the number of registrations across all signals.
func (b *ActivityBus) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, l := range b.listeners {
		n += len(l)
	}
	return n
}
