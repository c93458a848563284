package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name   string
		want   Signal
		wantOK bool
	}{
		{"pointerdown", SignalPointerDown, true},
		{"pointermove", SignalPointerMove, true},
		{"keypress", SignalKeyPress, true},
		{"keydown", SignalKeyPress, true},
		{"scroll", SignalScroll, true},
		{"touchstart", SignalTouchStart, true},
		{"focus", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSignal(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActivityBusRemoveIsExact(t *testing.T) {
	bus := NewActivityBus()
	var calls []string

	removeA := bus.AddEventListener(SignalScroll, func() { calls = append(calls, "a") })
	bus.AddEventListener(SignalScroll, func() { calls = append(calls, "b") })
	bus.AddEventListener(SignalKeyPress, func() { calls = append(calls, "key") })

	bus.Dispatch(SignalScroll)
	removeA()
	removeA()
	bus.Dispatch(SignalScroll)

	assert.Equal(t, []string{"a", "b", "b"}, calls)
	assert.Equal(t, 2, bus.ListenerCount())
}

func TestActivityBusListenerMayRemoveItself(t *testing.T) {
	bus := NewActivityBus()
	calls := 0
	var remove func()
	remove = bus.AddEventListener(SignalPointerDown, func() {
		calls++
		remove()
	})

	bus.Dispatch(SignalPointerDown)
	bus.Dispatch(SignalPointerDown)

	assert.Equal(t, 1, calls)
}
