package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errLookup = errors.New("lookup failed")

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Minute})

	assert.ErrorIs(t, cb.Execute(func() error { return errLookup }), errLookup)
	assert.ErrorIs(t, cb.Execute(func() error { return errLookup }), errLookup)

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.True(t, IsOpen(err))
	assert.False(t, called)
	assert.Equal(t, "open", cb.State())
}

func TestIsSuccessfulExcludesExpectedErrors(t *testing.T) {
	errMissing := errors.New("missing")
	cb := NewCircuitBreaker(Settings{
		Name:         "test",
		MaxFailures:  1,
		Timeout:      time.Minute,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errMissing) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errMissing }), errMissing)
	}
	assert.Equal(t, "closed", cb.State())
}
