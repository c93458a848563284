package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	inner := NewNotFound("service order", ErrRecordNotFound)
	outer := NewEventResolution("42", inner)
	wrapped := fmt.Errorf("handling event: %w", outer)

	assert.True(t, HasCode(wrapped, ErrEventResolution))
	assert.True(t, HasCode(wrapped, ErrNotFound))
	assert.False(t, HasCode(wrapped, ErrPersistence))
	assert.False(t, HasCode(nil, ErrNotFound))
	assert.True(t, IsNotFound(wrapped))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, NewSubscriptionSetup("comments", nil).StatusCode())
	assert.Equal(t, http.StatusNotFound, NotFound("notification", nil).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewPersistence("notifications:u1", nil).StatusCode())
	assert.Equal(t, "failed to persist k: boom", NewPersistence("k", fmt.Errorf("boom")).Error())
}
