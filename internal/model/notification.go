package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationRecord is an entry of the durable notification log.
type NotificationRecord struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Alert is a transient, toast-like message. Alerts are never persisted.
type Alert struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}
