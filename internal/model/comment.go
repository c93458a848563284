package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a user comment on a service order.
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ServiceOrderID uuid.UUID `json:"service_order_id" db:"service_order_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Body           string    `json:"body" db:"body"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Change feed event types and tables.
const (
	ChangeInsert = "INSERT"

	TableComments = "comments"
)

// ChangeEvent is the row-level change published on the change feed.
type ChangeEvent struct {
	Type   string  `json:"type"`
	Table  string  `json:"table"`
	Record Comment `json:"record"`
}

// CommentEvent is the part of a comment insert the watcher acts on.
type CommentEvent struct {
	CommentID     string
	AuthorUserID  string
	TargetOrderID string
}

// CommentEvent extracts the watcher's view of a comment insert. The second
// result is false when the change is not a comment insert.
func (e *ChangeEvent) CommentEvent() (CommentEvent, bool) {
	if e.Type != ChangeInsert || e.Table != TableComments {
		return CommentEvent{}, false
	}
	return CommentEvent{
		CommentID:     e.Record.ID.String(),
		AuthorUserID:  e.Record.UserID.String(),
		TargetOrderID: e.Record.ServiceOrderID.String(),
	}, true
}

// CreateCommentRequest is the body of POST /orders/:id/comments.
type CreateCommentRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}
