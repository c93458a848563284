package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/maintenance-desk/internal/model"
)

// All repository interfaces in one file
type (
	// KVStore is the key-value persistence surface. Get returns
	// errors.ErrRecordNotFound for a missing key.
	KVStore interface {
		Get(ctx context.Context, key string) (string, error)
		Set(ctx context.Context, key, value string) error
	}

	// OrderRepository reads service orders. GetOrder returns
	// errors.ErrRecordNotFound once the order is gone.
	OrderRepository interface {
		GetOrder(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error)
	}

	AnalyzerRepository interface {
		ListAnalyzers(ctx context.Context) ([]*model.Analyzer, error)
	}

	// CommentRepository stores a comment together with the outbox row
	// that announces it on the change feed.
	CommentRepository interface {
		CreateWithEvent(ctx context.Context, comment *model.Comment) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		BeginTx(ctx context.Context) (*sqlx.Tx, error)
		GetPendingEventsWithLock(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
