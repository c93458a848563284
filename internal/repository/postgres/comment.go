package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
)

type commentRepository struct {
	BaseRepository
	outbox repository.OutboxRepository
}

func NewCommentRepository(base BaseRepository, outbox repository.OutboxRepository) repository.CommentRepository {
	return &commentRepository{BaseRepository: base, outbox: outbox}
}

// CreateWithEvent inserts the comment and its comment.inserted outbox row
// in one transaction, so the feed announces exactly the comments that exist.
func (r *commentRepository) CreateWithEvent(ctx context.Context, comment *model.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(model.ChangeEvent{
		Type:   model.ChangeInsert,
		Table:  model.TableComments,
		Record: *comment,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal comment event: %w", err)
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO comments (id, service_order_id, user_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query,
			comment.ID,
			comment.ServiceOrderID,
			comment.UserID,
			comment.Body,
			comment.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		return r.outbox.Create(ctx, tx, &model.OutboxEvent{
			EventType: model.EventCommentInserted,
			Payload:   payload,
		})
	})
}
