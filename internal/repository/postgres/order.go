package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(base BaseRepository) repository.OrderRepository {
	return &orderRepository{base}
}

func (r *orderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	query := `
		SELECT id, number, equipment, status, requested_by, created_at, updated_at
		FROM service_orders
		WHERE id = $1
	`
	var order model.ServiceOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get service order: %w", err)
	}
	return &order, nil
}
