// Package order resolves service order ids to the labels users recognize.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/maintenance-desk/internal/repository"
	"github.com/jwalitptl/maintenance-desk/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

// Resolver maps an order id to its human-readable number. It fails with
// an ErrNotFound AppError once the order no longer exists.
type Resolver interface {
	ResolveOrderLabel(ctx context.Context, orderID string) (string, error)
}

type resolver struct {
	repo  repository.OrderRepository
	cache *cache.Cache
	cb    *circuitbreaker.CircuitBreaker
}

// NewResolver caches successful lookups for ttl. Missing orders are never
// cached and do not count against the breaker.
func NewResolver(repo repository.OrderRepository, ttl time.Duration) Resolver {
	return &resolver{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "order-resolver",
			MaxRequests: 1,
			MaxFailures: 5,
			Timeout:     10 * time.Second,
			IsSuccessful: func(err error) bool {
				return err == nil || apperrors.IsNotFound(err)
			},
		}),
	}
}

func (r *resolver) ResolveOrderLabel(ctx context.Context, orderID string) (string, error) {
	if label, ok := r.cache.Get(orderID); ok {
		return label.(string), nil
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return "", apperrors.NewNotFound("service order", err)
	}

	var label string
	err = r.cb.Execute(func() error {
		order, err := r.repo.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		label = order.Number
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", apperrors.NewNotFound("service order", err)
		}
		return "", fmt.Errorf("failed to resolve service order %s: %w", orderID, err)
	}

	r.cache.SetDefault(orderID, label)
	return label, nil
}
