package ports

import (
	"context"
	"errors"

	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository persists order aggregates with their lines.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetByIdempotencyKey returns ErrNotFound when no confirmation has been
	// recorded under the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}
