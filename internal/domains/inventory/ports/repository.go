package ports

import (
	"context"
	"errors"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
)

var ErrNotFound = errors.New("inventory item not found")

// Repository persists inventory rows and answers ledger queries.
//
// AvailableQuantity aggregates over active rows only and returns 0 when no
// rows match; absence of stock is a valid state, not an error. Reserve and
// Release must pair their availability check with the counter update in a
// single atomic step (row lock or conditional update), since two concurrent
// orders may otherwise both pass a check that only covers one of them.
type Repository interface {
	Save(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	FindByKey(ctx context.Context, key domain.StockKey) ([]*domain.Item, error)
	AvailableQuantity(ctx context.Context, key domain.StockKey) (int64, error)
	FindNeedingReorder(ctx context.Context) ([]*domain.Item, error)
	FindBelowSafetyStock(ctx context.Context) ([]*domain.Item, error)
	Reserve(ctx context.Context, key domain.StockKey, qty int64) error
	Release(ctx context.Context, key domain.StockKey, qty int64) error
	Fulfill(ctx context.Context, key domain.StockKey, qty int64) error
}
