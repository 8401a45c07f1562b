package ports

import (
	"context"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
)

// Service exposes the stock ledger use cases to adapters.
type Service interface {
	ComputeAvailability(ctx context.Context, key domain.StockKey) (int64, error)
	ItemsNeedingReorder(ctx context.Context) ([]*domain.Item, error)
	ItemsBelowSafetyStock(ctx context.Context) ([]*domain.Item, error)
	ReceiveStock(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Reserve(ctx context.Context, key domain.StockKey, qty int64) error
	Release(ctx context.Context, key domain.StockKey, qty int64) error
	Fulfill(ctx context.Context, key domain.StockKey, qty int64) error
}
