package ports

import (
	"context"

	"github.com/commercegrid/backoffice/internal/domains/catalog/domain"
)

// Service exposes catalog use cases to adapters.
type Service interface {
	SaveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
