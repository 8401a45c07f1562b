package application

import (
	"context"
	"errors"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	"github.com/commercegrid/backoffice/internal/domains/inventory/ports"
)

// Service orchestrates stock ledger use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// ComputeAvailability returns on-hand minus reserved summed over active rows
// matching the key. Zero rows means zero availability, not an error.
func (s *Service) ComputeAvailability(ctx context.Context, key domain.StockKey) (int64, error) {
	if key.ProductID <= 0 {
		return 0, mapError(domain.ErrInvalidProductID)
	}
	available, err := s.repo.AvailableQuantity(ctx, key)
	if err != nil {
		return 0, mapError(err)
	}
	if available < 0 {
		// A negative aggregate means some row carries reserved > on-hand.
		return 0, domain.ErrStockIntegrity
	}
	return available, nil
}

// ItemsNeedingReorder lists active rows at or below their reorder point.
func (s *Service) ItemsNeedingReorder(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.repo.FindNeedingReorder(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// ItemsBelowSafetyStock lists the stricter urgent-restock subset.
func (s *Service) ItemsBelowSafetyStock(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.repo.FindBelowSafetyStock(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// ReceiveStock records delivered stock, creating the row on first receipt.
func (s *Service) ReceiveStock(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item == nil {
		return nil, errors.New("inventory item is nil")
	}
	if err := item.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, item)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// Reserve holds stock for an order. The repository performs the availability
// check and the increment atomically.
func (s *Service) Reserve(ctx context.Context, key domain.StockKey, qty int64) error {
	if qty <= 0 {
		return mapError(domain.ErrInvalidQuantity)
	}
	return mapError(s.repo.Reserve(ctx, key, qty))
}

// Release returns a reservation to the available pool.
func (s *Service) Release(ctx context.Context, key domain.StockKey, qty int64) error {
	if qty <= 0 {
		return mapError(domain.ErrInvalidQuantity)
	}
	return mapError(s.repo.Release(ctx, key, qty))
}

// Fulfill consumes a reservation when an order ships.
func (s *Service) Fulfill(ctx context.Context, key domain.StockKey, qty int64) error {
	if qty <= 0 {
		return mapError(domain.ErrInvalidQuantity)
	}
	return mapError(s.repo.Fulfill(ctx, key, qty))
}

var _ ports.Service = (*Service)(nil)
