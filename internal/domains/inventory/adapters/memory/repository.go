package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	"github.com/commercegrid/backoffice/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory inventory adapter. The mutex is held across
// every check-then-mutate pair, giving the same oversell protection the
// postgres adapter gets from conditional updates.
type Repository struct {
	mu     sync.RWMutex
	items  map[int64]*domain.Item
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{items: map[int64]*domain.Item{}}
}

func (r *Repository) Save(_ context.Context, item *domain.Item) (*domain.Item, error) {
	if item == nil {
		return nil, errors.New("inventory item is nil")
	}
	clone := *item
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.items[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *Repository) FindByKey(_ context.Context, key domain.StockKey) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Item
	for _, item := range r.items {
		if item.Matches(key) {
			clone := *item
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (r *Repository) AvailableQuantity(_ context.Context, key domain.StockKey) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, item := range r.items {
		if item.Status == domain.StatusActive && item.Matches(key) {
			total += item.Available()
		}
	}
	return total, nil
}

func (r *Repository) FindNeedingReorder(_ context.Context) ([]*domain.Item, error) {
	return r.filter(func(item *domain.Item) bool { return item.NeedsReorder() })
}

func (r *Repository) FindBelowSafetyStock(_ context.Context) ([]*domain.Item, error) {
	return r.filter(func(item *domain.Item) bool { return item.BelowSafetyStock() })
}

// Reserve claims qty across matching active rows, preferring rows with the
// most headroom. Fails without partial effect when total availability is short.
func (r *Repository) Reserve(_ context.Context, key domain.StockKey, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	var matching []*domain.Item
	for _, item := range r.items {
		if item.Status == domain.StatusActive && item.Matches(key) {
			total += item.Available()
			matching = append(matching, item)
		}
	}
	if total < qty {
		return domain.ErrInsufficientStock
	}
	remaining := qty
	for _, item := range matching {
		if remaining == 0 {
			break
		}
		take := item.Available()
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		if err := item.Reserve(take); err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

func (r *Repository) Release(_ context.Context, key domain.StockKey, qty int64) error {
	return r.unhold(key, qty, func(item *domain.Item, take int64) error { return item.Release(take) }, func(item *domain.Item) int64 { return item.Reserved })
}

func (r *Repository) Fulfill(_ context.Context, key domain.StockKey, qty int64) error {
	return r.unhold(key, qty, func(item *domain.Item, take int64) error { return item.Fulfill(take) }, func(item *domain.Item) int64 { return item.Reserved })
}

func (r *Repository) unhold(key domain.StockKey, qty int64, apply func(*domain.Item, int64) error, held func(*domain.Item) int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	var matching []*domain.Item
	for _, item := range r.items {
		if item.Matches(key) {
			total += held(item)
			matching = append(matching, item)
		}
	}
	if total < qty {
		return domain.ErrReleaseExceedsHold
	}
	remaining := qty
	for _, item := range matching {
		if remaining == 0 {
			break
		}
		take := held(item)
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		if err := apply(item, take); err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

func (r *Repository) filter(keep func(*domain.Item) bool) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Item
	for _, item := range r.items {
		if keep(item) {
			clone := *item
			list = append(list, &clone)
		}
	}
	return list, nil
}
