package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/backoffice/internal/domains/payments/domain"
	"github.com/commercegrid/backoffice/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory payment ledger adapter.
type Repository struct {
	mu           sync.RWMutex
	transactions map[int64]*domain.Transaction
	refunds      map[int64]*domain.Refund
	nextID       int64
}

func NewRepository() *Repository {
	return &Repository{
		transactions: map[int64]*domain.Transaction{},
		refunds:      map[int64]*domain.Refund{},
	}
}

func (r *Repository) RecordTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	clone := *tx
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.transactions[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) TransactionsByOrder(_ context.Context, orderID int64) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Transaction
	for _, tx := range r.transactions {
		if tx.OrderID == orderID {
			clone := *tx
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) CompletedSaleAmount(_ context.Context, orderID int64) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range r.transactions {
		if tx.OrderID == orderID && tx.Type == domain.TypeSale && tx.Status == domain.StatusSuccess {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (r *Repository) HasPendingTransactions(_ context.Context, orderID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tx := range r.transactions {
		if tx.OrderID == orderID && tx.Status == domain.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) FindStalePending(_ context.Context, cutoff time.Time) ([]*domain.Transaction, error) {
	return r.filterTransactions(func(tx *domain.Transaction) bool {
		return tx.Status == domain.StatusPending && tx.CreatedAt.Before(cutoff)
	})
}

func (r *Repository) FindExpiredAuthorizations(_ context.Context, expiry time.Time) ([]*domain.Transaction, error) {
	return r.filterTransactions(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TypeAuthorization && tx.Status == domain.StatusPending && tx.CreatedAt.Before(expiry)
	})
}

func (r *Repository) SaveRefund(_ context.Context, refund *domain.Refund) (*domain.Refund, error) {
	if refund == nil {
		return nil, errors.New("refund is nil")
	}
	clone := *refund
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.refunds[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) RefundByID(_ context.Context, id int64) (*domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refund, ok := r.refunds[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *refund
	return &clone, nil
}

func (r *Repository) RefundsByOrder(_ context.Context, orderID int64) ([]*domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Refund
	for _, refund := range r.refunds {
		if refund.OrderID == orderID {
			clone := *refund
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) CompletedRefundAmount(_ context.Context, orderID int64) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, refund := range r.refunds {
		if refund.OrderID == orderID && refund.Status == domain.RefundCompleted {
			total = total.Add(refund.TotalAmount)
		}
	}
	return total, nil
}

func (r *Repository) filterTransactions(keep func(*domain.Transaction) bool) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Transaction
	for _, tx := range r.transactions {
		if keep(tx) {
			clone := *tx
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
