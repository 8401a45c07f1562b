package ports

import (
	"context"
	"time"

	"github.com/commercegrid/backoffice/internal/domains/payments/domain"
)

// Service exposes the reconciler to adapters. Stale/expired reports list
// candidates for operator review; cancellation and voiding stay with the
// external payment workflow.
type Service interface {
	RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	RequestRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	ResolveRefund(ctx context.Context, refundID int64, status domain.RefundStatus) (*domain.Refund, error)
	Reconcile(ctx context.Context, orderID int64) (*domain.ReconcileResult, error)
	StalePending(ctx context.Context, cutoff time.Time) ([]*domain.Transaction, error)
	ExpiredAuthorizations(ctx context.Context, expiry time.Time) ([]*domain.Transaction, error)
}
