package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/backoffice/internal/domains/payments/domain"
)

var ErrNotFound = errors.New("payment record not found")

// Repository persists the append-only payment ledger and refund requests.
// Aggregate queries return zero, not an error, when no rows match.
type Repository interface {
	RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	TransactionsByOrder(ctx context.Context, orderID int64) ([]*domain.Transaction, error)
	CompletedSaleAmount(ctx context.Context, orderID int64) (decimal.Decimal, error)
	HasPendingTransactions(ctx context.Context, orderID int64) (bool, error)
	FindStalePending(ctx context.Context, cutoff time.Time) ([]*domain.Transaction, error)
	FindExpiredAuthorizations(ctx context.Context, expiry time.Time) ([]*domain.Transaction, error)

	SaveRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	RefundByID(ctx context.Context, id int64) (*domain.Refund, error)
	RefundsByOrder(ctx context.Context, orderID int64) ([]*domain.Refund, error)
	CompletedRefundAmount(ctx context.Context, orderID int64) (decimal.Decimal, error)
}
