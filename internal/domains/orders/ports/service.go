package ports

import (
	"context"

	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
	paymentsdomain "github.com/commercegrid/backoffice/internal/domains/payments/domain"
)

// Service exposes order pricing, confirmation, and reconciliation.
type Service interface {
	// PriceOrder computes the draft's money breakdown without reserving
	// stock or consuming coupon usage.
	PriceOrder(ctx context.Context, draft domain.Draft) (*domain.PricingResult, error)
	// ConfirmOrder reserves stock, redeems the coupon, and persists the
	// order; any downstream failure releases the reservations taken.
	ConfirmOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// ReconcileOrder derives the order's post-payment money position from
	// the payment ledger.
	ReconcileOrder(ctx context.Context, orderID int64) (*paymentsdomain.ReconcileResult, error)
}

// WorkflowOrchestrator runs order confirmation either inline or on a durable
// workflow engine.
type WorkflowOrchestrator interface {
	ConfirmOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error)
}
