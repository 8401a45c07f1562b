package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
	"github.com/commercegrid/backoffice/internal/domains/orders/ports"
)

// ConfirmOrderActivityName runs the full confirmation sequence against the
// order service.
const ConfirmOrderActivityName = "orders.activities.ConfirmOrder"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the order service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// ConfirmOrder prices, reserves, redeems, and persists the draft. The
// service's idempotency-key lookup makes retried attempts safe.
func (a *Activities) ConfirmOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order confirmation activity not initialized")
		return nil, errors.New("order confirmation activity not initialized")
	}
	logger.Info("ConfirmOrder activity started", "lines", len(draft.Lines), "couponCode", draft.CouponCode)
	order, err := a.service.ConfirmOrder(ctx, draft)
	if err != nil {
		logger.Error("ConfirmOrder activity failed", "error", err)
		return nil, err
	}
	logger.Info("ConfirmOrder activity completed", "orderId", order.ID)
	return order, nil
}
