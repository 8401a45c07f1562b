package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersdomain "github.com/commercegrid/backoffice/internal/domains/orders/domain"
	orderactivities "github.com/commercegrid/backoffice/internal/durable/temporal/activities/orders"
)

// RunOrderConfirmationSequence executes the ordered set of activities needed
// to confirm an order draft.
func RunOrderConfirmationSequence(ctx workflow.Context, draft ordersdomain.Draft) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order confirmation sequence started", "lines", len(draft.Lines))
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var order ordersdomain.Order
	err := workflow.ExecuteActivity(ctx, orderactivities.ConfirmOrderActivityName, draft).Get(ctx, &order)
	if err != nil {
		logger.Error("order confirmation sequence failed", "error", err)
		return nil, err
	}
	logger.Info("order confirmation sequence completed", "orderId", order.ID)
	return &order, nil
}
