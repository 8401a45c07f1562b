package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersdomain "github.com/commercegrid/backoffice/internal/domains/orders/domain"
	"github.com/commercegrid/backoffice/internal/durable/temporal/sequences"
)

const (
	// OrderConfirmationWorkflowName is the public identifier for registering the workflow.
	OrderConfirmationWorkflowName = "orders.workflows.Confirmation"
	// OrderConfirmationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderConfirmationTaskQueue = "ORDER_CONFIRMATION"
)

// OrderConfirmationWorkflowInput captures the payload required to confirm an order.
type OrderConfirmationWorkflowInput struct {
	Draft   ordersdomain.Draft
	TraceID string
}

// OrderConfirmationWorkflow orchestrates the activities needed to confirm an order draft.
func OrderConfirmationWorkflow(ctx workflow.Context, input OrderConfirmationWorkflowInput) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderConfirmationWorkflow started", withTraceID(input.TraceID, "lines", len(input.Draft.Lines))...)
	order, err := sequences.RunOrderConfirmationSequence(ctx, input.Draft)
	if err != nil {
		logger.Error("OrderConfirmationWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderConfirmationWorkflow completed", withTraceID(input.TraceID, "orderId", order.ID)...)
	return order, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
