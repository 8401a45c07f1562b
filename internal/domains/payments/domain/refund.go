package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus tracks a refund request through review.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// Refund is a customer refund request against an order. Zero or more per
// order; only COMPLETED rows count toward the reconciled position.
type Refund struct {
	ID          int64
	OrderID     int64
	TotalAmount decimal.Decimal
	Status      RefundStatus
	RequestedBy string
	CreatedAt   time.Time
}

// NewRefund validates and constructs a refund request.
func NewRefund(orderID int64, totalAmount decimal.Decimal, requestedBy string) (*Refund, error) {
	if orderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	if !totalAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Refund{
		OrderID:     orderID,
		TotalAmount: totalAmount,
		Status:      RefundPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
