package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType partitions the ledger.
type TransactionType string

const (
	TypeSale          TransactionType = "sale"
	TypeRefund        TransactionType = "refund"
	TypeAuthorization TransactionType = "authorization"
)

// TransactionStatus tracks gateway progress.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

var (
	ErrInvalidOrderID = errors.New("order id must be greater than zero")
	ErrInvalidAmount  = errors.New("transaction amount must be greater than zero")
	ErrInvalidType    = errors.New("transaction type is invalid")
	ErrInvalidStatus  = errors.New("transaction status is invalid")

	// ErrNegativeNetPaid means completed refunds exceed completed sales for
	// an order. It signals ledger corruption and must be surfaced and
	// alerted on, never clamped to zero.
	ErrNegativeNetPaid = errors.New("net paid amount is negative")
)

// Transaction is one append-only ledger row. Reconciled totals are always
// derived by summing rows, never stored.
type Transaction struct {
	ID                   int64
	OrderID              int64
	Type                 TransactionType
	Status               TransactionStatus
	Amount               decimal.Decimal
	GatewayTransactionID string
	CreatedAt            time.Time
}

// NewTransaction validates and constructs a ledger row.
func NewTransaction(orderID int64, txType TransactionType, status TransactionStatus, amount decimal.Decimal, gatewayTransactionID string) (*Transaction, error) {
	tx := &Transaction{
		OrderID:              orderID,
		Type:                 txType,
		Status:               status,
		Amount:               amount,
		GatewayTransactionID: gatewayTransactionID,
		CreatedAt:            time.Now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Validate enforces invariants on the row.
func (t *Transaction) Validate() error {
	if t.OrderID <= 0 {
		return ErrInvalidOrderID
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch t.Type {
	case TypeSale, TypeRefund, TypeAuthorization:
	default:
		return ErrInvalidType
	}
	switch t.Status {
	case StatusPending, StatusSuccess, StatusFailed, StatusCancelled:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// ReconcileResult is the derived money position of one order.
type ReconcileResult struct {
	OrderID        int64
	NetPaid        decimal.Decimal
	SaleAmount     decimal.Decimal
	RefundedAmount decimal.Decimal
	// PendingFlag is set when any PENDING transaction still exists for the
	// order, meaning the position may move.
	PendingFlag bool
}
