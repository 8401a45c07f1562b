package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks an order through confirmation.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

var (
	ErrNoLines            = errors.New("order has no lines")
	ErrInvalidProductID   = errors.New("order line product id must be greater than zero")
	ErrInvalidQuantity    = errors.New("order line quantity must be greater than zero")
	ErrProductNotSellable = errors.New("product is not sellable")
)

// Line is one product claim inside an order. UnitPrice is filled from the
// catalog during pricing, never taken from the caller.
type Line struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Amount is the undiscounted line value.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Draft is the caller's request to place an order. The idempotency key, when
// set, makes repeated confirmations of the same draft safe.
type Draft struct {
	Lines          []Line
	CouponCode     string
	IdempotencyKey string
}

// Validate enforces invariants on the draft before any pricing work.
func (d Draft) Validate() error {
	if len(d.Lines) == 0 {
		return ErrNoLines
	}
	for _, line := range d.Lines {
		if line.ProductID <= 0 {
			return ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// PricingResult is the money breakdown of a draft. DiscountAmount is the
// stacked product-plus-coupon discount after the cap; Total is what the
// customer pays.
type PricingResult struct {
	Subtotal        decimal.Decimal
	ProductDiscount decimal.Decimal
	CouponDiscount  decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
}

// Order is a priced, persisted order aggregate.
type Order struct {
	ID             int64
	Status         Status
	Lines          []Line
	CouponCode     string
	IdempotencyKey string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
}

// NewOrder builds a confirmed-pending order from a priced draft.
func NewOrder(draft Draft, pricing PricingResult) *Order {
	return &Order{
		Status:         StatusPlaced,
		Lines:          append([]Line(nil), draft.Lines...),
		CouponCode:     strings.ToUpper(strings.TrimSpace(draft.CouponCode)),
		IdempotencyKey: strings.TrimSpace(draft.IdempotencyKey),
		Subtotal:       pricing.Subtotal,
		DiscountAmount: pricing.DiscountAmount,
		Total:          pricing.Total,
		CreatedAt:      time.Now().UTC(),
	}
}
