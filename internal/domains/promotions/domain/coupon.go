package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountPercentage treats Value as a percentage of the order amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed treats Value as a flat amount.
	DiscountFixed DiscountType = "fixed"
)

var (
	ErrInvalidCode         = errors.New("coupon code is required")
	ErrInvalidDiscountType = errors.New("discount type is invalid")
	ErrInvalidValue        = errors.New("discount value must be greater than zero")
	ErrInvalidWindow       = errors.New("validity window is inverted")

	// ErrCouponInactive covers both the active flag and the validity window.
	ErrCouponInactive = errors.New("coupon is inactive or outside its validity window")
	// ErrUsageLimitReached means usedCount has consumed the usage limit.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrBelowMinimumAmount means the order does not meet the coupon threshold.
	ErrBelowMinimumAmount = errors.New("order amount below coupon minimum")
)

// Coupon is an order-level discount redeemed by code. Once used it is never
// hard-deleted; deactivation flips the Active flag.
type Coupon struct {
	ID                    int64
	Code                  string
	Type                  DiscountType
	Value                 decimal.Decimal
	MinimumOrderAmount    decimal.Decimal
	MaximumDiscountAmount *decimal.Decimal
	StartsAt              time.Time
	EndsAt                time.Time
	UsageLimit            int64 // 0 means unlimited
	UsedCount             int64
	Active                bool
	// ProductIDs optionally scope the coupon; empty means order-wide.
	ProductIDs []int64
}

// NewCoupon validates and constructs a coupon.
func NewCoupon(code string, discountType DiscountType, value, minimumOrderAmount decimal.Decimal, startsAt, endsAt time.Time, usageLimit int64) (*Coupon, error) {
	coupon := &Coupon{
		Code:               strings.ToUpper(strings.TrimSpace(code)),
		Type:               discountType,
		Value:              value,
		MinimumOrderAmount: minimumOrderAmount,
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		UsageLimit:         usageLimit,
		Active:             true,
	}
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Validate enforces invariants on the coupon definition.
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ErrInvalidCode
	}
	switch c.Type {
	case DiscountPercentage, DiscountFixed:
	default:
		return ErrInvalidDiscountType
	}
	if !c.Value.IsPositive() {
		return ErrInvalidValue
	}
	if c.EndsAt.Before(c.StartsAt) {
		return ErrInvalidWindow
	}
	return nil
}

// InWindow reports whether at falls inside [StartsAt, EndsAt].
func (c *Coupon) InWindow(at time.Time) bool {
	return !at.Before(c.StartsAt) && !at.After(c.EndsAt)
}

// Redeemable checks the gates in order: active flag and window, usage limit,
// then minimum order amount. It does not consume usage.
func (c *Coupon) Redeemable(orderAmount decimal.Decimal, at time.Time) error {
	if !c.Active || !c.InWindow(at) {
		return ErrCouponInactive
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrUsageLimitReached
	}
	if orderAmount.LessThan(c.MinimumOrderAmount) {
		return ErrBelowMinimumAmount
	}
	return nil
}

// DiscountFor computes the coupon discount for the order amount: percentage
// of the amount or the flat value, clamped to MaximumDiscountAmount when set.
func (c *Coupon) DiscountFor(orderAmount decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		raw = orderAmount.Mul(c.Value).Div(decimal.NewFromInt(100))
	default:
		raw = c.Value
	}
	if c.MaximumDiscountAmount != nil && raw.GreaterThan(*c.MaximumDiscountAmount) {
		raw = *c.MaximumDiscountAmount
	}
	return raw.Round(2)
}

// AppliesToProduct reports whether the coupon covers the product. An
// unscoped coupon covers everything.
func (c *Coupon) AppliesToProduct(productID int64) bool {
	if len(c.ProductIDs) == 0 {
		return true
	}
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
