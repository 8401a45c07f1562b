package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
)

// DiscountQuote is the outcome of evaluating product-level discounts.
type DiscountQuote struct {
	Amount decimal.Decimal
	Source string
}

// Redemption is the outcome of successfully consuming a coupon.
type Redemption struct {
	Code           string
	DiscountAmount decimal.Decimal
}

// Service exposes discount evaluation and coupon redemption to adapters.
type Service interface {
	ApplicableDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.ProductDiscount, error)
	ApplicableCampaignDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.CampaignDiscount, error)
	EvaluateDiscount(ctx context.Context, productID int64, orderAmount decimal.Decimal, at time.Time) (DiscountQuote, error)
	QuoteCoupon(ctx context.Context, code string, orderAmount decimal.Decimal, at time.Time) (Redemption, error)
	RedeemCoupon(ctx context.Context, code string, orderAmount decimal.Decimal, at time.Time) (Redemption, error)
	ReleaseCouponUsage(ctx context.Context, code string) error
}
