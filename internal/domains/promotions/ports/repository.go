package ports

import (
	"context"
	"errors"
	"time"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
)

var ErrNotFound = errors.New("coupon not found")

// Repository persists coupons, product discounts, and campaigns.
//
// RedeemCoupon must consume exactly one usage atomically: the gate checks
// (active, window, remaining usage) and the usedCount increment happen as a
// single conditional update or under a row lock, so two concurrent
// redemptions can never both pass the usage-limit check.
//
// ReleaseCouponUsage is the compensating write: it hands back one consumed
// usage when the operation that redeemed the coupon later aborts. The
// decrement is conditional on usedCount > 0 so compensation can never drive
// the counter negative.
type Repository interface {
	SaveCoupon(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error)
	CouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	RedeemCoupon(ctx context.Context, code string, at time.Time) (*domain.Coupon, error)
	ReleaseCouponUsage(ctx context.Context, code string) error

	SaveProductDiscount(ctx context.Context, discount *domain.ProductDiscount) (*domain.ProductDiscount, error)
	ActiveProductDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.ProductDiscount, error)

	SaveCampaign(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	SaveCampaignDiscount(ctx context.Context, discount *domain.CampaignDiscount) (*domain.CampaignDiscount, error)
	ActiveCampaignDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.CampaignDiscount, error)
}
