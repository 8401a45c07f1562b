package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	"github.com/commercegrid/backoffice/internal/domains/promotions/ports"
)

// Sources reported in discount quotes.
const (
	SourceProductDiscount  = "product_discount"
	SourceCampaignDiscount = "campaign_discount"
)

// Service evaluates discounts and redeems coupons. It holds no state of its
// own; redemption atomicity lives in the repository.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// ApplicableDiscounts returns live product discounts at the given time.
func (s *Service) ApplicableDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.ProductDiscount, error) {
	return s.repo.ActiveProductDiscounts(ctx, productID, at)
}

// ApplicableCampaignDiscounts returns campaign-linked discounts whose
// campaign is active and inside its display window.
func (s *Service) ApplicableCampaignDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.CampaignDiscount, error) {
	return s.repo.ActiveCampaignDiscounts(ctx, productID, at)
}

// EvaluateDiscount picks the best product-level discount for the amount,
// considering standalone product discounts and campaign discounts. A product
// with no live discount quotes zero, not an error.
func (s *Service) EvaluateDiscount(ctx context.Context, productID int64, orderAmount decimal.Decimal, at time.Time) (ports.DiscountQuote, error) {
	quote := ports.DiscountQuote{Amount: decimal.Zero}

	discounts, err := s.repo.ActiveProductDiscounts(ctx, productID, at)
	if err != nil {
		return quote, err
	}
	for _, d := range discounts {
		if amount := d.AmountFor(orderAmount); amount.GreaterThan(quote.Amount) {
			quote.Amount = amount
			quote.Source = SourceProductDiscount
		}
	}

	campaignDiscounts, err := s.repo.ActiveCampaignDiscounts(ctx, productID, at)
	if err != nil {
		return quote, err
	}
	for _, d := range campaignDiscounts {
		if amount := d.AmountFor(orderAmount); amount.GreaterThan(quote.Amount) {
			quote.Amount = amount
			quote.Source = SourceCampaignDiscount
		}
	}
	return quote, nil
}

// QuoteCoupon runs every redemption gate and computes the discount without
// consuming usage. Order pricing uses this for previews.
func (s *Service) QuoteCoupon(ctx context.Context, code string, orderAmount decimal.Decimal, at time.Time) (ports.Redemption, error) {
	coupon, err := s.repo.CouponByCode(ctx, code)
	if err != nil {
		return ports.Redemption{}, err
	}
	if err := coupon.Redeemable(orderAmount, at); err != nil {
		return ports.Redemption{}, err
	}
	return ports.Redemption{Code: coupon.Code, DiscountAmount: coupon.DiscountFor(orderAmount)}, nil
}

// RedeemCoupon validates the gates in order (not found, inactive/window,
// limit exceeded, below minimum), then consumes exactly one usage through
// the repository's conditional update. The pre-check gives deterministic
// error ordering; the conditional update is what prevents over-redemption
// under concurrency.
func (s *Service) RedeemCoupon(ctx context.Context, code string, orderAmount decimal.Decimal, at time.Time) (ports.Redemption, error) {
	coupon, err := s.repo.CouponByCode(ctx, code)
	if err != nil {
		return ports.Redemption{}, err
	}
	if err := coupon.Redeemable(orderAmount, at); err != nil {
		return ports.Redemption{}, err
	}
	redeemed, err := s.repo.RedeemCoupon(ctx, code, at)
	if err != nil {
		return ports.Redemption{}, err
	}
	return ports.Redemption{Code: redeemed.Code, DiscountAmount: redeemed.DiscountFor(orderAmount)}, nil
}

// ReleaseCouponUsage hands back one consumed usage. Order confirmation calls
// this when a step after redemption fails, so an aborted order never leaves
// the coupon's usedCount inflated.
func (s *Service) ReleaseCouponUsage(ctx context.Context, code string) error {
	return s.repo.ReleaseCouponUsage(ctx, code)
}

// IsBusinessRejection reports whether the error is an expected redemption
// outcome rather than a system fault.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, domain.ErrCouponInactive) ||
		errors.Is(err, domain.ErrUsageLimitReached) ||
		errors.Is(err, domain.ErrBelowMinimumAmount)
}

var _ ports.Service = (*Service)(nil)
