package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	"github.com/commercegrid/backoffice/internal/domains/promotions/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory promotions adapter. RedeemCoupon holds the
// mutex across the gate checks and the usedCount increment, mirroring the
// conditional update the postgres adapter issues.
type Repository struct {
	mu                sync.RWMutex
	coupons           map[string]*domain.Coupon
	productDiscounts  map[int64]*domain.ProductDiscount
	campaigns         map[int64]*domain.Campaign
	campaignDiscounts map[int64]*domain.CampaignDiscount
	nextID            int64
}

func NewRepository() *Repository {
	return &Repository{
		coupons:           map[string]*domain.Coupon{},
		productDiscounts:  map[int64]*domain.ProductDiscount{},
		campaigns:         map[int64]*domain.Campaign{},
		campaignDiscounts: map[int64]*domain.CampaignDiscount{},
	}
}

func (r *Repository) SaveCoupon(_ context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	if coupon == nil {
		return nil, errors.New("coupon is nil")
	}
	clone := *coupon
	clone.Code = strings.ToUpper(strings.TrimSpace(clone.Code))
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	r.coupons[clone.Code] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) CouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coupon, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *coupon
	return &clone, nil
}

func (r *Repository) RedeemCoupon(_ context.Context, code string, at time.Time) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	coupon, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !coupon.Active || !coupon.InWindow(at) {
		return nil, domain.ErrCouponInactive
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, domain.ErrUsageLimitReached
	}
	coupon.UsedCount++
	clone := *coupon
	return &clone, nil
}

func (r *Repository) ReleaseCouponUsage(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	coupon, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return ports.ErrNotFound
	}
	if coupon.UsedCount > 0 {
		coupon.UsedCount--
	}
	return nil
}

func (r *Repository) SaveProductDiscount(_ context.Context, discount *domain.ProductDiscount) (*domain.ProductDiscount, error) {
	if discount == nil {
		return nil, errors.New("product discount is nil")
	}
	clone := *discount
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	r.productDiscounts[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) ActiveProductDiscounts(_ context.Context, productID int64, at time.Time) ([]*domain.ProductDiscount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.ProductDiscount
	for _, discount := range r.productDiscounts {
		if discount.ProductID == productID && discount.AppliesAt(at) {
			clone := *discount
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (r *Repository) SaveCampaign(_ context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if campaign == nil {
		return nil, errors.New("campaign is nil")
	}
	clone := *campaign
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	r.campaigns[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) SaveCampaignDiscount(_ context.Context, discount *domain.CampaignDiscount) (*domain.CampaignDiscount, error) {
	if discount == nil {
		return nil, errors.New("campaign discount is nil")
	}
	clone := *discount
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	r.campaignDiscounts[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) ActiveCampaignDiscounts(_ context.Context, productID int64, at time.Time) ([]*domain.CampaignDiscount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.CampaignDiscount
	for _, discount := range r.campaignDiscounts {
		if discount.ProductID != productID {
			continue
		}
		campaign, ok := r.campaigns[discount.CampaignID]
		if !ok || !campaign.Visible(at) {
			continue
		}
		clone := *discount
		list = append(list, &clone)
	}
	return list, nil
}
