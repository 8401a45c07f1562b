package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDiscount is a per-product override, same validity-window pattern as
// a coupon but scoped to one product instead of an order.
type ProductDiscount struct {
	ID        int64
	ProductID int64
	Type      DiscountType
	Value     decimal.Decimal
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
}

// AppliesAt reports whether the discount is live at the given time.
func (d *ProductDiscount) AppliesAt(at time.Time) bool {
	return d.Active && !at.Before(d.StartsAt) && !at.After(d.EndsAt)
}

// AmountFor computes the discount against the given amount.
func (d *ProductDiscount) AmountFor(amount decimal.Decimal) decimal.Decimal {
	if d.Type == DiscountPercentage {
		return amount.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return d.Value.Round(2)
}

// CampaignStatus enumerates campaign lifecycle.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignArchived CampaignStatus = "archived"
)

// Campaign groups product discounts under one display window.
type Campaign struct {
	ID          int64
	Name        string
	Status      CampaignStatus
	DisplayFrom time.Time
	DisplayTo   time.Time
}

// Visible reports whether the campaign is live at the given time.
func (c *Campaign) Visible(at time.Time) bool {
	return c.Status == CampaignActive && !at.Before(c.DisplayFrom) && !at.After(c.DisplayTo)
}

// CampaignDiscount links a product discount to a campaign; it applies only
// while the owning campaign is visible.
type CampaignDiscount struct {
	ID         int64
	CampaignID int64
	ProductID  int64
	Type       DiscountType
	Value      decimal.Decimal
}

// AmountFor computes the discount against the given amount.
func (d *CampaignDiscount) AmountFor(amount decimal.Decimal) decimal.Decimal {
	if d.Type == DiscountPercentage {
		return amount.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return d.Value.Round(2)
}
