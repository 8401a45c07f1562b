package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	"github.com/commercegrid/backoffice/internal/domains/promotions/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists promotions in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&couponRecord{}, &productDiscountRecord{}, &campaignRecord{}, &campaignDiscountRecord{})
	}
	return repo
}

type couponRecord struct {
	ID                    int64            `gorm:"primaryKey;column:id"`
	Code                  string           `gorm:"column:code;uniqueIndex;size:64"`
	Type                  string           `gorm:"column:discount_type;type:varchar(32)"`
	Value                 decimal.Decimal  `gorm:"column:discount_value;type:numeric(12,2)"`
	MinimumOrderAmount    decimal.Decimal  `gorm:"column:minimum_order_amount;type:numeric(12,2)"`
	MaximumDiscountAmount *decimal.Decimal `gorm:"column:maximum_discount_amount;type:numeric(12,2)"`
	StartsAt              time.Time        `gorm:"column:starts_at;index"`
	EndsAt                time.Time        `gorm:"column:ends_at;index"`
	UsageLimit            int64            `gorm:"column:usage_limit"`
	UsedCount             int64            `gorm:"column:used_count"`
	Active                bool             `gorm:"column:active;index"`
	ProductIDs            pq.Int64Array    `gorm:"column:product_ids;type:bigint[]"`
	CreatedAt             time.Time        `gorm:"column:created_at;index"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;index"`
}

func (couponRecord) TableName() string { return "coupons" }

type productDiscountRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	ProductID int64           `gorm:"column:product_id;index"`
	Type      string          `gorm:"column:discount_type;type:varchar(32)"`
	Value     decimal.Decimal `gorm:"column:discount_value;type:numeric(12,2)"`
	StartsAt  time.Time       `gorm:"column:starts_at"`
	EndsAt    time.Time       `gorm:"column:ends_at"`
	Active    bool            `gorm:"column:active;index"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productDiscountRecord) TableName() string { return "product_discounts" }

type campaignRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;size:255"`
	Status      string    `gorm:"column:status;type:varchar(32);index"`
	DisplayFrom time.Time `gorm:"column:display_from"`
	DisplayTo   time.Time `gorm:"column:display_to"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (campaignRecord) TableName() string { return "campaigns" }

type campaignDiscountRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	CampaignID int64           `gorm:"column:campaign_id;index"`
	ProductID  int64           `gorm:"column:product_id;index"`
	Type       string          `gorm:"column:discount_type;type:varchar(32)"`
	Value      decimal.Decimal `gorm:"column:discount_value;type:numeric(12,2)"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (campaignDiscountRecord) TableName() string { return "campaign_discounts" }

// SaveCoupon inserts or updates a coupon keyed by code. UsedCount is never
// written here; only RedeemCoupon mutates it.
func (r *Repository) SaveCoupon(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, errors.New("coupon is nil")
	}
	record := toCouponRecord(coupon)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.Assignments(map[string]any{
				"discount_type":           record.Type,
				"discount_value":          record.Value,
				"minimum_order_amount":    record.MinimumOrderAmount,
				"maximum_discount_amount": record.MaximumDiscountAmount,
				"starts_at":               record.StartsAt,
				"ends_at":                 record.EndsAt,
				"usage_limit":             record.UsageLimit,
				"active":                  record.Active,
				"product_ids":             record.ProductIDs,
				"updated_at":              gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.CouponByCode(ctx, record.Code)
}

// CouponByCode fetches a coupon by its unique code.
func (r *Repository) CouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record couponRecord
	if err := r.db.WithContext(ctx).First(&record, "code = ?", normalizeCode(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// RedeemCoupon consumes one usage through a single conditional update. The
// gates and the increment commit together, so concurrent redemptions of the
// last usage serialize: exactly one succeeds. A zero-row update is re-read
// to classify which gate failed.
func (r *Repository) RedeemCoupon(ctx context.Context, code string, at time.Time) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	result := r.db.WithContext(ctx).Model(&couponRecord{}).
		Where("code = ? AND active AND starts_at <= ? AND ends_at >= ?", code, at, at).
		Where("usage_limit = 0 OR used_count < usage_limit").
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		coupon, err := r.CouponByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if !coupon.Active || !coupon.InWindow(at) {
			return nil, domain.ErrCouponInactive
		}
		return nil, domain.ErrUsageLimitReached
	}
	return r.CouponByCode(ctx, code)
}

// ReleaseCouponUsage hands back one usage consumed by RedeemCoupon. The
// decrement is conditional on used_count > 0; a zero-row update against an
// existing coupon is a no-op, not an error.
func (r *Repository) ReleaseCouponUsage(ctx context.Context, code string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	code = normalizeCode(code)
	result := r.db.WithContext(ctx).Model(&couponRecord{}).
		Where("code = ? AND used_count > 0", code).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count - 1"),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.CouponByCode(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

// SaveProductDiscount inserts or updates a product discount.
func (r *Repository) SaveProductDiscount(ctx context.Context, discount *domain.ProductDiscount) (*domain.ProductDiscount, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, errors.New("product discount is nil")
	}
	record := productDiscountRecord{
		ID:        discount.ID,
		ProductID: discount.ProductID,
		Type:      string(discount.Type),
		Value:     discount.Value,
		StartsAt:  discount.StartsAt,
		EndsAt:    discount.EndsAt,
		Active:    discount.Active,
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// ActiveProductDiscounts lists live discounts for the product at the given time.
func (r *Repository) ActiveProductDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.ProductDiscount, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productDiscountRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND active AND starts_at <= ? AND ends_at >= ?", productID, at, at).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	discounts := make([]*domain.ProductDiscount, 0, len(records))
	for i := range records {
		discounts = append(discounts, records[i].toDomain())
	}
	return discounts, nil
}

// SaveCampaign inserts or updates a campaign.
func (r *Repository) SaveCampaign(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, errors.New("campaign is nil")
	}
	record := campaignRecord{
		ID:          campaign.ID,
		Name:        campaign.Name,
		Status:      string(campaign.Status),
		DisplayFrom: campaign.DisplayFrom,
		DisplayTo:   campaign.DisplayTo,
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &domain.Campaign{
		ID:          record.ID,
		Name:        record.Name,
		Status:      domain.CampaignStatus(record.Status),
		DisplayFrom: record.DisplayFrom,
		DisplayTo:   record.DisplayTo,
	}, nil
}

// SaveCampaignDiscount inserts or updates a campaign-linked discount.
func (r *Repository) SaveCampaignDiscount(ctx context.Context, discount *domain.CampaignDiscount) (*domain.CampaignDiscount, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, errors.New("campaign discount is nil")
	}
	record := campaignDiscountRecord{
		ID:         discount.ID,
		CampaignID: discount.CampaignID,
		ProductID:  discount.ProductID,
		Type:       string(discount.Type),
		Value:      discount.Value,
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// ActiveCampaignDiscounts joins campaign discounts with their campaign and
// filters by campaign status and display window.
func (r *Repository) ActiveCampaignDiscounts(ctx context.Context, productID int64, at time.Time) ([]*domain.CampaignDiscount, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []campaignDiscountRecord
	err := r.db.WithContext(ctx).Model(&campaignDiscountRecord{}).
		Joins("JOIN campaigns ON campaigns.id = campaign_discounts.campaign_id").
		Where("campaign_discounts.product_id = ?", productID).
		Where("campaigns.status = ? AND campaigns.display_from <= ? AND campaigns.display_to >= ?", string(domain.CampaignActive), at, at).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	discounts := make([]*domain.CampaignDiscount, 0, len(records))
	for i := range records {
		discounts = append(discounts, records[i].toDomain())
	}
	return discounts, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres promotions repository not configured")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func toCouponRecord(coupon *domain.Coupon) couponRecord {
	return couponRecord{
		ID:                    coupon.ID,
		Code:                  normalizeCode(coupon.Code),
		Type:                  string(coupon.Type),
		Value:                 coupon.Value,
		MinimumOrderAmount:    coupon.MinimumOrderAmount,
		MaximumDiscountAmount: coupon.MaximumDiscountAmount,
		StartsAt:              coupon.StartsAt,
		EndsAt:                coupon.EndsAt,
		UsageLimit:            coupon.UsageLimit,
		UsedCount:             coupon.UsedCount,
		Active:                coupon.Active,
		ProductIDs:            pq.Int64Array(coupon.ProductIDs),
	}
}

func (r couponRecord) toDomain() *domain.Coupon {
	return &domain.Coupon{
		ID:                    r.ID,
		Code:                  r.Code,
		Type:                  domain.DiscountType(r.Type),
		Value:                 r.Value,
		MinimumOrderAmount:    r.MinimumOrderAmount,
		MaximumDiscountAmount: r.MaximumDiscountAmount,
		StartsAt:              r.StartsAt,
		EndsAt:                r.EndsAt,
		UsageLimit:            r.UsageLimit,
		UsedCount:             r.UsedCount,
		Active:                r.Active,
		ProductIDs:            []int64(r.ProductIDs),
	}
}

func (r productDiscountRecord) toDomain() *domain.ProductDiscount {
	return &domain.ProductDiscount{
		ID:        r.ID,
		ProductID: r.ProductID,
		Type:      domain.DiscountType(r.Type),
		Value:     r.Value,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
		Active:    r.Active,
	}
}

func (r campaignDiscountRecord) toDomain() *domain.CampaignDiscount {
	return &domain.CampaignDiscount{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		ProductID:  r.ProductID,
		Type:       domain.DiscountType(r.Type),
		Value:      r.Value,
	}
}
