package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
	"github.com/commercegrid/backoffice/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists order aggregates in PostgreSQL using GORM. An order
// and its lines are written in one transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{}, &orderLineRecord{})
	}
	return repo
}

type orderRecord struct {
	ID             int64           `gorm:"primaryKey;column:id"`
	Status         string          `gorm:"column:status;type:varchar(32)"`
	CouponCode     string          `gorm:"column:coupon_code;size:64"`
	IdempotencyKey string          `gorm:"column:idempotency_key;size:128;uniqueIndex:idx_orders_idempotency_key,where:idempotency_key <> ''"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;index"`
	ProductID int64           `gorm:"column:product_id"`
	VariantID *int64          `gorm:"column:variant_id"`
	Quantity  int64           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Save writes the order and replaces its lines atomically.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", record.ID).Delete(&orderLineRecord{}).Error; err != nil {
			return err
		}
		lines := toLineRecords(record.ID, order.Lines)
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches the order with its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &record)
}

// GetByIdempotencyKey fetches a previously confirmed order under the key.
func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).First(&record, "idempotency_key = ? AND idempotency_key <> ''", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &record)
}

// List returns every stored order with lines.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := r.hydrate(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) hydrate(ctx context.Context, record *orderRecord) (*domain.Order, error) {
	var lines []orderLineRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", record.ID).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return record.toDomain(lines), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres orders repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:             order.ID,
		Status:         string(order.Status),
		CouponCode:     order.CouponCode,
		IdempotencyKey: order.IdempotencyKey,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		Total:          order.Total,
		CreatedAt:      order.CreatedAt,
	}
}

func toLineRecords(orderID int64, lines []domain.Line) []orderLineRecord {
	records := make([]orderLineRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, orderLineRecord{
			OrderID:   orderID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return records
}

func (r orderRecord) toDomain(lineRecords []orderLineRecord) *domain.Order {
	lines := make([]domain.Line, 0, len(lineRecords))
	for _, lr := range lineRecords {
		lines = append(lines, domain.Line{
			ProductID: lr.ProductID,
			VariantID: lr.VariantID,
			Quantity:  lr.Quantity,
			UnitPrice: lr.UnitPrice,
		})
	}
	return &domain.Order{
		ID:             r.ID,
		Status:         domain.Status(r.Status),
		Lines:          lines,
		CouponCode:     r.CouponCode,
		IdempotencyKey: r.IdempotencyKey,
		Subtotal:       r.Subtotal,
		DiscountAmount: r.DiscountAmount,
		Total:          r.Total,
		CreatedAt:      r.CreatedAt,
	}
}
