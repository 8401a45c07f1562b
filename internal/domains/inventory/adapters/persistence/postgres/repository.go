package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	"github.com/commercegrid/backoffice/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists inventory rows in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&itemRecord{})
	}
	return repo
}

type itemRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	ProductID    int64     `gorm:"column:product_id;index:idx_inventory_product_variant"`
	VariantID    *int64    `gorm:"column:variant_id;index:idx_inventory_product_variant"`
	WarehouseID  int64     `gorm:"column:warehouse_id;index"`
	OnHand       int64     `gorm:"column:quantity_on_hand"`
	Reserved     int64     `gorm:"column:quantity_reserved"`
	ReorderPoint int64     `gorm:"column:reorder_point"`
	SafetyStock  int64     `gorm:"column:safety_stock"`
	Status       string    `gorm:"column:status;type:varchar(32);index"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at;index"`
}

func (itemRecord) TableName() string { return "inventory_items" }

// Save inserts or updates an inventory row.
func (r *Repository) Save(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("inventory item is nil")
	}
	record := toRecord(item)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity_on_hand":  record.OnHand,
				"quantity_reserved": record.Reserved,
				"reorder_point":     record.ReorderPoint,
				"safety_stock":      record.SafetyStock,
				"status":            record.Status,
				"updated_at":        gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a single inventory row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record itemRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// FindByKey returns all rows addressed by the key, regardless of status.
func (r *Repository) FindByKey(ctx context.Context, key domain.StockKey) ([]*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []itemRecord
	if err := keyScope(r.db.WithContext(ctx), key).Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

// AvailableQuantity sums on-hand minus reserved across active rows matching
// the key. An empty result set yields 0.
func (r *Repository) AvailableQuantity(ctx context.Context, key domain.StockKey) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var total int64
	err := keyScope(r.db.WithContext(ctx).Model(&itemRecord{}), key).
		Where("status = ?", string(domain.StatusActive)).
		Select("COALESCE(SUM(quantity_on_hand - quantity_reserved), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FindNeedingReorder lists active rows at or below their reorder point.
func (r *Repository) FindNeedingReorder(ctx context.Context) ([]*domain.Item, error) {
	return r.findBreaching(ctx, "reorder_point")
}

// FindBelowSafetyStock lists active rows at or below their safety stock.
func (r *Repository) FindBelowSafetyStock(ctx context.Context) ([]*domain.Item, error) {
	return r.findBreaching(ctx, "safety_stock")
}

func (r *Repository) findBreaching(ctx context.Context, thresholdColumn string) ([]*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []itemRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusActive)).
		Where("quantity_on_hand - quantity_reserved <= "+thresholdColumn).
		Order("product_id, warehouse_id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

// Reserve claims qty across rows matching the key inside one transaction.
// Matching rows are locked FOR UPDATE so the availability check and the
// counter increments commit as a unit; concurrent reservations against the
// same stock serialize instead of overselling.
func (r *Repository) Reserve(ctx context.Context, key domain.StockKey, qty int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records, err := lockRows(tx, key, string(domain.StatusActive))
		if err != nil {
			return err
		}
		var total int64
		for i := range records {
			total += records[i].OnHand - records[i].Reserved
		}
		if total < qty {
			return domain.ErrInsufficientStock
		}
		remaining := qty
		for i := range records {
			if remaining == 0 {
				break
			}
			headroom := records[i].OnHand - records[i].Reserved
			take := headroom
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				continue
			}
			result := tx.Model(&itemRecord{}).
				Where("id = ? AND quantity_on_hand - quantity_reserved >= ?", records[i].ID, take).
				Updates(map[string]any{
					"quantity_reserved": gorm.Expr("quantity_reserved + ?", take),
					"updated_at":        gorm.Expr("NOW()"),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrInsufficientStock
			}
			remaining -= take
		}
		return nil
	})
}

// Release returns reserved stock to the available pool.
func (r *Repository) Release(ctx context.Context, key domain.StockKey, qty int64) error {
	return r.consumeReserved(ctx, key, qty, false)
}

// Fulfill consumes reserved stock and decrements on-hand when an order ships.
func (r *Repository) Fulfill(ctx context.Context, key domain.StockKey, qty int64) error {
	return r.consumeReserved(ctx, key, qty, true)
}

func (r *Repository) consumeReserved(ctx context.Context, key domain.StockKey, qty int64, decrementOnHand bool) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records, err := lockRows(tx, key, "")
		if err != nil {
			return err
		}
		var totalReserved int64
		for i := range records {
			totalReserved += records[i].Reserved
		}
		if totalReserved < qty {
			return domain.ErrReleaseExceedsHold
		}
		remaining := qty
		for i := range records {
			if remaining == 0 {
				break
			}
			take := records[i].Reserved
			if take > remaining {
				take = remaining
			}
			if take <= 0 {
				continue
			}
			updates := map[string]any{
				"quantity_reserved": gorm.Expr("quantity_reserved - ?", take),
				"updated_at":        gorm.Expr("NOW()"),
			}
			if decrementOnHand {
				updates["quantity_on_hand"] = gorm.Expr("quantity_on_hand - ?", take)
			}
			result := tx.Model(&itemRecord{}).
				Where("id = ? AND quantity_reserved >= ?", records[i].ID, take).
				Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrReleaseExceedsHold
			}
			remaining -= take
		}
		return nil
	})
}

func lockRows(tx *gorm.DB, key domain.StockKey, status string) ([]itemRecord, error) {
	var records []itemRecord
	query := keyScope(tx, key).Clauses(clause.Locking{Strength: "UPDATE"}).Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func keyScope(tx *gorm.DB, key domain.StockKey) *gorm.DB {
	tx = tx.Where("product_id = ?", key.ProductID)
	if key.VariantID != nil {
		tx = tx.Where("variant_id = ?", *key.VariantID)
	} else {
		tx = tx.Where("variant_id IS NULL")
	}
	if key.WarehouseID != nil {
		tx = tx.Where("warehouse_id = ?", *key.WarehouseID)
	}
	return tx
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres inventory repository not configured")
	}
	return nil
}

func toRecord(item *domain.Item) itemRecord {
	return itemRecord{
		ID:           item.ID,
		ProductID:    item.ProductID,
		VariantID:    item.VariantID,
		WarehouseID:  item.WarehouseID,
		OnHand:       item.OnHand,
		Reserved:     item.Reserved,
		ReorderPoint: item.ReorderPoint,
		SafetyStock:  item.SafetyStock,
		Status:       string(item.Status),
	}
}

func (r itemRecord) toDomain() *domain.Item {
	return &domain.Item{
		ID:           r.ID,
		ProductID:    r.ProductID,
		VariantID:    r.VariantID,
		WarehouseID:  r.WarehouseID,
		OnHand:       r.OnHand,
		Reserved:     r.Reserved,
		ReorderPoint: r.ReorderPoint,
		SafetyStock:  r.SafetyStock,
		Status:       domain.Status(r.Status),
	}
}

func toDomainList(records []itemRecord) []*domain.Item {
	items := make([]*domain.Item, 0, len(records))
	for i := range records {
		items = append(items, records[i].toDomain())
	}
	return items
}
