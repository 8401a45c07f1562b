package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&inventoryItemRecord{},
		&couponRecord{},
		&productDiscountRecord{},
		&campaignRecord{},
		&campaignDiscountRecord{},
		&transactionRecord{},
		&refundRecord{},
		&orderRecord{},
		&orderLineRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	SKU       string          `gorm:"column:sku;uniqueIndex;size:100"`
	Name      string          `gorm:"column:name;size:255"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Status    string          `gorm:"column:status;type:varchar(32);index"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at;index"`
}

func (productRecord) TableName() string { return "products" }

// Inventory schema mirrors the inventory Postgres adapter.
type inventoryItemRecord struct {
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

func (inventoryItemRecord) TableName() string { return "inventory_items" }

// Coupon schema mirrors the promotions Postgres adapter.
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

// Payment ledger schema mirrors the payments Postgres adapter.
type transactionRecord struct {
	ID                   int64           `gorm:"primaryKey;column:id"`
	OrderID              int64           `gorm:"column:order_id;index:idx_payment_tx_order_type_status"`
	Type                 string          `gorm:"column:tx_type;type:varchar(32);index:idx_payment_tx_order_type_status"`
	Status               string          `gorm:"column:status;type:varchar(32);index:idx_payment_tx_order_type_status"`
	Amount               decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	GatewayTransactionID string          `gorm:"column:gateway_transaction_id;size:128;index"`
	CreatedAt            time.Time       `gorm:"column:created_at;index"`
}

func (transactionRecord) TableName() string { return "payment_transactions" }

type refundRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	OrderID     int64           `gorm:"column:order_id;index"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	Status      string          `gorm:"column:status;type:varchar(32);index"`
	RequestedBy string          `gorm:"column:requested_by;size:128"`
	CreatedAt   time.Time       `gorm:"column:created_at;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (refundRecord) TableName() string { return "refunds" }

// Order schema mirrors the orders Postgres adapter.
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
