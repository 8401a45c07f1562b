package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/commercegrid/backoffice/internal/domains/payments/domain"
	"github.com/commercegrid/backoffice/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists the payment ledger in PostgreSQL using GORM. The
// transactions table is append-only: rows are inserted, never updated.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&transactionRecord{}, &refundRecord{})
	}
	return repo
}

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

// RecordTransaction appends one ledger row.
func (r *Repository) RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	record := transactionRecord{
		OrderID:              tx.OrderID,
		Type:                 string(tx.Type),
		Status:               string(tx.Status),
		Amount:               tx.Amount,
		GatewayTransactionID: tx.GatewayTransactionID,
		CreatedAt:            tx.CreatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// TransactionsByOrder lists the full ledger for one order.
func (r *Repository) TransactionsByOrder(ctx context.Context, orderID int64) ([]*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []transactionRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return toTransactionList(records), nil
}

// CompletedSaleAmount sums SUCCESS sale rows for the order; 0 when none.
func (r *Repository) CompletedSaleAmount(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if err := r.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&transactionRecord{}).
		Where("order_id = ? AND tx_type = ? AND status = ?", orderID, string(domain.TypeSale), string(domain.StatusSuccess)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// HasPendingTransactions reports whether the order still has PENDING rows.
func (r *Repository) HasPendingTransactions(ctx context.Context, orderID int64) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&transactionRecord{}).
		Where("order_id = ? AND status = ?", orderID, string(domain.StatusPending)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindStalePending lists PENDING rows created before the cutoff.
func (r *Repository) FindStalePending(ctx context.Context, cutoff time.Time) ([]*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []transactionRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.StatusPending), cutoff).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toTransactionList(records), nil
}

// FindExpiredAuthorizations lists PENDING authorization rows past expiry.
func (r *Repository) FindExpiredAuthorizations(ctx context.Context, expiry time.Time) ([]*domain.Transaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []transactionRecord
	err := r.db.WithContext(ctx).
		Where("tx_type = ? AND status = ? AND created_at < ?", string(domain.TypeAuthorization), string(domain.StatusPending), expiry).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toTransactionList(records), nil
}

// SaveRefund inserts or updates a refund request.
func (r *Repository) SaveRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, errors.New("refund is nil")
	}
	record := refundRecord{
		ID:          refund.ID,
		OrderID:     refund.OrderID,
		TotalAmount: refund.TotalAmount,
		Status:      string(refund.Status),
		RequestedBy: refund.RequestedBy,
		CreatedAt:   refund.CreatedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// RefundByID fetches a refund request.
func (r *Repository) RefundByID(ctx context.Context, id int64) (*domain.Refund, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record refundRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// RefundsByOrder lists refund requests for one order.
func (r *Repository) RefundsByOrder(ctx context.Context, orderID int64) ([]*domain.Refund, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []refundRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	refunds := make([]*domain.Refund, 0, len(records))
	for i := range records {
		refunds = append(refunds, records[i].toDomain())
	}
	return refunds, nil
}

// CompletedRefundAmount sums COMPLETED refund rows for the order; 0 when none.
func (r *Repository) CompletedRefundAmount(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if err := r.ensureDB(); err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&refundRecord{}).
		Where("order_id = ? AND status = ?", orderID, string(domain.RefundCompleted)).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payments repository not configured")
	}
	return nil
}

func (r transactionRecord) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:                   r.ID,
		OrderID:              r.OrderID,
		Type:                 domain.TransactionType(r.Type),
		Status:               domain.TransactionStatus(r.Status),
		Amount:               r.Amount,
		GatewayTransactionID: r.GatewayTransactionID,
		CreatedAt:            r.CreatedAt,
	}
}

func toTransactionList(records []transactionRecord) []*domain.Transaction {
	transactions := make([]*domain.Transaction, 0, len(records))
	for i := range records {
		transactions = append(transactions, records[i].toDomain())
	}
	return transactions
}

func (r refundRecord) toDomain() *domain.Refund {
	return &domain.Refund{
		ID:          r.ID,
		OrderID:     r.OrderID,
		TotalAmount: r.TotalAmount,
		Status:      domain.RefundStatus(r.Status),
		RequestedBy: r.RequestedBy,
		CreatedAt:   r.CreatedAt,
	}
}
