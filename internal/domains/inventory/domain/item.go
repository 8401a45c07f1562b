package domain

import (
	"errors"
	"fmt"
)

// Status enumerates inventory row lifecycle. Rows are never hard-deleted;
// retiring a row flips it to inactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var (
	ErrInvalidProductID   = errors.New("product id must be greater than zero")
	ErrInvalidWarehouseID = errors.New("warehouse id must be greater than zero")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInvalidStatus      = errors.New("inventory status is invalid")
	ErrInsufficientStock  = errors.New("insufficient available stock")
	ErrReleaseExceedsHold = errors.New("release exceeds reserved quantity")

	// ErrStockIntegrity signals reserved > on-hand, which no valid mutation
	// can produce. Callers must surface it, never clamp it away.
	ErrStockIntegrity = errors.New("reserved quantity exceeds on-hand quantity")
)

// StockKey addresses inventory rows by product, optional variant, and
// optional warehouse. A nil VariantID matches only rows without a variant;
// a nil WarehouseID matches rows in every warehouse.
type StockKey struct {
	ProductID   int64
	VariantID   *int64
	WarehouseID *int64
}

func (k StockKey) String() string {
	s := fmt.Sprintf("product=%d", k.ProductID)
	if k.VariantID != nil {
		s += fmt.Sprintf(" variant=%d", *k.VariantID)
	}
	if k.WarehouseID != nil {
		s += fmt.Sprintf(" warehouse=%d", *k.WarehouseID)
	}
	return s
}

// Item tracks stock for one product/variant in one warehouse.
type Item struct {
	ID           int64
	ProductID    int64
	VariantID    *int64
	WarehouseID  int64
	OnHand       int64
	Reserved     int64
	ReorderPoint int64
	SafetyStock  int64
	Status       Status
}

// NewItem validates and constructs an inventory row.
func NewItem(productID int64, variantID *int64, warehouseID, onHand, reorderPoint, safetyStock int64) (*Item, error) {
	item := &Item{
		ProductID:    productID,
		VariantID:    variantID,
		WarehouseID:  warehouseID,
		OnHand:       onHand,
		ReorderPoint: reorderPoint,
		SafetyStock:  safetyStock,
		Status:       StatusActive,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate enforces invariants on the row, including reserved <= on-hand.
func (i *Item) Validate() error {
	if i.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if i.WarehouseID <= 0 {
		return ErrInvalidWarehouseID
	}
	if i.OnHand < 0 || i.Reserved < 0 {
		return ErrInvalidQuantity
	}
	if i.Reserved > i.OnHand {
		return ErrStockIntegrity
	}
	switch i.Status {
	case StatusActive, StatusInactive:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Available is on-hand stock minus reserved, the quantity new orders may claim.
func (i *Item) Available() int64 {
	return i.OnHand - i.Reserved
}

// NeedsReorder reports whether availability has fallen to the reorder point.
func (i *Item) NeedsReorder() bool {
	return i.Status == StatusActive && i.Available() <= i.ReorderPoint
}

// BelowSafetyStock reports the stricter urgent-restock condition.
func (i *Item) BelowSafetyStock() bool {
	return i.Status == StatusActive && i.Available() <= i.SafetyStock
}

// Receive adds delivered stock to the on-hand count.
func (i *Item) Receive(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	i.OnHand += qty
	return nil
}

// Reserve holds stock for a pending order. The availability check and the
// increment happen together so a caller holding the row cannot oversell it.
func (i *Item) Reserve(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i.Status != StatusActive {
		return ErrInsufficientStock
	}
	if i.Available() < qty {
		return ErrInsufficientStock
	}
	i.Reserved += qty
	return nil
}

// Release returns reserved stock after an order is cancelled or rejected.
func (i *Item) Release(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > i.Reserved {
		return ErrReleaseExceedsHold
	}
	i.Reserved -= qty
	return nil
}

// Fulfill consumes reserved stock once an order ships.
func (i *Item) Fulfill(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > i.Reserved {
		return ErrReleaseExceedsHold
	}
	i.Reserved -= qty
	i.OnHand -= qty
	return nil
}

// Matches reports whether the row is addressed by the key.
func (i *Item) Matches(key StockKey) bool {
	if i.ProductID != key.ProductID {
		return false
	}
	if key.VariantID == nil {
		if i.VariantID != nil {
			return false
		}
	} else if i.VariantID == nil || *i.VariantID != *key.VariantID {
		return false
	}
	if key.WarehouseID != nil && i.WarehouseID != *key.WarehouseID {
		return false
	}
	return true
}
