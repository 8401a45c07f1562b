package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Status enumerates product visibility.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var (
	ErrInvalidSKU    = errors.New("product sku is required")
	ErrInvalidName   = errors.New("product name is required")
	ErrNegativePrice = errors.New("product price must not be negative")
	ErrInvalidStatus = errors.New("product status is invalid")
)

// Product models a sellable catalog entry.
type Product struct {
	ID     int64
	SKU    string
	Name   string
	Price  decimal.Decimal
	Status Status
}

// NewProduct validates and constructs a product aggregate.
func NewProduct(id int64, sku, name string, price decimal.Decimal, status Status) (*Product, error) {
	product := &Product{
		ID:     id,
		SKU:    strings.TrimSpace(sku),
		Name:   strings.TrimSpace(name),
		Price:  price,
		Status: status,
	}
	if product.Status == "" {
		product.Status = StatusActive
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if p.SKU == "" {
		return ErrInvalidSKU
	}
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	switch p.Status {
	case StatusActive, StatusInactive:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Sellable reports whether the product can be priced into an order.
func (p *Product) Sellable() bool {
	return p.Status == StatusActive
}
