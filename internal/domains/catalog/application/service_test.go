package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/backoffice/internal/domains/catalog/adapters/memory"
	"github.com/commercegrid/backoffice/internal/domains/catalog/domain"
	"github.com/commercegrid/backoffice/internal/domains/catalog/ports"
)

func TestSaveAndGetProduct(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	product, err := domain.NewProduct(0, "WIDGET-1", "Widget", decimal.RequireFromString("19.99"), domain.StatusActive)
	require.NoError(t, err)
	saved, err := svc.SaveProduct(ctx, product)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	got, err := svc.GetProduct(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "WIDGET-1", got.SKU)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, got.Sellable())

	bySKU, err := svc.GetProductBySKU(ctx, "WIDGET-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, bySKU.ID)
}

func TestSaveProduct_RejectsInvalid(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	_, err := svc.SaveProduct(ctx, &domain.Product{Name: "No SKU", Price: decimal.NewFromInt(5), Status: domain.StatusActive})
	require.ErrorIs(t, err, domain.ErrInvalidSKU)

	_, err = svc.SaveProduct(ctx, &domain.Product{SKU: "X", Name: "Negative", Price: decimal.NewFromInt(-1), Status: domain.StatusActive})
	require.ErrorIs(t, err, domain.ErrNegativePrice)
}

func TestDeleteProduct(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	product, err := domain.NewProduct(0, "GONE-1", "Ephemeral", decimal.NewFromInt(1), domain.StatusActive)
	require.NoError(t, err)
	saved, err := svc.SaveProduct(ctx, product)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, saved.ID))
	_, err = svc.GetProduct(ctx, saved.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.ErrorIs(t, svc.DeleteProduct(ctx, saved.ID), ports.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	for _, sku := range []string{"A-1", "A-2", "A-3"} {
		product, err := domain.NewProduct(0, sku, "Item "+sku, decimal.NewFromInt(10), domain.StatusActive)
		require.NoError(t, err)
		_, err = svc.SaveProduct(ctx, product)
		require.NoError(t, err)
	}
	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}
