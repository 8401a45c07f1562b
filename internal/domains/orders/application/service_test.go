package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/commercegrid/backoffice/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/commercegrid/backoffice/internal/domains/catalog/application"
	catalogdomain "github.com/commercegrid/backoffice/internal/domains/catalog/domain"
	inventorymemory "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/memory"
	inventoryapp "github.com/commercegrid/backoffice/internal/domains/inventory/application"
	inventorydomain "github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	ordersmemory "github.com/commercegrid/backoffice/internal/domains/orders/adapters/memory"
	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
	paymentsmemory "github.com/commercegrid/backoffice/internal/domains/payments/adapters/memory"
	paymentsapp "github.com/commercegrid/backoffice/internal/domains/payments/application"
	paymentsdomain "github.com/commercegrid/backoffice/internal/domains/payments/domain"
	promotionsmemory "github.com/commercegrid/backoffice/internal/domains/promotions/adapters/memory"
	promotionsapp "github.com/commercegrid/backoffice/internal/domains/promotions/application"
	promotionsdomain "github.com/commercegrid/backoffice/internal/domains/promotions/domain"
)

type fixture struct {
	service    *Service
	catalog    *catalogmemory.Repository
	inventory  *inventorymemory.Repository
	promotions *promotionsmemory.Repository
	payments   *paymentsmemory.Repository
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		catalog:    catalogmemory.NewRepository(),
		inventory:  inventorymemory.NewRepository(),
		promotions: promotionsmemory.NewRepository(),
		payments:   paymentsmemory.NewRepository(),
		now:        time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewService(
		ordersmemory.NewRepository(),
		catalogapp.NewService(f.catalog),
		inventoryapp.NewService(f.inventory),
		promotionsapp.NewService(f.promotions),
		paymentsapp.NewService(f.payments),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) seedProduct(t *testing.T, id int64, price string) {
	t.Helper()
	product, err := catalogdomain.NewProduct(id, "SKU-1", "Widget", decimal.RequireFromString(price), catalogdomain.StatusActive)
	require.NoError(t, err)
	product.SKU = product.SKU + "-" + decimal.NewFromInt(id).String()
	_, err = f.catalog.Save(context.Background(), product)
	require.NoError(t, err)
}

func (f *fixture) seedStock(t *testing.T, productID, warehouseID, onHand int64) {
	t.Helper()
	item, err := inventorydomain.NewItem(productID, nil, warehouseID, onHand, 0, 0)
	require.NoError(t, err)
	_, err = f.inventory.Save(context.Background(), item)
	require.NoError(t, err)
}

func (f *fixture) seedCoupon(t *testing.T, coupon *promotionsdomain.Coupon) {
	t.Helper()
	_, err := f.promotions.SaveCoupon(context.Background(), coupon)
	require.NoError(t, err)
}

func (f *fixture) availability(t *testing.T, productID int64) int64 {
	t.Helper()
	available, err := f.inventory.AvailableQuantity(context.Background(), inventorydomain.StockKey{ProductID: productID})
	require.NoError(t, err)
	return available
}

func TestPriceOrder_SubtotalFromCatalogPrices(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "25.00")
	f.seedProduct(t, 2, "10.00")

	pricing, err := f.service.PriceOrder(context.Background(), domain.Draft{Lines: []domain.Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 5},
	}})
	require.NoError(t, err)
	assert.True(t, pricing.Subtotal.Equal(decimal.RequireFromString("100.00")), "subtotal %s", pricing.Subtotal)
	assert.True(t, pricing.DiscountAmount.IsZero())
	assert.True(t, pricing.Total.Equal(pricing.Subtotal))
}

func TestPriceOrder_StacksProductDiscountAndCoupon(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "100.00")
	_, err := f.promotions.SaveProductDiscount(context.Background(), &promotionsdomain.ProductDiscount{
		ProductID: 1,
		Type:      promotionsdomain.DiscountPercentage,
		Value:     decimal.NewFromInt(10),
		StartsAt:  f.now.Add(-time.Hour),
		EndsAt:    f.now.Add(time.Hour),
		Active:    true,
	})
	require.NoError(t, err)
	coupon, err := promotionsdomain.NewCoupon("SAVE5", promotionsdomain.DiscountFixed,
		decimal.NewFromInt(5), decimal.Zero, f.now.Add(-time.Hour), f.now.Add(time.Hour), 0)
	require.NoError(t, err)
	f.seedCoupon(t, coupon)

	pricing, err := f.service.PriceOrder(context.Background(), domain.Draft{
		Lines:      []domain.Line{{ProductID: 1, Quantity: 1}},
		CouponCode: "SAVE5",
	})
	require.NoError(t, err)
	assert.True(t, pricing.ProductDiscount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, pricing.CouponDiscount.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, pricing.DiscountAmount.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, pricing.Total.Equal(decimal.RequireFromString("85.00")))
}

func TestPriceOrder_CombinedDiscountCappedBelowSubtotal(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "10.00")
	_, err := f.promotions.SaveProductDiscount(context.Background(), &promotionsdomain.ProductDiscount{
		ProductID: 1,
		Type:      promotionsdomain.DiscountFixed,
		Value:     decimal.NewFromInt(8),
		StartsAt:  f.now.Add(-time.Hour),
		EndsAt:    f.now.Add(time.Hour),
		Active:    true,
	})
	require.NoError(t, err)
	coupon, err := promotionsdomain.NewCoupon("BIG", promotionsdomain.DiscountFixed,
		decimal.NewFromInt(8), decimal.Zero, f.now.Add(-time.Hour), f.now.Add(time.Hour), 0)
	require.NoError(t, err)
	f.seedCoupon(t, coupon)

	pricing, err := f.service.PriceOrder(context.Background(), domain.Draft{
		Lines:      []domain.Line{{ProductID: 1, Quantity: 1}},
		CouponCode: "BIG",
	})
	require.NoError(t, err)
	assert.True(t, pricing.DiscountAmount.Equal(decimal.RequireFromString("9.99")), "discount %s", pricing.DiscountAmount)
	assert.True(t, pricing.Total.Equal(decimal.RequireFromString("0.01")))
}

func TestPriceOrder_RejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	product, err := catalogdomain.NewProduct(1, "SKU-X", "Retired", decimal.NewFromInt(10), catalogdomain.StatusInactive)
	require.NoError(t, err)
	_, err = f.catalog.Save(context.Background(), product)
	require.NoError(t, err)

	_, err = f.service.PriceOrder(context.Background(), domain.Draft{Lines: []domain.Line{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, domain.ErrProductNotSellable)
}

func TestConfirmOrder_ReservesStockAndConsumesCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "50.00")
	f.seedStock(t, 1, 1, 10)
	coupon, err := promotionsdomain.NewCoupon("TEN", promotionsdomain.DiscountPercentage,
		decimal.NewFromInt(10), decimal.Zero, f.now.Add(-time.Hour), f.now.Add(time.Hour), 3)
	require.NoError(t, err)
	f.seedCoupon(t, coupon)

	order, err := f.service.ConfirmOrder(ctx, domain.Draft{
		Lines:      []domain.Line{{ProductID: 1, Quantity: 4}},
		CouponCode: "TEN",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("180.00")), "total %s", order.Total)

	assert.EqualValues(t, 6, f.availability(t, 1))
	stored, err := f.promotions.CouponByCode(ctx, "TEN")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.UsedCount)
}

func TestConfirmOrder_InsufficientStockReleasesEarlierLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "10.00")
	f.seedProduct(t, 2, "10.00")
	f.seedStock(t, 1, 1, 5)
	f.seedStock(t, 2, 1, 1)

	_, err := f.service.ConfirmOrder(ctx, domain.Draft{Lines: []domain.Line{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	}})
	require.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)

	assert.EqualValues(t, 5, f.availability(t, 1), "first line hold must be released")
	assert.EqualValues(t, 1, f.availability(t, 2))
}

func TestConfirmOrder_CouponRejectionReleasesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "10.00")
	f.seedStock(t, 1, 1, 5)
	coupon, err := promotionsdomain.NewCoupon("MIN100", promotionsdomain.DiscountFixed,
		decimal.NewFromInt(5), decimal.NewFromInt(100), f.now.Add(-time.Hour), f.now.Add(time.Hour), 0)
	require.NoError(t, err)
	f.seedCoupon(t, coupon)

	_, err = f.service.ConfirmOrder(ctx, domain.Draft{
		Lines:      []domain.Line{{ProductID: 1, Quantity: 2}},
		CouponCode: "MIN100",
	})
	require.ErrorIs(t, err, promotionsdomain.ErrBelowMinimumAmount)

	assert.EqualValues(t, 5, f.availability(t, 1))
	stored, err := f.promotions.CouponByCode(ctx, "MIN100")
	require.NoError(t, err)
	assert.Zero(t, stored.UsedCount)
}

type failingSaveRepository struct {
	*ordersmemory.Repository
}

func (r *failingSaveRepository) Save(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errors.New("write timeout")
}

func TestConfirmOrder_SaveFailureReturnsCouponUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "50.00")
	f.seedStock(t, 1, 1, 10)
	coupon, err := promotionsdomain.NewCoupon("TEN", promotionsdomain.DiscountPercentage,
		decimal.NewFromInt(10), decimal.Zero, f.now.Add(-time.Hour), f.now.Add(time.Hour), 3)
	require.NoError(t, err)
	f.seedCoupon(t, coupon)

	service := NewService(
		&failingSaveRepository{Repository: ordersmemory.NewRepository()},
		catalogapp.NewService(f.catalog),
		inventoryapp.NewService(f.inventory),
		promotionsapp.NewService(f.promotions),
		paymentsapp.NewService(f.payments),
		WithClock(func() time.Time { return f.now }),
	)

	_, err = service.ConfirmOrder(ctx, domain.Draft{
		Lines:      []domain.Line{{ProductID: 1, Quantity: 4}},
		CouponCode: "TEN",
	})
	require.Error(t, err)

	assert.EqualValues(t, 10, f.availability(t, 1), "holds must be released")
	stored, err := f.promotions.CouponByCode(ctx, "TEN")
	require.NoError(t, err)
	assert.Zero(t, stored.UsedCount, "aborted confirmation must hand the usage back")
}

func TestConfirmOrder_IdempotencyKeyReturnsStoredOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "10.00")
	f.seedStock(t, 1, 1, 10)

	draft := domain.Draft{
		Lines:          []domain.Line{{ProductID: 1, Quantity: 2}},
		IdempotencyKey: "order-abc",
	}
	first, err := f.service.ConfirmOrder(ctx, draft)
	require.NoError(t, err)
	second, err := f.service.ConfirmOrder(ctx, draft)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 8, f.availability(t, 1), "repeat confirmation must not reserve again")
}

func TestReconcileOrder_DelegatesToPaymentLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, 1, "100.00")
	f.seedStock(t, 1, 1, 10)

	order, err := f.service.ConfirmOrder(ctx, domain.Draft{Lines: []domain.Line{{ProductID: 1, Quantity: 1}}})
	require.NoError(t, err)

	sale, err := paymentsdomain.NewTransaction(order.ID, paymentsdomain.TypeSale, paymentsdomain.StatusSuccess, decimal.NewFromInt(100), "gw-1")
	require.NoError(t, err)
	_, err = f.payments.RecordTransaction(ctx, sale)
	require.NoError(t, err)
	refund, err := paymentsdomain.NewRefund(order.ID, decimal.NewFromInt(30), "ops@example.com")
	require.NoError(t, err)
	refund.Status = paymentsdomain.RefundCompleted
	_, err = f.payments.SaveRefund(ctx, refund)
	require.NoError(t, err)

	result, err := f.service.ReconcileOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, result.NetPaid.Equal(decimal.NewFromInt(70)), "net paid %s", result.NetPaid)
}
