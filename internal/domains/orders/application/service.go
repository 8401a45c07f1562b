package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	catalogports "github.com/commercegrid/backoffice/internal/domains/catalog/ports"
	inventorydomain "github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	inventoryports "github.com/commercegrid/backoffice/internal/domains/inventory/ports"
	"github.com/commercegrid/backoffice/internal/domains/orders/domain"
	"github.com/commercegrid/backoffice/internal/domains/orders/ports"
	paymentsdomain "github.com/commercegrid/backoffice/internal/domains/payments/domain"
	paymentsports "github.com/commercegrid/backoffice/internal/domains/payments/ports"
	promotionsdomain "github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	promotionsports "github.com/commercegrid/backoffice/internal/domains/promotions/ports"
)

// Service orchestrates order pricing and confirmation across the catalog,
// inventory, promotions, and payments contexts. It owns the cross-context
// sequencing: reserve, then redeem, then persist, releasing reservations
// whenever a later step fails.
type Service struct {
	repo       ports.Repository
	catalog    catalogports.Service
	inventory  inventoryports.Service
	promotions promotionsports.Service
	payments   paymentsports.Service
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithLogger injects the logger used for confirmation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the pricing clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	repo ports.Repository,
	catalog catalogports.Service,
	inventory inventoryports.Service,
	promotions promotionsports.Service,
	payments paymentsports.Service,
	opts ...Option,
) *Service {
	s := &Service{
		repo:       repo,
		catalog:    catalog,
		inventory:  inventory,
		promotions: promotions,
		payments:   payments,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PriceOrder prices a draft: catalog unit prices, best product-level discount
// per line, coupon quote against the subtotal, then the additive stacking cap.
// Nothing is reserved and no coupon usage is consumed.
func (s *Service) PriceOrder(ctx context.Context, draft domain.Draft) (*domain.PricingResult, error) {
	return s.price(ctx, draft, s.now())
}

func (s *Service) price(ctx context.Context, draft domain.Draft, at time.Time) (*domain.PricingResult, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	productDiscount := decimal.Zero
	for i := range draft.Lines {
		line := &draft.Lines[i]
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("price line for product %d: %w", line.ProductID, err)
		}
		if !product.Sellable() {
			return nil, fmt.Errorf("%w: product %d", domain.ErrProductNotSellable, line.ProductID)
		}
		line.UnitPrice = product.Price
		lineAmount := line.Amount()
		subtotal = subtotal.Add(lineAmount)

		quote, err := s.promotions.EvaluateDiscount(ctx, line.ProductID, lineAmount, at)
		if err != nil {
			return nil, err
		}
		productDiscount = productDiscount.Add(quote.Amount)
	}

	couponDiscount := decimal.Zero
	if draft.CouponCode != "" {
		redemption, err := s.promotions.QuoteCoupon(ctx, draft.CouponCode, subtotal, at)
		if err != nil {
			return nil, err
		}
		couponDiscount = redemption.DiscountAmount
	}

	combined := promotionsdomain.CapCombinedDiscount(subtotal, productDiscount.Add(couponDiscount))
	return &domain.PricingResult{
		Subtotal:        subtotal,
		ProductDiscount: productDiscount,
		CouponDiscount:  couponDiscount,
		DiscountAmount:  combined,
		Total:           subtotal.Sub(combined),
	}, nil
}

// ConfirmOrder runs the confirmation sequence: price, reserve every line,
// redeem the coupon, persist. A failed reservation or redemption releases
// every hold taken so far; a failed save additionally hands the consumed
// coupon usage back, so the counter only ever reflects confirmed orders.
// Insufficient stock and coupon gate failures are business rejections, not
// system faults. A draft carrying an idempotency key that already confirmed
// returns the stored order unchanged.
func (s *Service) ConfirmOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, draft.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
	}

	at := s.now()
	pricing, err := s.price(ctx, draft, at)
	if err != nil {
		return nil, err
	}

	reserved := make([]domain.Line, 0, len(draft.Lines))
	release := func() {
		for _, line := range reserved {
			if err := s.inventory.Release(ctx, stockKey(line), line.Quantity); err != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to release reservation after aborted confirmation",
					slog.Int64("product.id", line.ProductID),
					slog.Int64("quantity", line.Quantity),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	for _, line := range draft.Lines {
		if err := s.inventory.Reserve(ctx, stockKey(line), line.Quantity); err != nil {
			release()
			if errors.Is(err, inventorydomain.ErrInsufficientStock) {
				return nil, fmt.Errorf("confirm order: product %d: %w", line.ProductID, err)
			}
			return nil, err
		}
		reserved = append(reserved, line)
	}

	redeemed := false
	if draft.CouponCode != "" {
		if _, err := s.promotions.RedeemCoupon(ctx, draft.CouponCode, pricing.Subtotal, at); err != nil {
			release()
			return nil, err
		}
		redeemed = true
	}

	order := domain.NewOrder(draft, *pricing)
	order.Status = domain.StatusConfirmed
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		release()
		if redeemed {
			if releaseErr := s.promotions.ReleaseCouponUsage(ctx, draft.CouponCode); releaseErr != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to release coupon usage after aborted confirmation",
					slog.String("coupon.code", draft.CouponCode),
					slog.String("error", releaseErr.Error()),
				)
			}
		}
		return nil, err
	}
	return saved, nil
}

// GetOrder fetches one order aggregate.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOrders lists every stored order.
func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// ReconcileOrder derives the order's money position from the payment ledger.
func (s *Service) ReconcileOrder(ctx context.Context, orderID int64) (*paymentsdomain.ReconcileResult, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.payments.Reconcile(ctx, orderID)
}

func stockKey(line domain.Line) inventorydomain.StockKey {
	return inventorydomain.StockKey{ProductID: line.ProductID, VariantID: line.VariantID}
}

var _ ports.Service = (*Service)(nil)
