package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/commercegrid/backoffice/internal/domains/payments/domain"
	"github.com/commercegrid/backoffice/internal/domains/payments/ports"
)

// Service reconciles the payment ledger. It derives, never stores: every
// total is recomputed from SUCCESS sale rows and COMPLETED refund rows.
type Service struct {
	repo   ports.Repository
	logger *slog.Logger
}

type Option func(*Service)

// WithLogger injects the logger used for integrity alerts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// RecordTransaction appends a ledger row.
func (s *Service) RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return s.repo.RecordTransaction(ctx, tx)
}

// RequestRefund files a refund request in PENDING state.
func (s *Service) RequestRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	if refund == nil {
		return nil, errors.New("refund is nil")
	}
	if refund.Status == "" {
		refund.Status = domain.RefundPending
	}
	return s.repo.SaveRefund(ctx, refund)
}

// ResolveRefund moves a refund out of PENDING after operator review.
func (s *Service) ResolveRefund(ctx context.Context, refundID int64, status domain.RefundStatus) (*domain.Refund, error) {
	switch status {
	case domain.RefundCompleted, domain.RefundRejected:
	default:
		return nil, fmt.Errorf("refund resolution status %q is invalid", status)
	}
	refund, err := s.repo.RefundByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	refund.Status = status
	return s.repo.SaveRefund(ctx, refund)
}

// Reconcile derives the order's net paid position. Net paid is completed
// sales minus completed refunds; a negative result is reported as an
// integrity fault and logged, never silently corrected. PendingFlag marks
// orders whose position may still move.
func (s *Service) Reconcile(ctx context.Context, orderID int64) (*domain.ReconcileResult, error) {
	if orderID <= 0 {
		return nil, domain.ErrInvalidOrderID
	}
	sales, err := s.repo.CompletedSaleAmount(ctx, orderID)
	if err != nil {
		return nil, err
	}
	refunds, err := s.repo.CompletedRefundAmount(ctx, orderID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.HasPendingTransactions(ctx, orderID)
	if err != nil {
		return nil, err
	}
	netPaid := sales.Sub(refunds)
	if netPaid.IsNegative() {
		s.logger.LogAttrs(ctx, slog.LevelError, "refunds exceed sales for order",
			slog.Int64("order.id", orderID),
			slog.String("sales", sales.String()),
			slog.String("refunds", refunds.String()),
		)
		return nil, fmt.Errorf("%w: order %d paid %s refunded %s", domain.ErrNegativeNetPaid, orderID, sales, refunds)
	}
	return &domain.ReconcileResult{
		OrderID:        orderID,
		NetPaid:        netPaid,
		SaleAmount:     sales,
		RefundedAmount: refunds,
		PendingFlag:    pending,
	}, nil
}

// StalePending lists PENDING transactions older than the cutoff for
// operator review. This service never cancels them.
func (s *Service) StalePending(ctx context.Context, cutoff time.Time) ([]*domain.Transaction, error) {
	return s.repo.FindStalePending(ctx, cutoff)
}

// ExpiredAuthorizations lists PENDING authorization transactions past their
// expiry, candidates for voiding by the external payment workflow.
func (s *Service) ExpiredAuthorizations(ctx context.Context, expiry time.Time) ([]*domain.Transaction, error) {
	return s.repo.FindExpiredAuthorizations(ctx, expiry)
}

var _ ports.Service = (*Service)(nil)
