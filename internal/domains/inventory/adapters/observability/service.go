package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	"github.com/commercegrid/backoffice/internal/domains/inventory/ports"
)

const tracerName = "github.com/commercegrid/backoffice/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// ComputeAvailability reports available stock with instrumentation.
func (s *Service) ComputeAvailability(ctx context.Context, key domain.StockKey) (int64, error) {
	ctx, span := s.startSpan(ctx, "Service.ComputeAvailability", keyAttributes(key)...)
	defer span.End()

	available, err := s.inner.ComputeAvailability(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrStockIntegrity) {
			s.metrics.recordIntegrityFault(ctx)
		}
		return 0, s.handleError(ctx, span, err, "failed to compute availability", slog.String("stock.key", key.String()))
	}
	span.SetAttributes(attribute.Int64("stock.available", available))
	return available, nil
}

// ItemsNeedingReorder lists rows at or below their reorder point.
func (s *Service) ItemsNeedingReorder(ctx context.Context) ([]*domain.Item, error) {
	ctx, span := s.startSpan(ctx, "Service.ItemsNeedingReorder")
	defer span.End()

	items, err := s.inner.ItemsNeedingReorder(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list reorder breaches")
	}
	span.SetAttributes(attribute.Int("stock.result.count", len(items)))
	s.logInfo(ctx, "reorder report computed", slog.Int("count", len(items)))
	return items, nil
}

// ItemsBelowSafetyStock lists rows at or below safety stock.
func (s *Service) ItemsBelowSafetyStock(ctx context.Context) ([]*domain.Item, error) {
	ctx, span := s.startSpan(ctx, "Service.ItemsBelowSafetyStock")
	defer span.End()

	items, err := s.inner.ItemsBelowSafetyStock(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list safety stock breaches")
	}
	span.SetAttributes(attribute.Int("stock.result.count", len(items)))
	s.logInfo(ctx, "safety stock report computed", slog.Int("count", len(items)))
	return items, nil
}

// ReceiveStock records delivered stock.
func (s *Service) ReceiveStock(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	attrs := []attribute.KeyValue{}
	if item != nil {
		attrs = append(attrs,
			attribute.Int64("stock.product.id", item.ProductID),
			attribute.Int64("stock.warehouse.id", item.WarehouseID),
		)
	}
	ctx, span := s.startSpan(ctx, "Service.ReceiveStock", attrs...)
	defer span.End()

	saved, err := s.inner.ReceiveStock(ctx, item)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to receive stock")
	}
	s.metrics.recordReceived(ctx)
	s.logInfo(ctx, "stock received", slog.Int64("item.id", saved.ID), slog.Int64("on_hand", saved.OnHand))
	return saved, nil
}

// Reserve holds stock for an order.
func (s *Service) Reserve(ctx context.Context, key domain.StockKey, qty int64) error {
	ctx, span := s.startSpan(ctx, "Service.Reserve", append(keyAttributes(key), attribute.Int64("stock.qty", qty))...)
	defer span.End()

	if err := s.inner.Reserve(ctx, key, qty); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.recordOversellRejected(ctx)
		}
		return s.handleError(ctx, span, err, "failed to reserve stock", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	}
	s.metrics.recordReserved(ctx, qty)
	s.logInfo(ctx, "stock reserved", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	return nil
}

// Release returns a reservation to the available pool.
func (s *Service) Release(ctx context.Context, key domain.StockKey, qty int64) error {
	ctx, span := s.startSpan(ctx, "Service.Release", append(keyAttributes(key), attribute.Int64("stock.qty", qty))...)
	defer span.End()

	if err := s.inner.Release(ctx, key, qty); err != nil {
		return s.handleError(ctx, span, err, "failed to release stock", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	}
	s.logInfo(ctx, "stock released", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	return nil
}

// Fulfill consumes a reservation when an order ships.
func (s *Service) Fulfill(ctx context.Context, key domain.StockKey, qty int64) error {
	ctx, span := s.startSpan(ctx, "Service.Fulfill", append(keyAttributes(key), attribute.Int64("stock.qty", qty))...)
	defer span.End()

	if err := s.inner.Fulfill(ctx, key, qty); err != nil {
		return s.handleError(ctx, span, err, "failed to fulfill stock", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	}
	s.logInfo(ctx, "stock fulfilled", slog.String("stock.key", key.String()), slog.Int64("qty", qty))
	return nil
}

func keyAttributes(key domain.StockKey) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int64("stock.product.id", key.ProductID)}
	if key.VariantID != nil {
		attrs = append(attrs, attribute.Int64("stock.variant.id", *key.VariantID))
	}
	if key.WarehouseID != nil {
		attrs = append(attrs, attribute.Int64("stock.warehouse.id", *key.WarehouseID))
	}
	return attrs
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	stockReceived    metric.Int64Counter
	stockReserved    metric.Int64Counter
	oversellRejected metric.Int64Counter
	integrityFaults  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	stockReceived, _ := m.Int64Counter("inventory.service.received", metric.WithDescription("Number of stock receipts"))
	stockReserved, _ := m.Int64Counter("inventory.service.reserved_units", metric.WithDescription("Units reserved for orders"))
	oversellRejected, _ := m.Int64Counter("inventory.service.oversell_rejected", metric.WithDescription("Reservations rejected for insufficient stock"))
	integrityFaults, _ := m.Int64Counter("inventory.service.integrity_faults", metric.WithDescription("Detected reserved > on-hand states"))
	return serviceMetrics{
		stockReceived:    stockReceived,
		stockReserved:    stockReserved,
		oversellRejected: oversellRejected,
		integrityFaults:  integrityFaults,
	}
}

func (m serviceMetrics) recordReceived(ctx context.Context) {
	addCounter(ctx, m.stockReceived, 1)
}

func (m serviceMetrics) recordReserved(ctx context.Context, qty int64) {
	addCounter(ctx, m.stockReserved, qty)
}

func (m serviceMetrics) recordOversellRejected(ctx context.Context) {
	addCounter(ctx, m.oversellRejected, 1)
}

func (m serviceMetrics) recordIntegrityFault(ctx context.Context) {
	addCounter(ctx, m.integrityFaults, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
