package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/domain"
	ordersports "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/ports"
)

const tracerName = "github.com/onlinemarketplace/order-orchestrator/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
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
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(
			attribute.Int64("order.user_id", input.UserID),
			attribute.Int("order.item_count", len(input.Items)),
		))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.Int64("user.id", input.UserID), slog.Int("items", len(input.Items)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.Int64("user.id", input.UserID))
	}
	span.SetAttributes(attribute.Int64("order.id", result.ID), attribute.Int64("order.total_cost", result.TotalCost))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed", slog.Int64("order.id", result.ID), slog.Int64("total_cost", result.TotalCost))
	return result, nil
}

func (s *Service) GetOrderByID(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrderByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrderByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.Int64("order.id", id))
	if err := s.inner.CancelOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", id))
	}
	s.metrics.recordCancelled(ctx)
	s.logInfo(ctx, "order cancelled", slog.Int64("order.id", id))
	return nil
}

func (s *Service) CancelOrdersByUser(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrdersByUser", trace.WithAttributes(attribute.Int64("order.user_id", userID)))
	defer span.End()

	s.logInfo(ctx, "cancelling orders of user", slog.Int64("user.id", userID))
	if err := s.inner.CancelOrdersByUser(ctx, userID); err != nil {
		return s.handleError(ctx, span, err, "failed to cancel orders of user", slog.Int64("user.id", userID))
	}
	return nil
}

func (s *Service) CancelAllOrders(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelAllOrders")
	defer span.End()

	s.logInfo(ctx, "cancelling all orders")
	if err := s.inner.CancelAllOrders(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to cancel all orders")
	}
	return nil
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrdersByUser", trace.WithAttributes(attribute.Int64("order.user_id", userID)))
	defer span.End()

	result, err := s.inner.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
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
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	ordersCancelled, _ := m.Int64Counter("orders.service.cancelled", metric.WithDescription("Number of orders cancelled"))
	return serviceMetrics{ordersPlaced: ordersPlaced, ordersCancelled: ordersCancelled}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context) {
	if m.ordersCancelled != nil {
		m.ordersCancelled.Add(ctx, 1)
	}
}

var _ ordersports.Service = (*Service)(nil)
