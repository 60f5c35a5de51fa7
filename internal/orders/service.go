package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Publisher hands a serialized event to the broker. It must not block the caller.
type Publisher interface {
	Publish(topic string, key, value []byte, eventType string)
}

// Cache is a best-effort read-through cache for single orders.
type Cache interface {
	Get(ctx context.Context, id int64) (*Order, bool)
	Set(ctx context.Context, o *Order)
	Delete(ctx context.Context, id int64)
}

type Service struct {
	store    Store
	products ProductClient
	cache    Cache
	pub      Publisher
	producer string
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithPublisher enables lifecycle notifications; producer names the emitting service.
func WithPublisher(p Publisher, producer string) Option {
	return func(s *Service) {
		s.pub = p
		s.producer = producer
	}
}

func NewService(store Store, products ProductClient, opts ...Option) *Service {
	s := &Service{store: store, products: products, producer: "order-service"}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (d Draft) Validate() error {
	switch {
	case d.UserID <= 0:
		return fmt.Errorf("%w: userId is required", ErrInvalidOrder)
	case strings.TrimSpace(d.ShippingAddress) == "":
		return fmt.Errorf("%w: shippingAddress is required", ErrInvalidOrder)
	case strings.TrimSpace(d.PaymentMethod) == "":
		return fmt.Errorf("%w: paymentMethod is required", ErrInvalidOrder)
	case len(d.Items) == 0:
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for i, it := range d.Items {
		if it.ProductID <= 0 {
			return fmt.Errorf("%w: item %d: productId is required", ErrInvalidOrder, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidOrder, i)
		}
	}
	return nil
}

// CreateOrder reserves stock item by item and persists the order as PENDING.
// Stock taken for earlier items stays taken if a later item fails; nothing is
// persisted in that case.
func (s *Service) CreateOrder(ctx context.Context, d Draft) (_ *Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.Int64("order.user_id", d.UserID),
		attribute.Int("order.items", len(d.Items)),
	))
	defer func() { endSpan(span, err) }()
	log := logging.FromContext(ctx).With(zap.Int64("user_id", d.UserID))

	if err := d.Validate(); err != nil {
		return nil, err
	}
	log.Info("create_order_start", zap.Int("items", len(d.Items)))

	o := &Order{
		UserID:          d.UserID,
		Items:           make([]OrderItem, 0, len(d.Items)),
		TotalAmount:     decimal.Zero,
		ShippingAddress: d.ShippingAddress,
		BillingAddress:  d.BillingAddress,
		PaymentMethod:   d.PaymentMethod,
		Notes:           d.Notes,
	}
	for _, in := range d.Items {
		item, err := s.reserve(ctx, in)
		if err != nil {
			log.Warn("create_order_failed",
				zap.Int64("product_id", in.ProductID),
				zap.Int("items_already_reserved", len(o.Items)),
				zap.Error(err))
			return nil, err
		}
		o.Items = append(o.Items, item)
		o.TotalAmount = o.TotalAmount.Add(item.TotalPrice)
	}
	o.Status = StatusPending

	if err := s.store.Create(ctx, o); err != nil {
		log.Error("create_order_persist_failed", zap.Int("items_already_reserved", len(o.Items)), zap.Error(err))
		return nil, fmt.Errorf("orders: persist: %w", err)
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	s.cacheSet(ctx, o)
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Items:       itemLines(o.Items),
		TotalAmount: o.TotalAmount,
	})
	log.Info("create_order_done", zap.Int64("order_id", o.ID), zap.String("total", o.TotalAmount.String()))
	return o, nil
}

func (s *Service) reserve(ctx context.Context, in ItemInput) (OrderItem, error) {
	p, err := s.products.FetchProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return OrderItem{}, err
		}
		return OrderItem{}, fmt.Errorf("%w: id %d: %w", ErrProductNotFound, in.ProductID, err)
	}
	if !p.Active {
		return OrderItem{}, fmt.Errorf("%w: id %d", ErrProductInactive, in.ProductID)
	}
	if in.Quantity > p.StockQuantity {
		return OrderItem{}, fmt.Errorf("%w: id %d requested %d available %d",
			ErrInsufficientStock, in.ProductID, in.Quantity, p.StockQuantity)
	}

	ok, err := s.products.AdjustStock(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return OrderItem{}, fmt.Errorf("%w: id %d: %w", ErrStockUpdateFailed, in.ProductID, err)
	}
	if !ok {
		return OrderItem{}, fmt.Errorf("%w: id %d", ErrStockUpdateFailed, in.ProductID)
	}

	return OrderItem{
		ProductID:   in.ProductID,
		ProductName: p.Name,
		Quantity:    in.Quantity,
		UnitPrice:   p.Price,
		TotalPrice:  p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}, nil
}

// CancelOrder cancels a PENDING or CONFIRMED order and puts its stock back.
// Unknown orders and orders in any other status are left alone without error.
// Failed stock restores are logged, never returned.
func (s *Service) CancelOrder(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()
	log := logging.FromContext(ctx).With(zap.Int64("order_id", id))

	o, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		log.Warn("cancel_order_missing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("orders: load %d: %w", id, err)
	}
	if !o.Status.Cancellable() {
		log.Info("cancel_order_skipped", zap.String("status", string(o.Status)))
		return nil
	}

	prev := o.Status
	o.Status = StatusCancelled
	if err := s.store.Update(ctx, o); err != nil {
		return fmt.Errorf("orders: cancel %d: %w", id, err)
	}
	s.cacheDelete(ctx, id)

	var failed []int64
	for _, it := range o.Items {
		ok, rerr := s.products.AdjustStock(ctx, it.ProductID, -it.Quantity)
		if rerr != nil || !ok {
			failed = append(failed, it.ProductID)
			log.Error("stock_restore_failed",
				zap.Int64("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Bool("rejected", rerr == nil && !ok),
				zap.Error(rerr))
		}
	}
	if len(failed) > 0 {
		span.AddEvent("stock_restore_failed", trace.WithAttributes(attribute.Int("products", len(failed))))
	}

	s.publish(ctx, TopicOrderCancelled, EventOrderCancelled, id, OrderCancelledPayload{
		OrderID:        id,
		PreviousStatus: prev,
		Items:          itemLines(o.Items),
		RestoreFailed:  failed,
	})
	log.Info("cancel_order_done", zap.String("previous_status", string(prev)), zap.Int("restore_failures", len(failed)))
	return nil
}

// UpdateStatus overwrites the status with no lifecycle check.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to Status) (*Order, error) {
	log := logging.FromContext(ctx).With(zap.Int64("order_id", id))
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	unusual := from != to && !CanTransition(from, to)
	if unusual {
		log.Warn("status_transition_unusual", zap.String("from", string(from)), zap.String("to", string(to)))
	}

	o.Status = to
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.cacheDelete(ctx, id)
	s.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, id, OrderStatusChangedPayload{
		OrderID: id, From: from, To: to, Unusual: unusual,
	})
	log.Info("order_status_updated", zap.String("from", string(from)), zap.String("to", string(to)))
	return o, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	if s.cache != nil {
		if o, ok := s.cache.Get(ctx, id); ok {
			return o, nil
		}
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, o)
	return o, nil
}

func (s *Service) All(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx, ListFilter{})
}

func (s *Service) ByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.store.List(ctx, ListFilter{UserID: &userID})
}

func (s *Service) ByStatus(ctx context.Context, st Status) ([]Order, error) {
	return s.store.List(ctx, ListFilter{Status: &st})
}

func (s *Service) ByDateRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: endDate before startDate", ErrInvalidOrder)
	}
	return s.store.List(ctx, ListFilter{From: &from, To: &to})
}

func (s *Service) cacheSet(ctx context.Context, o *Order) {
	if s.cache != nil {
		s.cache.Set(ctx, o)
	}
}

func (s *Service) cacheDelete(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Delete(ctx, id)
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logging.FromContext(ctx).Error("event_marshal_failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.producer,
		TraceID:       traceID(ctx),
		CorrelationID: fmt.Sprint(orderID),
		Payload:       body,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		logging.FromContext(ctx).Error("event_marshal_failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	s.pub.Publish(topic, PartitionKey(orderID), value, eventType)
}

func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return middleware.GetReqID(ctx)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
