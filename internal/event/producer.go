package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/shopkart/shopkart/pkg/kafka"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/pkg/logger"
)

// Kafka topics for order and payment domain events.
const (
	TopicOrderCreated       = "shopkart.order.created"
	TopicOrderStatusChanged = "shopkart.order.status_changed"
	TopicOrderCancelled     = "shopkart.order.cancelled"
	TopicPaymentCreated     = "shopkart.payment.created"
	TopicPaymentSucceeded   = "shopkart.payment.succeeded"
	TopicPaymentFailed      = "shopkart.payment.failed"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypePayment = "payment"
)

// Source identifier for events published by this service.
const Source = "shopkart"

// OrderCreatedData is the payload for an order.created event, a full
// snapshot of the order at creation time.
type OrderCreatedData struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	Items       []OrderItemData `json:"items"`
	TotalAmount int64           `json:"total_amount"`
}

// OrderItemData is the event payload for an order item.
type OrderItemData struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderCancelledData is the payload for an order.cancelled event.
type OrderCancelledData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// PaymentCreatedData is the payload for a payment.created event.
type PaymentCreatedData struct {
	PaymentID       string `json:"payment_id"`
	OrderID         string `json:"order_id"`
	Gateway         string `json:"gateway"`
	GatewayOrderRef string `json:"gateway_order_ref"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// PaymentSettledData is the payload for payment.succeeded and
// payment.failed events, published once per payment when a callback
// lands.
type PaymentSettledData struct {
	PaymentID       string `json:"payment_id"`
	OrderID         string `json:"order_id"`
	GatewayOrderRef string `json:"gateway_order_ref"`
	Status          string `json:"status"`
	FailureReason   string `json:"failure_reason,omitempty"`
}

// Producer publishes domain events to Kafka. Publish failures are
// logged but never fail the business operation that raised them.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		}
	}

	data := OrderCreatedData{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		Items:       items,
		TotalAmount: order.TotalAmount,
	}

	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.OrderStatus) error {
	data := OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
	}
	return p.publish(ctx, TopicOrderStatusChanged, orderID, AggregateTypeOrder, data)
}

// PublishOrderCancelled publishes an order.cancelled event.
func (p *Producer) PublishOrderCancelled(ctx context.Context, orderID, userID string) error {
	data := OrderCancelledData{OrderID: orderID, UserID: userID}
	return p.publish(ctx, TopicOrderCancelled, orderID, AggregateTypeOrder, data)
}

// PublishPaymentCreated publishes a payment.created event.
func (p *Producer) PublishPaymentCreated(ctx context.Context, payment *domain.Payment) error {
	data := PaymentCreatedData{
		PaymentID:       payment.ID,
		OrderID:         payment.OrderID,
		Gateway:         payment.Gateway,
		GatewayOrderRef: payment.GatewayOrderRef,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
	}
	return p.publish(ctx, TopicPaymentCreated, payment.ID, AggregateTypePayment, data)
}

// PublishPaymentSettled publishes a payment.succeeded or payment.failed
// event depending on the payment's terminal status.
func (p *Producer) PublishPaymentSettled(ctx context.Context, payment *domain.Payment) error {
	topic := TopicPaymentSucceeded
	if payment.Status == domain.PaymentStatusFailed {
		topic = TopicPaymentFailed
	}
	data := PaymentSettledData{
		PaymentID:       payment.ID,
		OrderID:         payment.OrderID,
		GatewayOrderRef: payment.GatewayOrderRef,
		Status:          string(payment.Status),
		FailureReason:   payment.FailureReason,
	}
	return p.publish(ctx, topic, payment.ID, AggregateTypePayment, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt = evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
