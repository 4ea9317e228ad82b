package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/event"
	"github.com/shopkart/shopkart/internal/repository"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

// OrderService orchestrates order placement. Stock is consumed line by
// line through atomic conditional decrements; any failure rolls back the
// decrements already made, so a rejected order never leaks stock.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	users    repository.UserRepository
	payments *PaymentService
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service. payments may be nil in
// tests that do not exercise cancellation.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	users repository.UserRepository,
	payments *PaymentService,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		carts:    carts,
		users:    users,
		payments: payments,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrder places an order from the user's cart and clears the cart
// on success. Item prices are snapshotted from the catalog at placement
// time, not from the cart, so a stale cart never fixes a price. When
// the request carries no shipping address the user's stored address is
// used.
func (s *OrderService) CreateOrder(ctx context.Context, userID, shippingAddress string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shippingAddress == "" {
		shippingAddress = user.Address
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty, add items before placing an order")
	}

	productIDs := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Advisory pre-check against the stock we just read. The
	// conditional decrement below is the authoritative one; this pass
	// is only for a friendlier first-failure error.
	for _, line := range cart.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", line.ProductID)
		}
		if product.Stock < line.Quantity {
			return nil, apperrors.InsufficientStock(product.Name, product.Stock, line.Quantity)
		}
	}

	// Consume stock line by line. On any failure, restore what was
	// already taken before surfacing the error.
	consumed := make([]domain.CartItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.rollbackStock(ctx, consumed)
			return nil, err
		}
		consumed = append(consumed, line)
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var total int64
	items := make([]domain.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		product := byID[line.ProductID]
		items[i] = domain.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
		}
		total += items[i].Subtotal()
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.rollbackStock(ctx, consumed)
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after order",
			slog.String("user_id", userID),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Int("items", len(items)),
	)

	return order, nil
}

// rollbackStock compensates already-consumed stock after a failed
// placement. Restore failures are logged, not returned: the caller is
// already on an error path and a partial restore must be visible in the
// logs for manual reconciliation.
func (s *OrderService) rollbackStock(ctx context.Context, consumed []domain.CartItem) {
	for _, line := range consumed {
		if err := s.products.RestoreStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "stock rollback failed",
				slog.String("product_id", line.ProductID),
				slog.Int("quantity", line.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *OrderService) ListOrdersByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.orders.List(ctx, repository.OrderFilter{
		UserID:  &userID,
		Page:    page,
		PerPage: perPage,
	})
}

// CancelOrder cancels an order that has not shipped, restoring its
// stock and voiding any open payment intent.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.payments != nil {
		if err := s.payments.VoidForOrder(ctx, orderID); err != nil {
			s.logger.WarnContext(ctx, "failed to void payment for cancelled order",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderCancelled(ctx, orderID, order.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", orderID),
		slog.String("user_id", order.UserID),
	)

	return order, nil
}

// UpdateStatus applies an administrative status override. Only the
// status name is validated; the transition itself is not, so operators
// can repair orders that drifted out of the normal flow. Cancellation
// still goes through CancelOrder because it restocks inventory.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", next))
	}
	if next == domain.OrderStatusCancelled {
		return nil, apperrors.InvalidInput("use the cancel endpoint to cancel an order")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, orderID, order.Status, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(next)),
	)

	order.Status = next
	return order, nil
}
