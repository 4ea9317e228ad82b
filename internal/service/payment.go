package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/event"
	"github.com/shopkart/shopkart/internal/gateway"
	"github.com/shopkart/shopkart/internal/repository"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

// PendingCanceller cancels a gateway's scheduled mock callback. The
// real gateway has nothing to cancel and is simply not wired here.
type PendingCanceller interface {
	CancelPending(gatewayOrderID string) bool
}

// CheckoutSession is what the frontend needs to open the gateway
// checkout for a freshly initiated payment.
type CheckoutSession struct {
	Payment      *domain.Payment `json:"payment"`
	GatewayKeyID string          `json:"gateway_key_id"`
}

// PaymentService orchestrates payment intents and webhook
// reconciliation. Callbacks for the same gateway order ref are
// serialized through a keyed mutex so concurrent deliveries of the same
// webhook cannot race.
type PaymentService struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	gateway   gateway.Gateway
	canceller PendingCanceller
	producer  *event.Producer
	logger    *slog.Logger
	locks     *keyedMutex
	currency  string
}

// NewPaymentService creates a new payment service. canceller may be nil
// when the configured gateway has no deferred callbacks.
func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	gw gateway.Gateway,
	canceller PendingCanceller,
	producer *event.Producer,
	currency string,
	logger *slog.Logger,
) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		payments:  payments,
		orders:    orders,
		gateway:   gw,
		canceller: canceller,
		producer:  producer,
		logger:    logger,
		locks:     newKeyedMutex(),
		currency:  currency,
	}
}

// KeyID returns the gateway's public client key for checkout pages.
func (s *PaymentService) KeyID() string {
	return s.gateway.KeyID()
}

// CreatePayment creates a gateway payment intent for a pending order
// and moves the order to payment_pending. If the order already has an
// open intent, that session is returned unchanged.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID string) (*CheckoutSession, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.payments.GetByOrderID(ctx, orderID)
	if err == nil && existing.Status == domain.PaymentStatusCreated {
		return &CheckoutSession{Payment: existing, GatewayKeyID: s.gateway.KeyID()}, nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.InvalidInput(fmt.Sprintf("order %s cannot start payment in status %s", orderID, order.Status))
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.CreateIntentInput{
		Amount:   order.TotalAmount,
		Currency: s.currency,
		Receipt:  order.ID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		UserID:          order.UserID,
		Gateway:         s.gateway.Name(),
		GatewayOrderRef: intent.GatewayOrderID,
		Amount:          order.TotalAmount,
		Currency:        s.currency,
		Status:          domain.PaymentStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if err := s.orders.UpdateStatusIf(ctx, orderID, order.Status, domain.OrderStatusPaymentPending); err != nil {
		return nil, fmt.Errorf("mark order payment pending: %w", err)
	}

	if err := s.producer.PublishPaymentCreated(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.created event",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payment created",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", order.ID),
		slog.String("gateway", payment.Gateway),
		slog.String("gateway_order_ref", payment.GatewayOrderRef),
		slog.Int64("amount", payment.Amount),
	)

	return &CheckoutSession{Payment: payment, GatewayKeyID: s.gateway.KeyID()}, nil
}

// ProcessCallback reconciles a gateway webhook against the payment it
// references. The outcome is persisted before any error is returned, so
// a failed verification always leaves a failed payment row behind.
// Redelivered callbacks for a settled payment are acknowledged without
// effect.
func (s *PaymentService) ProcessCallback(ctx context.Context, cb domain.PaymentCallback) error {
	s.locks.Lock(cb.GatewayOrderRef)
	defer s.locks.Unlock(cb.GatewayOrderRef)

	payment, err := s.payments.GetByGatewayOrderRef(ctx, cb.GatewayOrderRef)
	if err != nil {
		return err
	}

	if payment.Status.IsTerminal() {
		s.logger.InfoContext(ctx, "duplicate payment callback ignored",
			slog.String("payment_id", payment.ID),
			slog.String("status", string(payment.Status)),
		)
		return nil
	}

	if !s.gateway.VerifySignature(cb.GatewayOrderRef, cb.GatewayPayRef, cb.Signature) {
		return s.settle(ctx, payment, domain.PaymentStatusFailed, cb.GatewayPayRef, "", "invalid signature")
	}

	return s.settle(ctx, payment, domain.PaymentStatusSuccess, cb.GatewayPayRef, cb.Signature, "")
}

// settle records the terminal payment outcome and moves the order
// accordingly: paid on success, back to pending on failure so the
// customer can retry. Both rows change in one transaction.
func (s *PaymentService) settle(ctx context.Context, payment *domain.Payment, status domain.PaymentStatus, payRef, signature, failureReason string) error {
	target := domain.OrderStatusPaid
	if status == domain.PaymentStatusFailed {
		target = domain.OrderStatusPending
	}

	orderMoved, err := s.payments.Settle(ctx, repository.PaymentSettlement{
		PaymentID:     payment.ID,
		Status:        status,
		GatewayPayRef: payRef,
		Signature:     signature,
		FailureReason: failureReason,
		OrderID:       payment.OrderID,
		OrderFrom:     domain.OrderStatusPaymentPending,
		OrderTo:       target,
	})
	if err != nil {
		return fmt.Errorf("record payment outcome: %w", err)
	}

	payment.Status = status
	payment.GatewayPayRef = payRef
	payment.Signature = signature
	payment.FailureReason = failureReason

	if s.canceller != nil {
		s.canceller.CancelPending(payment.GatewayOrderRef)
	}

	if !orderMoved {
		// The order moved on without us, e.g. it was cancelled while
		// the callback was in flight. The payment outcome still stands.
		s.logger.WarnContext(ctx, "order not transitioned by payment callback",
			slog.String("order_id", payment.OrderID),
			slog.String("target", string(target)),
		)
	}

	if err := s.producer.PublishPaymentSettled(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment settlement event",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payment settled",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", payment.OrderID),
		slog.String("status", string(status)),
	)

	if status == domain.PaymentStatusFailed {
		return apperrors.PaymentVerification(fmt.Sprintf("payment %s failed: %s", payment.ID, failureReason))
	}
	return nil
}

// VoidForOrder fails an open payment intent when its order is
// cancelled, and suppresses any pending simulated callback.
func (s *PaymentService) VoidForOrder(ctx context.Context, orderID string) error {
	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	if payment.Status.IsTerminal() {
		return nil
	}

	s.locks.Lock(payment.GatewayOrderRef)
	defer s.locks.Unlock(payment.GatewayOrderRef)

	if s.canceller != nil {
		s.canceller.CancelPending(payment.GatewayOrderRef)
	}

	if err := s.payments.UpdateOutcome(ctx, payment.ID, domain.PaymentStatusFailed, "", "", "order cancelled"); err != nil {
		// A callback may have settled the payment between the load and
		// the update; that outcome wins.
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil
		}
		return err
	}

	s.logger.InfoContext(ctx, "payment voided",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", orderID),
	)
	return nil
}

// GetPaymentByOrderID returns the latest payment for an order.
func (s *PaymentService) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return s.payments.GetByOrderID(ctx, orderID)
}

// DeliverMockCallback is the mock gateway's scheduled delivery target.
// It synthesizes the payment ref and signature the simulator would have
// sent, skipping payments that already settled.
func (s *PaymentService) DeliverMockCallback(ctx context.Context, gatewayOrderID string) {
	payment, err := s.payments.GetByGatewayOrderRef(ctx, gatewayOrderID)
	if err != nil {
		s.logger.WarnContext(ctx, "mock callback for unknown gateway order",
			slog.String("gateway_order_ref", gatewayOrderID),
			slog.String("error", err.Error()),
		)
		return
	}
	if payment.Status.IsTerminal() {
		return
	}

	err = s.ProcessCallback(ctx, domain.PaymentCallback{
		GatewayOrderRef: gatewayOrderID,
		GatewayPayRef:   "mock_payment_" + uuid.New().String(),
		Signature:       "mock_signature_" + uuid.New().String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "mock callback reconciliation failed",
			slog.String("gateway_order_ref", gatewayOrderID),
			slog.String("error", err.Error()),
		)
	}
}
