package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopkart/shopkart/internal/gateway"
)

const defaultCallbackDelay = 3 * time.Second

// Config holds mock gateway configuration.
type Config struct {
	// CallbackDelay is how long checkout "takes" before the simulated
	// webhook fires.
	CallbackDelay time.Duration
}

// CallbackFunc receives a simulated webhook for a gateway order. The
// payment service wires its reconciliation entry point here and
// synthesizes the payment ref and signature itself.
type CallbackFunc func(ctx context.Context, gatewayOrderID string)

// Gateway simulates a payment provider for local development. Every
// intent schedules a deferred success callback after CallbackDelay; the
// callback can be cancelled if the payment settles through another path
// first.
type Gateway struct {
	cfg     Config
	sched   *scheduler
	deliver CallbackFunc
	logger  *slog.Logger
}

// New creates a mock gateway. SetCallback must be called before any
// intent is created.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if cfg.CallbackDelay <= 0 {
		cfg.CallbackDelay = defaultCallbackDelay
	}
	return &Gateway{
		cfg:    cfg,
		sched:  newScheduler(),
		logger: logger,
	}
}

// SetCallback wires the webhook delivery target.
func (g *Gateway) SetCallback(fn CallbackFunc) {
	g.deliver = fn
}

// Name implements gateway.Gateway.
func (g *Gateway) Name() string { return "mock" }

// KeyID implements gateway.Gateway.
func (g *Gateway) KeyID() string { return "mock_key" }

// CreateIntent issues a fake gateway order id and schedules the
// simulated webhook.
func (g *Gateway) CreateIntent(ctx context.Context, in gateway.CreateIntentInput) (*gateway.Intent, error) {
	orderID := "mock_order_" + uuid.NewString()

	g.logger.InfoContext(ctx, "mock payment intent created",
		slog.String("gateway_order_id", orderID),
		slog.Int64("amount", in.Amount),
		slog.Duration("callback_delay", g.cfg.CallbackDelay),
	)

	g.sched.Schedule(orderID, g.cfg.CallbackDelay, func() {
		if g.deliver == nil {
			return
		}
		// The callback runs on the timer goroutine, detached from the
		// request that created the intent.
		g.deliver(context.Background(), orderID)
	})

	return &gateway.Intent{
		GatewayOrderID: orderID,
		Amount:         in.Amount,
		Currency:       in.Currency,
	}, nil
}

// VerifySignature implements gateway.Gateway. The simulator accepts
// anything; signature checking belongs to the real provider.
func (g *Gateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return true
}

// CancelPending cancels the scheduled callback for a gateway order, if
// it has not fired yet. Called when a payment settles before the
// simulated checkout completes.
func (g *Gateway) CancelPending(gatewayOrderID string) bool {
	cancelled := g.sched.Cancel(gatewayOrderID)
	if cancelled {
		g.logger.Info("mock callback cancelled", slog.String("gateway_order_id", gatewayOrderID))
	}
	return cancelled
}

// Close cancels all pending callbacks.
func (g *Gateway) Close() {
	g.sched.Stop()
}
