package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopkart/shopkart/internal/gateway"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
	"github.com/shopkart/shopkart/pkg/httpclient"
)

const defaultBaseURL = "https://api.razorpay.com"

// Config holds Razorpay credentials and endpoint configuration.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Gateway is the Razorpay payment provider adapter. Outbound calls go
// through a retrying HTTP client wrapped in a circuit breaker.
type Gateway struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// New creates a Razorpay gateway adapter.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	base := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("razorpay"), logger)

	return &Gateway{cfg: cfg, client: cb, logger: logger}
}

// Name implements gateway.Gateway.
func (g *Gateway) Name() string { return "razorpay" }

// KeyID implements gateway.Gateway.
func (g *Gateway) KeyID() string { return g.cfg.KeyID }

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent registers an order with Razorpay and returns its id.
func (g *Gateway) CreateIntent(ctx context.Context, in gateway.CreateIntentInput) (*gateway.Intent, error) {
	payload, err := json.Marshal(createOrderRequest{
		Amount:   in.Amount,
		Currency: in.Currency,
		Receipt:  in.Receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	url := g.cfg.BaseURL + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.PaymentFailed(fmt.Sprintf("razorpay order creation failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Description != "" {
			g.logger.WarnContext(ctx, "razorpay rejected order",
				slog.Int("status", resp.StatusCode),
				slog.String("code", errResp.Error.Code),
			)
			return nil, apperrors.PaymentFailed("razorpay: " + errResp.Error.Description)
		}
		return nil, apperrors.PaymentFailed(fmt.Sprintf("razorpay returned status %d", resp.StatusCode))
	}

	var order createOrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("unmarshal razorpay order: %w", err)
	}

	g.logger.InfoContext(ctx, "razorpay order created",
		slog.String("gateway_order_id", order.ID),
		slog.Int64("amount", order.Amount),
	)

	return &gateway.Intent{
		GatewayOrderID: order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay computes
// over "order_id|payment_id" with the merchant secret. Comparison is
// constant time.
func (g *Gateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.cfg.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
