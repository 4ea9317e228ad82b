package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/service"
	"github.com/shopkart/shopkart/pkg/httputil"
	"github.com/shopkart/shopkart/pkg/validator"
)

// PaymentHandler serves payment intent creation, lookup, and the
// gateway webhook.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

type createPaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Create handles POST /api/payments/create.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createPaymentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	session, err := h.payments.CreatePayment(r.Context(), req.OrderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteCreated(w, session)
}

// GetByOrder handles GET /api/payments/order/{orderId}.
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	payment, err := h.payments.GetPaymentByOrderID(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, payment)
}

// GatewayKey handles GET /api/payments/gateway-key. The key id is
// public; checkout pages need it to open the gateway widget.
func (h *PaymentHandler) GatewayKey(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, map[string]string{"key_id": h.payments.KeyID()})
}

type paymentWebhookRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
	Event            string `json:"event"`
}

// Webhook handles POST /api/webhooks/payment. Unauthenticated by
// design: the signature in the payload is the authentication.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req paymentWebhookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	err := h.payments.ProcessCallback(r.Context(), domain.PaymentCallback{
		GatewayOrderRef: req.GatewayOrderID,
		GatewayPayRef:   req.GatewayPaymentID,
		Signature:       req.Signature,
		Event:           req.Event,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "webhook processed")
}
