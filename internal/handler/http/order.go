package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/service"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
	"github.com/shopkart/shopkart/pkg/httputil"
	"github.com/shopkart/shopkart/pkg/validator"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type createOrderRequest struct {
	UserID          string `json:"userId" validate:"required"`
	ShippingAddress string `json:"shippingAddress" validate:"omitempty,max=500"`
}

// Create handles POST /api/orders. The order is built from the user's
// cart.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req.UserID, req.ShippingAddress)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteCreated(w, order)
}

// Get handles GET /api/orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}

// ListByUser handles GET /api/orders/user/{userId}.
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	page, perPage := parsePagination(r)

	orders, total, err := h.orders.ListOrdersByUser(r.Context(), userID, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, newListResponse(orders, page, perPage, total))
}

// UpdateStatus handles PUT /api/orders/{orderId}/status?status=X.
// Admin-only; the status name comes from the query string.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	status := r.URL.Query().Get("status")
	if status == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("status query parameter is required"), h.logger)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, domain.OrderStatus(status))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}

// Cancel handles POST /api/orders/{orderId}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orders.CancelOrder(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, order)
}
