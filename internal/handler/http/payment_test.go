package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/gateway"
	"github.com/shopkart/shopkart/internal/repository"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

func openPayment() *domain.Payment {
	return &domain.Payment{
		ID:              "pay-1",
		OrderID:         "order-1",
		UserID:          "user-1",
		Gateway:         "mock",
		GatewayOrderRef: "mock_order_abc123",
		Amount:          5998,
		Currency:        "INR",
		Status:          domain.PaymentStatusCreated,
	}
}

func TestCreatePayment_Endpoint(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.orders.On("GetByID", mock.Anything, "order-1").
		Return(&domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending, TotalAmount: 5998}, nil)
	repos.payments.On("GetByOrderID", mock.Anything, "order-1").
		Return(nil, apperrors.NotFoundBy("payment", "order_id", "order-1"))
	repos.gateway.On("CreateIntent", mock.Anything, mock.AnythingOfType("gateway.CreateIntentInput")).
		Return(&gateway.Intent{GatewayOrderID: "mock_order_abc123", Amount: 5998, Currency: "INR"}, nil)
	repos.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	repos.orders.On("UpdateStatusIf", mock.Anything, "order-1", domain.OrderStatusPending, domain.OrderStatusPaymentPending).Return(nil)

	body := []byte(`{"orderId": "order-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mock_key")
	assert.Contains(t, string(data), "mock_order_abc123")
}

func TestCreatePayment_GatewayDown(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.orders.On("GetByID", mock.Anything, "order-1").
		Return(&domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending, TotalAmount: 5998}, nil)
	repos.payments.On("GetByOrderID", mock.Anything, "order-1").
		Return(nil, apperrors.NotFoundBy("payment", "order_id", "order-1"))
	repos.gateway.On("CreateIntent", mock.Anything, mock.AnythingOfType("gateway.CreateIntentInput")).
		Return(nil, apperrors.PaymentFailed("gateway unreachable"))

	body := []byte(`{"orderId": "order-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	// No local payment row is created when the gateway call fails.
	repos.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetPaymentByOrder_Endpoint(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.payments.On("GetByOrderID", mock.Anything, "order-1").Return(openPayment(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/order/order-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatewayKey_Endpoint(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/gateway-key", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mock_key")
}

func TestPaymentWebhook_Success(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	p := openPayment()
	repos.payments.On("GetByGatewayOrderRef", mock.Anything, p.GatewayOrderRef).Return(p, nil)
	repos.gateway.On("VerifySignature", p.GatewayOrderRef, "mock_payment_xyz", "goodsig").Return(true)
	repos.payments.On("Settle", mock.Anything, repository.PaymentSettlement{
		PaymentID:     "pay-1",
		Status:        domain.PaymentStatusSuccess,
		GatewayPayRef: "mock_payment_xyz",
		Signature:     "goodsig",
		OrderID:       "order-1",
		OrderFrom:     domain.OrderStatusPaymentPending,
		OrderTo:       domain.OrderStatusPaid,
	}).Return(true, nil)

	body := []byte(`{
		"razorpay_order_id": "mock_order_abc123",
		"razorpay_payment_id": "mock_payment_xyz",
		"razorpay_signature": "goodsig"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.payments.AssertExpectations(t)
	repos.orders.AssertExpectations(t)
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	p := openPayment()
	repos.payments.On("GetByGatewayOrderRef", mock.Anything, p.GatewayOrderRef).Return(p, nil)
	repos.gateway.On("VerifySignature", p.GatewayOrderRef, "mock_payment_xyz", "badsig").Return(false)
	repos.payments.On("Settle", mock.Anything, repository.PaymentSettlement{
		PaymentID:     "pay-1",
		Status:        domain.PaymentStatusFailed,
		GatewayPayRef: "mock_payment_xyz",
		FailureReason: "invalid signature",
		OrderID:       "order-1",
		OrderFrom:     domain.OrderStatusPaymentPending,
		OrderTo:       domain.OrderStatusPending,
	}).Return(true, nil)

	body := []byte(`{
		"razorpay_order_id": "mock_order_abc123",
		"razorpay_payment_id": "mock_payment_xyz",
		"razorpay_signature": "badsig"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repos.payments.AssertExpectations(t)
}

func TestPaymentWebhook_UnknownRef(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.payments.On("GetByGatewayOrderRef", mock.Anything, "forged_ref").
		Return(nil, apperrors.NotFoundBy("payment", "gateway_order_ref", "forged_ref"))

	body := []byte(`{
		"razorpay_order_id": "forged_ref",
		"razorpay_payment_id": "mock_payment_xyz",
		"razorpay_signature": "sig"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repos.payments.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestPaymentWebhook_MissingFields(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	body := []byte(`{"razorpay_order_id": "mock_order_abc123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
