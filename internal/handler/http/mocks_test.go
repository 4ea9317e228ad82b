package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/event"
	"github.com/shopkart/shopkart/internal/gateway"
	"github.com/shopkart/shopkart/internal/repository"
	"github.com/shopkart/shopkart/internal/service"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
	"github.com/shopkart/shopkart/pkg/health"
	"github.com/shopkart/shopkart/pkg/httputil"
	pkgkafka "github.com/shopkart/shopkart/pkg/kafka"
	"github.com/shopkart/shopkart/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *mockProductRepository) RestoreStock(ctx context.Context, productID string, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockOrderRepository) CancelAndRestock(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) GetByGatewayOrderRef(ctx context.Context, ref string) (*domain.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) UpdateOutcome(ctx context.Context, id string, status domain.PaymentStatus, payRef, signature, failureReason string) error {
	args := m.Called(ctx, id, status, payRef, signature, failureReason)
	return args.Error(0)
}

func (m *mockPaymentRepository) Settle(ctx context.Context, st repository.PaymentSettlement) (bool, error) {
	args := m.Called(ctx, st)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string  { return "mock" }
func (m *mockGateway) KeyID() string { return "mock_key" }

func (m *mockGateway) CreateIntent(ctx context.Context, in gateway.CreateIntentInput) (*gateway.Intent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	args := m.Called(gatewayOrderID, gatewayPaymentID, signature)
	return args.Bool(0)
}

// ============================================================================
// Test helpers
// ============================================================================

type testRepos struct {
	users    *mockUserRepository
	products *mockProductRepository
	carts    *mockCartRepository
	orders   *mockOrderRepository
	payments *mockPaymentRepository
	gateway  *mockGateway
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:    new(mockUserRepository),
		products: new(mockProductRepository),
		carts:    new(mockCartRepository),
		orders:   new(mockOrderRepository),
		payments: new(mockPaymentRepository),
		gateway:  new(mockGateway),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// testTokenValidator accepts "admin-token" and "customer-token".
func testTokenValidator(token string) (*middleware.Claims, error) {
	switch token {
	case "admin-token":
		return &middleware.Claims{UserID: "admin-1", Email: "admin@shopkart.dev", Role: domain.RoleAdmin}, nil
	case "customer-token":
		return &middleware.Claims{UserID: "user-1", Email: "user@shopkart.dev", Role: domain.RoleCustomer}, nil
	default:
		return nil, apperrors.Unauthorized("invalid token")
	}
}

// setupRouter wires real services over the mock repositories behind the
// production route layout.
func setupRouter(repos *testRepos) chi.Router {
	logger := testLogger()
	producer := testEventProducer()

	userSvc := service.NewUserService(repos.users, logger)
	productSvc := service.NewProductService(repos.products, logger)
	cartSvc := service.NewCartService(repos.carts, repos.products, repos.users, logger)
	paymentSvc := service.NewPaymentService(repos.payments, repos.orders, repos.gateway, nil, producer, "INR", logger)
	orderSvc := service.NewOrderService(repos.orders, repos.products, repos.carts, repos.users, paymentSvc, producer, logger)

	return NewRouter(RouterConfig{
		Logger:         logger,
		Health:         health.NewHandler(),
		TokenValidator: testTokenValidator,
		WebhookRPS:     100,
		WebhookBurst:   100,
	}, Handlers{
		Users:    NewUserHandler(userSvc, logger),
		Products: NewProductHandler(productSvc, logger),
		Carts:    NewCartHandler(cartSvc, logger),
		Orders:   NewOrderHandler(orderSvc, logger),
		Payments: NewPaymentHandler(paymentSvc, logger),
	})
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}
