package repository

import (
	"context"

	"github.com/shopkart/shopkart/internal/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category *string
	Search   *string
	Page     int
	PerPage  int
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID  *string
	Status  *domain.OrderStatus
	Page    int
	PerPage int
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)
}

// ProductRepository persists products and owns the stock ledger. Stock
// changes go through DecrementStock and RestoreStock only, which are
// atomic conditional updates.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error
	DecrementStock(ctx context.Context, productID string, quantity int) error
	RestoreStock(ctx context.Context, productID string, quantity int) error
}

// OrderRepository persists orders and their items.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// UpdateStatusIf transitions the order only when it is currently in
	// the from state. Returns ErrInvalidInput when the guard fails.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) error
	// CancelAndRestock atomically marks a cancellable order cancelled and
	// returns its item stock to the products table.
	CancelAndRestock(ctx context.Context, id string) (*domain.Order, error)
}

// PaymentSettlement is a terminal payment outcome and the order
// transition it triggers, applied together in one transaction.
type PaymentSettlement struct {
	PaymentID     string
	Status        domain.PaymentStatus
	GatewayPayRef string
	Signature     string
	FailureReason string
	OrderID       string
	OrderFrom     domain.OrderStatus
	OrderTo       domain.OrderStatus
}

// PaymentRepository persists payment intents and their lifecycle.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	GetByGatewayOrderRef(ctx context.Context, ref string) (*domain.Payment, error)
	// UpdateOutcome records a terminal callback result. payRef,
	// signature and failureReason may be empty.
	UpdateOutcome(ctx context.Context, id string, status domain.PaymentStatus, payRef, signature, failureReason string) error
	// Settle records a terminal callback result and applies the order
	// transition in the same transaction. The order update is a
	// compare-and-swap on OrderFrom; orderMoved reports whether it took.
	Settle(ctx context.Context, st PaymentSettlement) (orderMoved bool, err error)
}

// CartRepository stores per-user carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
