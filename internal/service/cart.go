package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/repository"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

// CartService implements the business logic for cart operations. Stock
// checks here are advisory only: they catch obvious oversells at add
// time, but the authoritative check happens when the order is placed.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, users repository.UserRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		users:    users,
		logger:   logger,
	}
}

// GetCart retrieves a user's cart, empty if none exists. The user must
// exist.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.carts.Get(ctx, userID)
}

// AddItem adds a product to the cart, merging with an existing line for
// the same product. Unknown users and unknown products are NotFound.
func (s *CartService) AddItem(ctx context.Context, userID string, input domain.AddToCartInput) (*domain.Cart, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if idx := cart.FindItem(input.ProductID); idx >= 0 {
		quantity += cart.Items[idx].Quantity
	}

	if product.Stock < quantity {
		return nil, apperrors.InsufficientStock(product.Name, product.Stock, quantity)
	}

	line := domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    quantity,
	}

	if idx := cart.FindItem(input.ProductID); idx >= 0 {
		cart.Items[idx] = line
	} else {
		cart.Items = append(cart.Items, line)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("user_id", userID),
		slog.String("product_id", product.ID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateItem changes the quantity of an existing line. Quantity zero or
// below removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return nil, apperrors.NotFoundBy("cart item", "product_id", productID)
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product.Stock < quantity {
			return nil, apperrors.InsufficientStock(product.Name, product.Stock, quantity)
		}
		cart.Items[idx].Quantity = quantity
		cart.Items[idx].Price = product.Price
		cart.Items[idx].ProductName = product.Name
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return cart, nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}

// ClearCart removes the user's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return nil
}
