package domain

import "time"

// CartItem is a single product line in a cart. Price is the product
// price captured when the line was last refreshed.
type CartItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// Subtotal returns price * quantity for the line.
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Cart holds a user's pending items. Carts live in Redis keyed by user
// and expire after inactivity.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalAmount returns the sum of all line subtotals.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddToCartInput carries the fields for adding a product to the cart.
type AddToCartInput struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=100"`
}

// UpdateCartItemInput carries a quantity change for an existing line.
// Quantity 0 removes the line.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}
