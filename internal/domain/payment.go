package domain

import "time"

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "created"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsTerminal reports whether the payment has reached a final state.
// Terminal payments are never modified by later callbacks.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Payment links an order to a payment gateway intent. GatewayOrderRef
// is the gateway-side order identifier used to correlate webhooks.
type Payment struct {
	ID              string        `json:"id"`
	OrderID         string        `json:"order_id"`
	UserID          string        `json:"user_id"`
	Gateway         string        `json:"gateway"`
	GatewayOrderRef string        `json:"gateway_order_ref"`
	GatewayPayRef   string        `json:"gateway_pay_ref,omitempty"`
	Signature       string        `json:"signature,omitempty"`
	Amount          int64         `json:"amount"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	FailureReason   string        `json:"failure_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// InitiatePaymentInput carries the order for which a gateway intent
// should be created.
type InitiatePaymentInput struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

// PaymentCallback is the normalized webhook payload delivered by a
// gateway after the customer completes or abandons checkout.
type PaymentCallback struct {
	GatewayOrderRef string `json:"gateway_order_ref" validate:"required"`
	GatewayPayRef   string `json:"gateway_pay_ref" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
	Event           string `json:"event,omitempty"`
}
