package gateway

import "context"

// CreateIntentInput carries the order details for creating a gateway
// payment intent. Amount is in the smallest currency unit.
type CreateIntentInput struct {
	Amount   int64
	Currency string
	Receipt  string
}

// Intent is the gateway-side order created for a checkout session.
type Intent struct {
	GatewayOrderID string
	Amount         int64
	Currency       string
}

// Gateway abstracts a payment provider. Implementations must be safe
// for concurrent use.
type Gateway interface {
	// Name identifies the provider, recorded on each payment row.
	Name() string

	// KeyID is the public key the frontend needs to open checkout.
	KeyID() string

	// CreateIntent registers a payment intent with the provider.
	CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error)

	// VerifySignature checks a webhook callback signature in constant
	// time. It never errors: an unverifiable signature is simply false.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}
