// Package payments defines the payment collaborator port (interface).
package payments

import "context"

// CheckoutSession is a pending payment for a boost purchase.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Provider is the port interface for the hosted payment service. A boost
// purchase creates a checkout session; a separate confirm step finalizes
// payment before any conversation is generated.
type Provider interface {
	CreateBoostCheckout(ctx context.Context, boostID string, amountUSD float64) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, sessionID string) (bool, error)
}
