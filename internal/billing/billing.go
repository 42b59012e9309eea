// Package billing talks to the payment provider: customers, hosted checkout,
// subscription lookup and signed webhooks.
package billing

import (
	"context"
	"errors"
)

// ErrUnhandledEvent is returned for webhook events the application ignores.
var ErrUnhandledEvent = errors.New("unhandled billing event")

// CustomerRequest describes the billing customer created for a user.
type CustomerRequest struct {
	UserID string
	Email  string
	Name   string
}

// CheckoutRequest describes a hosted subscription checkout.
type CheckoutRequest struct {
	UserID     string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider-hosted page the user is sent to.
type CheckoutSession struct {
	ID  string
	URL string
}

// Subscription is the provider's view of a customer's subscription.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	Interval           string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
}

// Event is a verified webhook notification. Subscription is set for
// subscription lifecycle events; SubscriptionID for completed checkouts.
type Event struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	Subscription   *Subscription
}

// Gateway is the payment provider surface the services use.
type Gateway interface {
	// CreateCustomer must be idempotent per UserID.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// CustomerIdempotencyKey is the provider idempotency key for a user's customer.
func CustomerIdempotencyKey(userID string) string {
	return "customer-" + userID
}
