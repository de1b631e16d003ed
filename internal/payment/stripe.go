package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeSubscription is what the frontend needs to confirm a card payment
type StripeSubscription struct {
	SubscriptionID string `json:"subscriptionId"`
	CustomerID     string `json:"-"`
	ClientSecret   string `json:"clientSecret"`
	Status         string `json:"status"`
}

// Stripe creates card subscriptions for a single price
type Stripe struct {
	api     *client.API
	priceID string
}

// NewStripe returns ErrNotConfigured when no secret key is set
func NewStripe(secretKey, priceID string) (*Stripe, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{api: sc, priceID: priceID}, nil
}

// NewStripeWithBackends is used by tests to point the SDK at a fake server
func NewStripeWithBackends(secretKey, priceID string, backends *stripe.Backends) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &Stripe{api: sc, priceID: priceID}
}

// GetSubscription loads an existing subscription with its latest payment intent
func (s *Stripe) GetSubscription(ctx context.Context, id string) (*StripeSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription: %w", err)
	}
	return toSubscription(sub), nil
}

// CreateCustomer registers the user with Stripe and returns the customer id
func (s *Stripe) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CreateSubscription starts an incomplete subscription awaiting card confirmation
func (s *Stripe) CreateSubscription(ctx context.Context, customerID string) (*StripeSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(s.priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	out := toSubscription(sub)
	out.CustomerID = customerID
	return out, nil
}

func toSubscription(sub *stripe.Subscription) *StripeSubscription {
	out := &StripeSubscription{SubscriptionID: sub.ID, Status: string(sub.Status)}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
