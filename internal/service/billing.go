package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
)

// BillingClient is the narrow slice of the payment provider the reconciler
// needs: customer lookup by email and subscription listing per customer.
type BillingClient interface {
	// FindCustomerByEmail returns the first customer matching email, or nil
	// when none exists.
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	// FindActiveSubscription returns the customer's active subscription, or
	// nil when there is none.
	FindActiveSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error)
	// FindLatestSubscription returns the customer's most recent subscription
	// regardless of status, or nil when the customer has never subscribed.
	FindLatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error)
}

// StripeBilling implements BillingClient against the Stripe API.
type StripeBilling struct {
	logger zerolog.Logger
}

// NewStripeBilling sets the Stripe API key and returns a client with a scoped logger.
func NewStripeBilling(secretKey string, logger zerolog.Logger) *StripeBilling {
	stripe.Key = secretKey
	lg := logger.With().Str("service", "StripeBilling").Logger()
	return &StripeBilling{logger: lg}
}

func (b *StripeBilling) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	it := customerpkg.List(params)
	for it.Next() {
		return it.Customer(), nil
	}
	if err := it.Err(); err != nil {
		b.logger.Error().Err(err).Msg("Failed to list Stripe customers")
		return nil, fmt.Errorf("list stripe customers: %w", err)
	}
	return nil, nil
}

func (b *StripeBilling) FindActiveSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	return b.firstSubscription(params)
}

func (b *StripeBilling) FindLatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	return b.firstSubscription(params)
}

func (b *StripeBilling) firstSubscription(params *stripe.SubscriptionListParams) (*stripe.Subscription, error) {
	it := subscriptionpkg.List(params)
	for it.Next() {
		return it.Subscription(), nil
	}
	if err := it.Err(); err != nil {
		b.logger.Error().Err(err).Msg("Failed to list Stripe subscriptions")
		return nil, fmt.Errorf("list stripe subscriptions: %w", err)
	}
	return nil, nil
}
