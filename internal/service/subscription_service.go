package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

// Identity is the authenticated caller the reconciler acts for. Email must be
// present; the Discord fields are carried opportunistically when the caller's
// token includes them.
type Identity struct {
	UserID          string
	Email           string
	DiscordUserID   string
	DiscordUsername string
}

// ReconcileResult is the derived subscription state returned to the caller
// and persisted to the subscriber row.
type ReconcileResult struct {
	Status string
	Tier   *string
	Start  *time.Time
	End    *time.Time
}

// SubscriptionService refreshes locally persisted subscription state from the
// payment provider.
type SubscriptionService interface {
	// Reconcile derives the authoritative subscription status for an identity
	// and upserts it into the subscriber row keyed by email. Repeated calls
	// with unchanged upstream state produce the same row.
	Reconcile(ctx context.Context, id Identity) (*ReconcileResult, error)
}

type subscriptionService struct {
	billing BillingClient
	subs    repository.SubscriberRepository
	tier    string
	logger  zerolog.Logger
}

// NewSubscriptionService creates a SubscriptionService with a scoped logger.
// tier is the plan label written when an active subscription is found.
func NewSubscriptionService(billing BillingClient, subs repository.SubscriberRepository, tier string, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		billing: billing,
		subs:    subs,
		tier:    tier,
		logger:  logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Reconcile(ctx context.Context, id Identity) (*ReconcileResult, error) {
	lg := s.logger.With().Str("user_id", id.UserID).Logger()

	// Existing row is informational only; the provider is authoritative.
	if existing, err := s.subs.GetByEmail(ctx, id.Email); err != nil {
		lg.Warn().Err(err).Msg("Failed to read existing subscriber row")
	} else if existing != nil {
		lg.Info().Str("current_status", existing.SubscriptionStatus).Msg("Existing subscriber row found")
	}

	cust, err := s.billing.FindCustomerByEmail(ctx, id.Email)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		lg.Info().Msg("No Stripe customer found, persisting pending state")
		res := &ReconcileResult{Status: model.SubscriptionStatusPending}
		if err := s.persist(ctx, id, nil, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	lg.Info().Str("stripe_customer_id", cust.ID).Msg("Found Stripe customer")

	res := &ReconcileResult{Status: model.SubscriptionStatusPending}

	sub, err := s.billing.FindActiveSubscription(ctx, cust.ID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		res.Status = model.SubscriptionStatusActive
		res.Tier = &s.tier
		res.Start, res.End = subscriptionPeriod(sub)
		lg.Info().Str("subscription_id", sub.ID).Msg("Active subscription found")
	} else {
		latest, err := s.billing.FindLatestSubscription(ctx, cust.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			switch latest.Status {
			case stripe.SubscriptionStatusCanceled:
				res.Status = model.SubscriptionStatusCancelled
			case stripe.SubscriptionStatusPastDue:
				res.Status = model.SubscriptionStatusExpired
			}
			res.Start, res.End = subscriptionPeriod(latest)
		}
		lg.Info().Str("derived_status", res.Status).Msg("No active subscription found")
	}

	if err := s.persist(ctx, id, cust, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *subscriptionService) persist(ctx context.Context, id Identity, cust *stripe.Customer, res *ReconcileResult) error {
	row := &model.Subscriber{
		Email:              id.Email,
		SubscriptionStatus: res.Status,
		SubscriptionTier:   res.Tier,
		SubscriptionStart:  res.Start,
		SubscriptionEnd:    res.End,
	}
	if id.UserID != "" {
		row.UserID = &id.UserID
	}
	if cust != nil {
		row.StripeCustomerID = &cust.ID
	}
	if id.DiscordUserID != "" {
		row.DiscordUserID = &id.DiscordUserID
	}
	if id.DiscordUsername != "" {
		row.DiscordUsername = &id.DiscordUsername
	}
	if err := s.subs.Upsert(ctx, row); err != nil {
		s.logger.Error().Err(err).Str("user_id", id.UserID).Msg("Failed to upsert subscriber row")
		return err
	}
	return nil
}

// subscriptionPeriod extracts the current billing period from the first
// subscription item, where Stripe keeps it since the v82 API.
func subscriptionPeriod(sub *stripe.Subscription) (*time.Time, *time.Time) {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, nil
	}
	item := sub.Items.Data[0]
	start := time.Unix(item.CurrentPeriodStart, 0).UTC()
	end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
	return &start, &end
}
