package model

import "time"

// Subscription status values mirrored from the payment provider.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusPending   = "pending"
)

// Subscriber is one billing identity, keyed by email. Exactly one row exists
// per email; reconciliation upserts on the email conflict key.
type Subscriber struct {
	ID                 string     `db:"id" json:"id"`
	Email              string     `db:"email" json:"email"`
	UserID             *string    `db:"user_id" json:"user_id,omitempty"`
	StripeCustomerID   *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	DiscordUserID      *string    `db:"discord_user_id" json:"discord_user_id,omitempty"`
	DiscordUsername    *string    `db:"discord_username" json:"discord_username,omitempty"`
	SubscriptionStatus string     `db:"subscription_status" json:"subscription_status"`
	SubscriptionTier   *string    `db:"subscription_tier" json:"subscription_tier,omitempty"`
	SubscriptionStart  *time.Time `db:"subscription_start" json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time `db:"subscription_end" json:"subscription_end,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
