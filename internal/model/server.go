package model

import "time"

// Server is a customer-registered Discord guild with its own usage quota.
// usage_count never exceeds monthly_limit; increments that would cross the
// limit are rejected whole.
type Server struct {
	ID                 string    `db:"id" json:"id"`
	Owner              string    `db:"owner" json:"owner"`
	Name               string    `db:"name" json:"name"`
	InviteURL          *string   `db:"invite_url" json:"invite_url,omitempty"`
	StripeCustomerID   *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	SubscriptionStatus string    `db:"subscription_status" json:"subscription_status"`
	MonthlyLimit       int       `db:"monthly_limit" json:"monthly_limit"`
	UsageCount         int       `db:"usage_count" json:"usage_count"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
