package dto

import "time"

// SubscriptionCheckResponse is returned by the subscription check endpoint.
// On failure the status defaults to "pending" and Error carries the message.
type SubscriptionCheckResponse struct {
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionTier   *string    `json:"subscription_tier"`
	SubscriptionStart  *time.Time `json:"subscription_start"`
	SubscriptionEnd    *time.Time `json:"subscription_end"`
	Error              string     `json:"error,omitempty"`
}
