package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"app/internal/model"
)

// SubscriberRepository defines methods for accessing subscriber billing rows.
type SubscriberRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.Subscriber, error)
	// Upsert writes the reconciled subscription state, keyed on email.
	// Repeated calls with the same state are idempotent.
	Upsert(ctx context.Context, sub *model.Subscriber) error
}

type subscriberRepo struct {
	db *sql.DB
}

// NewSubscriberRepo creates a new SubscriberRepository.
func NewSubscriberRepo(db *sql.DB) SubscriberRepository {
	return &subscriberRepo{db: db}
}

// GetByEmail returns the subscriber row for an email, or nil when none exists.
func (r *subscriberRepo) GetByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	const q = `
        SELECT id, email, user_id, stripe_customer_id, discord_user_id, discord_username,
               subscription_status, subscription_tier, subscription_start, subscription_end,
               created_at, updated_at
        FROM subscribers
        WHERE email = $1
    `
	var s model.Subscriber
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&s.ID,
		&s.Email,
		&s.UserID,
		&s.StripeCustomerID,
		&s.DiscordUserID,
		&s.DiscordUsername,
		&s.SubscriptionStatus,
		&s.SubscriptionTier,
		&s.SubscriptionStart,
		&s.SubscriptionEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscriber %s: %w", email, err)
	}
	return &s, nil
}

// Upsert inserts or updates the subscriber row on the email conflict key.
func (r *subscriberRepo) Upsert(ctx context.Context, sub *model.Subscriber) error {
	const q = `
        INSERT INTO subscribers (email, user_id, stripe_customer_id, discord_user_id, discord_username,
                                 subscription_status, subscription_tier, subscription_start, subscription_end,
                                 created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (email) DO UPDATE
        SET user_id = EXCLUDED.user_id,
            stripe_customer_id = EXCLUDED.stripe_customer_id,
            discord_user_id = COALESCE(EXCLUDED.discord_user_id, subscribers.discord_user_id),
            discord_username = COALESCE(EXCLUDED.discord_username, subscribers.discord_username),
            subscription_status = EXCLUDED.subscription_status,
            subscription_tier = EXCLUDED.subscription_tier,
            subscription_start = EXCLUDED.subscription_start,
            subscription_end = EXCLUDED.subscription_end,
            updated_at = NOW()
    `
	_, err := r.db.ExecContext(ctx, q,
		sub.Email,
		sub.UserID,
		sub.StripeCustomerID,
		sub.DiscordUserID,
		sub.DiscordUsername,
		sub.SubscriptionStatus,
		sub.SubscriptionTier,
		sub.SubscriptionStart,
		sub.SubscriptionEnd,
	)
	if err != nil {
		return fmt.Errorf("upsert subscriber %s: %w", sub.Email, err)
	}
	return nil
}
