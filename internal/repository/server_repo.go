package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"app/internal/model"
)

// ErrQuotaExceeded is returned when an increment would push usage_count past
// monthly_limit. The counter is left untouched.
var ErrQuotaExceeded = errors.New("quota_exceeded")

// ServerRepository defines methods for accessing registered guild rows.
type ServerRepository interface {
	GetByID(ctx context.Context, serverID string) (*model.Server, error)
	GetByOwner(ctx context.Context, owner string) ([]model.Server, error)
	Create(ctx context.Context, srv *model.Server) error
	// DeleteOwned removes a server only when it belongs to owner. Returns
	// false when no matching row exists.
	DeleteOwned(ctx context.Context, serverID, owner string) (bool, error)
	// IncrementUsage applies the quota check and the counter update as a
	// single conditional statement so concurrent increments for the same
	// server cannot both pass the check and lose an update. Returns the new
	// usage count, or ErrQuotaExceeded when the increment would cross the
	// limit.
	IncrementUsage(ctx context.Context, serverID string, amount int) (int, error)
}

type serverRepo struct {
	db *sql.DB
}

// NewServerRepo creates a new ServerRepository.
func NewServerRepo(db *sql.DB) ServerRepository {
	return &serverRepo{db: db}
}

// GetByID returns the server row, or nil when none exists.
func (r *serverRepo) GetByID(ctx context.Context, serverID string) (*model.Server, error) {
	const q = `
        SELECT id, owner, name, invite_url, stripe_customer_id,
               subscription_status, monthly_limit, usage_count, created_at, updated_at
        FROM servers
        WHERE id = $1
    `
	var s model.Server
	err := r.db.QueryRowContext(ctx, q, serverID).Scan(
		&s.ID,
		&s.Owner,
		&s.Name,
		&s.InviteURL,
		&s.StripeCustomerID,
		&s.SubscriptionStatus,
		&s.MonthlyLimit,
		&s.UsageCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch server %s: %w", serverID, err)
	}
	return &s, nil
}

// GetByOwner returns all servers registered by a user.
func (r *serverRepo) GetByOwner(ctx context.Context, owner string) ([]model.Server, error) {
	const q = `
        SELECT id, owner, name, invite_url, stripe_customer_id,
               subscription_status, monthly_limit, usage_count, created_at, updated_at
        FROM servers
        WHERE owner = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("list servers for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var servers []model.Server
	for rows.Next() {
		var s model.Server
		if err := rows.Scan(
			&s.ID,
			&s.Owner,
			&s.Name,
			&s.InviteURL,
			&s.StripeCustomerID,
			&s.SubscriptionStatus,
			&s.MonthlyLimit,
			&s.UsageCount,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan server row: %w", err)
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate server rows: %w", err)
	}
	return servers, nil
}

// Create inserts a new server registration.
func (r *serverRepo) Create(ctx context.Context, srv *model.Server) error {
	const q = `
        INSERT INTO servers (id, owner, name, invite_url, subscription_status, monthly_limit, usage_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	err := r.db.QueryRowContext(ctx, q,
		srv.ID,
		srv.Owner,
		srv.Name,
		srv.InviteURL,
		srv.SubscriptionStatus,
		srv.MonthlyLimit,
	).Scan(&srv.CreatedAt, &srv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create server %s: %w", srv.ID, err)
	}
	return nil
}

// DeleteOwned deletes a server registration belonging to owner.
func (r *serverRepo) DeleteOwned(ctx context.Context, serverID, owner string) (bool, error) {
	const q = `DELETE FROM servers WHERE id = $1 AND owner = $2`
	res, err := r.db.ExecContext(ctx, q, serverID, owner)
	if err != nil {
		return false, fmt.Errorf("delete server %s: %w", serverID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete server %s rows affected: %w", serverID, err)
	}
	return n > 0, nil
}

// IncrementUsage performs the guarded counter update. The WHERE clause
// carries the quota check, so a rejected increment affects zero rows and
// never partially applies.
func (r *serverRepo) IncrementUsage(ctx context.Context, serverID string, amount int) (int, error) {
	const q = `
        UPDATE servers
        SET usage_count = usage_count + $2,
            updated_at = NOW()
        WHERE id = $1
          AND usage_count + $2 <= monthly_limit
        RETURNING usage_count
    `
	var newUsage int
	err := r.db.QueryRowContext(ctx, q, serverID, amount).Scan(&newUsage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the row is gone or the quota check failed; callers fetch
			// the row first, so a missing row here means the limit was hit.
			return 0, ErrQuotaExceeded
		}
		return 0, fmt.Errorf("increment usage for server %s: %w", serverID, err)
	}
	return newUsage, nil
}
