package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrServerNotFound is returned when the metered server id resolves to no row.
var ErrServerNotFound = errors.New("server_not_found")

// ErrUsageUpdateFailed marks a persistence failure at the increment step,
// after the server row itself was fetched fine.
var ErrUsageUpdateFailed = errors.New("failed to update usage count")

// InactiveSubscriptionError rejects metering for servers whose subscription
// is not active, reporting the current status so the caller can react.
type InactiveSubscriptionError struct {
	Status string
}

func (e InactiveSubscriptionError) Error() string {
	return fmt.Sprintf("server subscription is not active (status %s)", e.Status)
}

// QuotaExceededError rejects an increment that would cross the monthly limit.
// The counter is left untouched.
type QuotaExceededError struct {
	CurrentUsage int
	Limit        int
}

func (e QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly usage limit exceeded (%d/%d)", e.CurrentUsage, e.Limit)
}

// MeterResult reports the counter state after a successful increment.
type MeterResult struct {
	UsageCount int
	Remaining  int
	Limit      int
}

// UsageService consumes quota for registered servers.
type UsageService interface {
	// Meter validates the server's subscription, applies the quota-checked
	// increment, and optionally records per-guild activity stats. The stats
	// write is non-fatal; the increment is all-or-nothing.
	Meter(ctx context.Context, serverID string, amount int, discordGuildID string) (*MeterResult, error)
}

type usageService struct {
	servers repository.ServerRepository
	stats   repository.StatsRepository
	logger  zerolog.Logger
}

// NewUsageService creates a UsageService with a scoped logger.
func NewUsageService(servers repository.ServerRepository, stats repository.StatsRepository, logger zerolog.Logger) UsageService {
	return &usageService{
		servers: servers,
		stats:   stats,
		logger:  logger.With().Str("service", "UsageService").Logger(),
	}
}

func (s *usageService) Meter(ctx context.Context, serverID string, amount int, discordGuildID string) (*MeterResult, error) {
	lg := s.logger.With().Str("server_id", serverID).Logger()

	srv, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		lg.Error().Err(err).Msg("Failed to fetch server for metering")
		return nil, err
	}
	if srv == nil {
		return nil, ErrServerNotFound
	}

	if srv.SubscriptionStatus != model.SubscriptionStatusActive {
		lg.Warn().Str("status", srv.SubscriptionStatus).Msg("Metering refused, subscription not active")
		return nil, InactiveSubscriptionError{Status: srv.SubscriptionStatus}
	}

	newUsage, err := s.servers.IncrementUsage(ctx, serverID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			lg.Warn().
				Int("current_usage", srv.UsageCount).
				Int("requested", amount).
				Int("limit", srv.MonthlyLimit).
				Msg("Metering refused, monthly limit exceeded")
			return nil, QuotaExceededError{CurrentUsage: srv.UsageCount, Limit: srv.MonthlyLimit}
		}
		lg.Error().Err(err).Msg("Failed to update usage count")
		return nil, fmt.Errorf("%w: %v", ErrUsageUpdateFailed, err)
	}

	if discordGuildID != "" {
		// Stats logging never fails the request; the increment already stuck.
		if err := s.stats.RecordActivity(ctx, srv.Owner, discordGuildID, amount); err != nil {
			lg.Warn().Err(err).Str("discord_guild_id", discordGuildID).Msg("Failed to record usage stats")
		}
	}

	lg.Info().
		Int("new_usage", newUsage).
		Int("remaining", srv.MonthlyLimit-newUsage).
		Msg("Usage updated")

	return &MeterResult{
		UsageCount: newUsage,
		Remaining:  srv.MonthlyLimit - newUsage,
		Limit:      srv.MonthlyLimit,
	}, nil
}
