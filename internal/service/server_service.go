package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServerService manages guild registrations for the dashboard.
type ServerService interface {
	Register(ctx context.Context, owner, name string, inviteURL *string) (*model.Server, error)
	List(ctx context.Context, owner string) ([]model.Server, error)
	// Delete removes a registration owned by the caller. Returns
	// ErrServerNotFound when the server does not exist or belongs to
	// someone else.
	Delete(ctx context.Context, serverID, owner string) error
	// UsageStats returns the caller's per-guild activity counters.
	UsageStats(ctx context.Context, userID string) ([]model.BotUsageStat, error)
}

type serverService struct {
	servers      repository.ServerRepository
	stats        repository.StatsRepository
	monthlyLimit int
	logger       zerolog.Logger
}

// NewServerService creates a ServerService with a scoped logger.
// monthlyLimit is the quota assigned to newly registered servers.
func NewServerService(servers repository.ServerRepository, stats repository.StatsRepository, monthlyLimit int, logger zerolog.Logger) ServerService {
	return &serverService{
		servers:      servers,
		stats:        stats,
		monthlyLimit: monthlyLimit,
		logger:       logger.With().Str("service", "ServerService").Logger(),
	}
}

func (s *serverService) Register(ctx context.Context, owner, name string, inviteURL *string) (*model.Server, error) {
	srv := &model.Server{
		ID:                 uuid.NewString(),
		Owner:              owner,
		Name:               name,
		InviteURL:          inviteURL,
		SubscriptionStatus: model.SubscriptionStatusPending,
		MonthlyLimit:       s.monthlyLimit,
	}
	if err := s.servers.Create(ctx, srv); err != nil {
		s.logger.Error().Err(err).Str("owner", owner).Msg("Failed to register server")
		return nil, err
	}
	s.logger.Info().Str("server_id", srv.ID).Str("owner", owner).Msg("Server registered")
	return srv, nil
}

func (s *serverService) List(ctx context.Context, owner string) ([]model.Server, error) {
	servers, err := s.servers.GetByOwner(ctx, owner)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", owner).Msg("Failed to list servers")
		return nil, err
	}
	return servers, nil
}

func (s *serverService) Delete(ctx context.Context, serverID, owner string) error {
	deleted, err := s.servers.DeleteOwned(ctx, serverID, owner)
	if err != nil {
		s.logger.Error().Err(err).Str("server_id", serverID).Msg("Failed to delete server")
		return err
	}
	if !deleted {
		return ErrServerNotFound
	}
	s.logger.Info().Str("server_id", serverID).Str("owner", owner).Msg("Server deleted")
	return nil
}

func (s *serverService) UsageStats(ctx context.Context, userID string) ([]model.BotUsageStat, error) {
	stats, err := s.stats.GetByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch usage stats")
		return nil, err
	}
	return stats, nil
}
