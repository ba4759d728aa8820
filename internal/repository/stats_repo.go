package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"
)

// StatsRepository tracks aggregate bot activity per (user, guild) pair.
type StatsRepository interface {
	// RecordActivity adds commandsUsed to the (userID, guildID) counters,
	// creating the row when absent.
	RecordActivity(ctx context.Context, userID, guildID string, commandsUsed int) error
	GetByUser(ctx context.Context, userID string) ([]model.BotUsageStat, error)
}

type statsRepo struct {
	db *sql.DB
}

// NewStatsRepo creates a new StatsRepository.
func NewStatsRepo(db *sql.DB) StatsRepository {
	return &statsRepo{db: db}
}

// RecordActivity accumulates command usage for a guild. Counters sum on
// conflict rather than overwrite, so the stats survive concurrent writers.
func (r *statsRepo) RecordActivity(ctx context.Context, userID, guildID string, commandsUsed int) error {
	const q = `
        INSERT INTO bot_usage_stats (user_id, discord_guild_id, commands_used, messages_moderated, last_activity, created_at, updated_at)
        VALUES ($1, $2, $3, 0, NOW(), NOW(), NOW())
        ON CONFLICT (user_id, discord_guild_id) DO UPDATE
        SET commands_used = bot_usage_stats.commands_used + EXCLUDED.commands_used,
            last_activity = NOW(),
            updated_at = NOW()
    `
	_, err := r.db.ExecContext(ctx, q, userID, guildID, commandsUsed)
	if err != nil {
		return fmt.Errorf("record activity for user %s guild %s: %w", userID, guildID, err)
	}
	return nil
}

// GetByUser returns all usage stat rows for a user, most recent first.
func (r *statsRepo) GetByUser(ctx context.Context, userID string) ([]model.BotUsageStat, error) {
	const q = `
        SELECT id, user_id, discord_guild_id, commands_used, messages_moderated,
               last_activity, created_at, updated_at
        FROM bot_usage_stats
        WHERE user_id = $1
        ORDER BY last_activity DESC NULLS LAST
    `
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list usage stats for user %s: %w", userID, err)
	}
	defer rows.Close()

	var stats []model.BotUsageStat
	for rows.Next() {
		var st model.BotUsageStat
		if err := rows.Scan(
			&st.ID,
			&st.UserID,
			&st.DiscordGuildID,
			&st.CommandsUsed,
			&st.MessagesModerated,
			&st.LastActivity,
			&st.CreatedAt,
			&st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usage stat row: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage stat rows: %w", err)
	}
	return stats, nil
}
