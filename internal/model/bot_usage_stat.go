package model

import "time"

// BotUsageStat is an aggregate counter per (user, guild) pair, unique on
// (user_id, discord_guild_id). Counters accumulate across metering calls.
type BotUsageStat struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	DiscordGuildID    string     `db:"discord_guild_id" json:"discord_guild_id"`
	CommandsUsed      int        `db:"commands_used" json:"commands_used"`
	MessagesModerated int        `db:"messages_moderated" json:"messages_moderated"`
	LastActivity      *time.Time `db:"last_activity" json:"last_activity,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
