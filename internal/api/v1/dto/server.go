package dto

import "time"

// ServerCreateDTO is used for incoming server registration requests
type ServerCreateDTO struct {
	Name      string  `json:"name" validate:"required"`
	InviteURL *string `json:"invite_url,omitempty" validate:"omitempty,url"`
}

// ServerResponseDTO is returned in API responses for registered servers
type ServerResponseDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	InviteURL          *string   `json:"invite_url,omitempty"`
	SubscriptionStatus string    `json:"subscription_status"`
	MonthlyLimit       int       `json:"monthly_limit"`
	UsageCount         int       `json:"usage_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UsageStatDTO is one per-guild activity row for the analytics page
type UsageStatDTO struct {
	DiscordGuildID    string     `json:"discord_guild_id"`
	CommandsUsed      int        `json:"commands_used"`
	MessagesModerated int        `json:"messages_moderated"`
	LastActivity      *time.Time `json:"last_activity,omitempty"`
}
