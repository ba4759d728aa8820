package dto

// UsageRequest is the metering request body sent by the bot process.
type UsageRequest struct {
	ServerID       string `json:"server_id" validate:"required"`
	Amount         *int   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	DiscordGuildID string `json:"discord_guild_id,omitempty"`
}

// UsageResponse reports the counter state after a successful increment.
type UsageResponse struct {
	Success    bool `json:"success"`
	UsageCount int  `json:"usage_count"`
	Remaining  int  `json:"remaining"`
	Limit      int  `json:"limit"`
}

// UsageErrorResponse is the structured error body for refused metering calls.
// The optional fields give the caller enough context to retry, upgrade, or
// stop.
type UsageErrorResponse struct {
	Error         string `json:"error"`
	CurrentStatus string `json:"current_status,omitempty"`
	CurrentUsage  *int   `json:"current_usage,omitempty"`
	Limit         *int   `json:"limit,omitempty"`
}
