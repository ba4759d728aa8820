package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	// SubscriptionTier is the plan label written to subscriber rows when an
	// active subscription is found.
	SubscriptionTier string `envconfig:"SUBSCRIPTION_TIER" default:"basic"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Rate limit settings for the subscription check endpoint
	RateLimitMax       int `envconfig:"RATE_LIMIT_MAX" default:"10"`
	RateLimitWindowSec int `envconfig:"RATE_LIMIT_WINDOW_SEC" default:"60"`

	// Default quota assigned to newly registered servers
	DefaultMonthlyLimit int `envconfig:"DEFAULT_MONTHLY_LIMIT" default:"1000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
