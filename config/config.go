package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppURL     string `env:"APP_URL" envDefault:"http://localhost:3000"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	DBURL    string        `env:"DB_URL,required,notEmpty"`
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	ClerkIssuer        string `env:"CLERK_ISSUER"`
	ClerkJWKSURL       string `env:"CLERK_JWKS_URL"`
	ClerkJWTSecret     string `env:"CLERK_JWT_SECRET"`
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET,required,notEmpty"`

	StripeSecretKey       string `env:"STRIPE_SECRET_KEY,required,notEmpty"`
	StripeWebhookSecret   string `env:"STRIPE_WEBHOOK_SECRET,required,notEmpty"`
	StripeBasicPriceID    string `env:"STRIPE_BASIC_PRICE_ID,required,notEmpty"`
	StripeStandardPriceID string `env:"STRIPE_STANDARD_PRICE_ID,required,notEmpty"`
	StripePremiumPriceID  string `env:"STRIPE_PREMIUM_PRICE_ID,required,notEmpty"`

	SentryDSN string `env:"SENTRY_DSN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found. Using system environment variables.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ClerkIssuer == "" && cfg.ClerkJWTSecret == "" {
		return nil, fmt.Errorf("either CLERK_ISSUER or CLERK_JWT_SECRET must be set")
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
