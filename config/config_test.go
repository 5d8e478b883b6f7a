package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost/parity")
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_stripe")
	t.Setenv("STRIPE_BASIC_PRICE_ID", "price_basic")
	t.Setenv("STRIPE_STANDARD_PRICE_ID", "price_standard")
	t.Setenv("STRIPE_PREMIUM_PRICE_ID", "price_premium")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("CLERK_JWT_SECRET", "dev-secret")
	t.Setenv("CACHE_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "price_standard", cfg.StripeStandardPriceID)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("CLERK_JWT_SECRET", "dev-secret")
	t.Setenv("STRIPE_PREMIUM_PRICE_ID", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RequiresSessionVerifier(t *testing.T) {
	setRequired(t)
	t.Setenv("CLERK_ISSUER", "")
	t.Setenv("CLERK_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
