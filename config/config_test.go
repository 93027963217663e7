package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		t.Setenv("HTTP_CLIENT_TIMEOUT_SECONDS", "not-a-number")
		t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 15*time.Second, cfg.HTTPClientTimeout)
		assert.Equal(t, 60, cfg.RateLimitWindowSeconds)
	})

	t.Run("Should normalize urls and admin emails", func(t *testing.T) {
		t.Setenv("FRONTEND_URL", "https://crm.example.com/")
		t.Setenv("RESEND_API_URL", "https://resend.test/")
		t.Setenv("ADMIN_EMAILS", " Boss@Example.com, ,ops@example.com")
		t.Setenv("CATALOG_CACHE_TTL_SECONDS", "60")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "https://crm.example.com", cfg.FrontendURL)
		assert.Equal(t, "https://resend.test", cfg.ResendAPIURL)
		assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.AdminEmails)
		assert.Equal(t, time.Minute, cfg.CatalogCacheTTL)
	})

	t.Run("Should fall back to the legacy anon key variable", func(t *testing.T) {
		if _, set := os.LookupEnv("SUPABASE_KEY"); set {
			t.Skip("SUPABASE_KEY is set in the environment")
		}
		t.Setenv("SUPABASE_ANON_KEY", "anon")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "anon", cfg.SupabaseKey)
	})
}

func TestIsProduction(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("PRODUCTION", "false")
	assert.False(t, (&Config{}).IsProduction())

	t.Setenv("PRODUCTION", "")
	assert.True(t, (&Config{}).IsProduction())
}
