package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_GeocodingConfig(t *testing.T) {
	t.Setenv("GEOCODING_PROVIDER", "opencage")
	t.Setenv("OPENCAGE_API_KEY", "test-key")
	t.Setenv("GEOCODING_CACHE_SIZE", "250")
	t.Setenv("GEOCODING_CACHE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "opencage", cfg.Geocoding.Provider)
	assert.Equal(t, "test-key", cfg.Geocoding.APIKey)
	assert.Equal(t, 250, cfg.Geocoding.CacheSize)
	assert.Equal(t, 30*time.Minute, cfg.Geocoding.CacheTTL)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEOCODING_PROVIDER", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("DONATION_REQUEST_EXPIRY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Geocoding.Provider)
	assert.Equal(t, "fr", cfg.Geocoding.DefaultLanguage)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.Donation.DefaultExpiry)
	assert.Equal(t, 20*time.Second, cfg.Donation.LocationTimeout)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://redhope.dz, https://admin.redhope.dz,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://redhope.dz", "https://admin.redhope.dz"}, cfg.Server.AllowedOrigins)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestWhatsAppConfig_Enabled(t *testing.T) {
	assert.False(t, (&WhatsAppConfig{AccessToken: "t"}).Enabled())
	assert.True(t, (&WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1"}).Enabled())
}
