package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, "1616", cfg.BootstrapAdminPassword)

	rates, err := cfg.DefaultRates()
	require.NoError(t, err)
	assert.Equal(t, "200.00", rates.WeekdayRate.StringFixed(2))
	assert.Equal(t, "250.00", rates.WeekendRate.StringFixed(2))
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DEFAULT_WEEKDAY_RATE", "200")
	t.Setenv("DEFAULT_WEEKEND_RATE", "250.50")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("IS_LOCAL_DEV", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsLocalDev)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	rates, err := cfg.DefaultRates()
	require.NoError(t, err)
	assert.Equal(t, "250.50", rates.WeekendRate.StringFixed(2))
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("DEFAULT_WEEKDAY_RATE", "-5")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("DEFAULT_WEEKDAY_RATE", "5")
	t.Setenv("TIMEZONE", "Not/AZone")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestRecipientFor(t *testing.T) {
	cfg := Config{EmailDomain: "factory.test"}
	assert.Equal(t, "u1@factory.test", cfg.RecipientFor("u1"))
}
