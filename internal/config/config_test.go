package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, 7, cfg.Lending.BorrowingPeriodDays)
	assert.Equal(t, 2.0, cfg.Lending.FineRatePerDay)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRES", "60")
	t.Setenv("BORROWING_PERIOD_DAYS", "14")
	t.Setenv("FINE_RATE_PER_DAY", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_HOST", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 14, cfg.Lending.BorrowingPeriodDays)
	assert.Equal(t, 0.5, cfg.Lending.FineRatePerDay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadRejectsNegativeFineRate(t *testing.T) {
	t.Setenv("FINE_RATE_PER_DAY", "-1")

	_, err := Load()
	require.Error(t, err)
}
