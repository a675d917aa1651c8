package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 4, cfg.SLA.CriticalHours)
	assert.Equal(t, 72, cfg.SLA.LowHours)
	assert.Equal(t, 2*time.Hour, cfg.SLA.RiskWindow())
	assert.Equal(t, "@every 5m", cfg.SLA.SweepSchedule)
	assert.Equal(t, "TKT", cfg.SLA.TicketPrefix)
	assert.Equal(t, "0.0.0.0:8081", cfg.Realtime.Addr())
	assert.False(t, cfg.Notification.EmailEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SLA_HOURS_CRITICAL", "2")
	t.Setenv("SLA_RISK_WINDOW_MINUTES", "45")
	t.Setenv("ALERT_EMAIL_ENABLED", "true")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 2, cfg.SLA.CriticalHours)
	assert.Equal(t, 45*time.Minute, cfg.SLA.RiskWindow())
	assert.True(t, cfg.Notification.EmailEnabled)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 12, cfg.Auth.BcryptCost, "unparseable values fall back to the default")
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	_, err := Load()
	assert.Error(t, err)
}
