package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{"DB_DSN", "ENV", "LOG_LEVEL", "BOOTSTRAP_ADMINS", "TELEGRAM_TOKEN", "SLOT_TIMEZONE", "SWEEP_INTERVAL", "RESERVATION_GRACE"} {
		t.Setenv(key, env[key])
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"DB_DSN": "postgres://localhost/mentorship"})

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.SlotLocation)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 15*time.Minute, cfg.ReservationGrace)
	assert.Empty(t, cfg.TelegramToken)
	assert.Empty(t, cfg.LogLevel)
	assert.Empty(t, cfg.BootstrapAdmins)
}

func TestFromEnv_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DSN":            "postgres://localhost/mentorship",
		"ENV":               "production",
		"LOG_LEVEL":         "warn",
		"BOOTSTRAP_ADMINS":  " 6f1c2a3e-8d2b-4b8e-9a51-0c7e4f2d1a10, ,1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
		"TELEGRAM_TOKEN":    "token",
		"SLOT_TIMEZONE":     "Europe/Moscow",
		"SWEEP_INTERVAL":    "1m",
		"RESERVATION_GRACE": "90s",
	})

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "Europe/Moscow", cfg.SlotLocation.String())
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 90*time.Second, cfg.ReservationGrace)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []uuid.UUID{
		uuid.MustParse("6f1c2a3e-8d2b-4b8e-9a51-0c7e4f2d1a10"),
		uuid.MustParse("1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"),
	}, cfg.BootstrapAdmins)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{}},
		{"bad timezone", map[string]string{"DB_DSN": "x", "SLOT_TIMEZONE": "Mars/Olympus"}},
		{"bad interval", map[string]string{"DB_DSN": "x", "SWEEP_INTERVAL": "often"}},
		{"negative grace", map[string]string{"DB_DSN": "x", "RESERVATION_GRACE": "-1m"}},
		{"bad admin id", map[string]string{"DB_DSN": "x", "BOOTSTRAP_ADMINS": "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
