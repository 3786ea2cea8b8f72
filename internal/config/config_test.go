package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"MEMBERSHIP_JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, ":8083", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.StrictStatus)
	assert.Equal(t, 0, cfg.CreateRatePerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.UseMemoryStore())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"MEMBERSHIP_JWT_SECRET":             "s3cret",
		"MEMBERSHIP_HTTP_ADDR":              ":9999",
		"MEMBERSHIP_STRICT_STATUS":          "true",
		"MEMBERSHIP_CREATE_RATE_PER_MINUTE": "30",
		"MEMBERSHIP_LOG_FORMAT":             "json",
		"DATABASE_URL":                      MemoryDatabaseURL,
	})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.True(t, cfg.StrictStatus)
	assert.Equal(t, 30, cfg.CreateRatePerMinute)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.UseMemoryStore())
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {},
		"negative rate":  {"MEMBERSHIP_JWT_SECRET": "x", "MEMBERSHIP_CREATE_RATE_PER_MINUTE": "-1"},
		"bad format":     {"MEMBERSHIP_JWT_SECRET": "x", "MEMBERSHIP_LOG_FORMAT": "xml"},
		"bad bool":       {"MEMBERSHIP_JWT_SECRET": "x", "MEMBERSHIP_STRICT_STATUS": "maybe"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			require.Error(t, err)
		})
	}
}

func TestStringMasksSecrets(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"MEMBERSHIP_JWT_SECRET": "s3cret",
		"DATABASE_URL":          "postgres://app:hunter2@db:5432/app",
	})
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, "s3cret")
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "postgres://app:***@db:5432/app")
}
