package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-matchmaking/oracle"
)

var allKeys = []string{
	"HTTP_ADDR", "LOG_LEVEL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "DB_PATH",
	"ORACLE_BASE_URL", "ORACLE_TOKEN", "ORACLE_TIMEOUT", "PAIRING_MAX_DIFF",
	"PAIRING_RELAX_AFTER", "RATING_DELTA", "QUEUE_SWEEP_INTERVAL", "QUEUE_REJECT_BUSY",
	"STALE_MATCH_AFTER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	// Run from a directory without a .env file
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "arena.db", cfg.DBPath)
	assert.Equal(t, oracle.DefaultBaseURL, cfg.OracleBaseURL)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout)

	assert.Equal(t, 200, cfg.Matcher.MaxRatingDiff)
	assert.Equal(t, 10*time.Second, cfg.Matcher.RelaxAfter)
	assert.Equal(t, 30, cfg.Matcher.RatingDelta)
	assert.Zero(t, cfg.Matcher.SweepInterval)
	assert.False(t, cfg.Matcher.RejectBusyPlayers)
	assert.Equal(t, 30*time.Minute, cfg.Matcher.StaleMatchAfter)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ORACLE_TIMEOUT", "2s")
	t.Setenv("PAIRING_MAX_DIFF", "150")
	t.Setenv("PAIRING_RELAX_AFTER", "30s")
	t.Setenv("QUEUE_SWEEP_INTERVAL", "5s")
	t.Setenv("QUEUE_REJECT_BUSY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 150, cfg.Matcher.MaxRatingDiff)
	assert.Equal(t, 30*time.Second, cfg.Matcher.RelaxAfter)
	assert.Equal(t, 5*time.Second, cfg.Matcher.SweepInterval)
	assert.True(t, cfg.Matcher.RejectBusyPlayers)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "zero"},
		{"ORACLE_TIMEOUT", "soon"},
		{"PAIRING_RELAX_AFTER", "-1s"},
		{"PAIRING_MAX_DIFF", "-5"},
		{"RATING_DELTA", "0"},
		{"QUEUE_REJECT_BUSY", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
