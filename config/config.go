package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"arena-matchmaking/oracle"
	"arena-matchmaking/service"
)

// Config stores the application configuration.
// It's populated from environment variables, with a .env file as fallback.
type Config struct {
	HTTPAddr string
	LogLevel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBPath string

	OracleBaseURL string
	OracleToken   string
	OracleTimeout time.Duration

	Matcher *service.MatcherConfig
}

// getEnv returns the environment variable or the default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// Load reads the configuration. Variables already set in the environment
// take precedence over the .env file.
func Load() (*Config, error) {
	// Missing .env is fine outside local development
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DBPath:        getEnv("DB_PATH", "arena.db"),
		OracleBaseURL: getEnv("ORACLE_BASE_URL", oracle.DefaultBaseURL),
		OracleToken:   os.Getenv("ORACLE_TOKEN"),
		Matcher:       service.DefaultMatcherConfig(),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.OracleTimeout, err = getDuration("ORACLE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	m := cfg.Matcher
	if m.MaxRatingDiff, err = getInt("PAIRING_MAX_DIFF", m.MaxRatingDiff); err != nil {
		return nil, err
	}
	if m.RelaxAfter, err = getDuration("PAIRING_RELAX_AFTER", m.RelaxAfter); err != nil {
		return nil, err
	}
	if m.RatingDelta, err = getInt("RATING_DELTA", m.RatingDelta); err != nil {
		return nil, err
	}
	if m.SweepInterval, err = getDuration("QUEUE_SWEEP_INTERVAL", m.SweepInterval); err != nil {
		return nil, err
	}
	if m.RejectBusyPlayers, err = getBool("QUEUE_REJECT_BUSY", m.RejectBusyPlayers); err != nil {
		return nil, err
	}
	if m.StaleMatchAfter, err = getDuration("STALE_MATCH_AFTER", m.StaleMatchAfter); err != nil {
		return nil, err
	}

	if m.MaxRatingDiff < 0 {
		return nil, fmt.Errorf("invalid PAIRING_MAX_DIFF %d: must not be negative", m.MaxRatingDiff)
	}
	if m.RatingDelta <= 0 {
		return nil, fmt.Errorf("invalid RATING_DELTA %d: must be positive", m.RatingDelta)
	}

	return cfg, nil
}
