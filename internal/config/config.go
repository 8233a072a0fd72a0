// Package config provides centralized configuration loaded from environment
// variables, plus the static venue registry. Shared by cmd/bot and
// cmd/watchctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Behaviour constants
// --------------------------------------------------------------------------

const (
	// DefaultRangeDays is the rolling-window length offered by the UI.
	DefaultRangeDays = 10

	// MaxSpecificDays bounds how far ahead a specific-date subscription
	// can be created.
	MaxSpecificDays = 30

	// VenueTimezone is the timezone all venues operate in. Time labels and
	// "today" are always evaluated in this zone.
	VenueTimezone = "Europe/Moscow"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Telegram
	BotToken  string
	OwnerID   int64
	WebAppURL string

	// Provider credentials. Optional: an empty yclients token degrades
	// those venues to "no price data" instead of failing startup.
	YClientsToken string

	// Monitoring loop
	CheckInterval time.Duration
	RecoveryDelay time.Duration
	FetchTimeout  time.Duration

	// Mini-App API server
	APIHost          string
	APIPort          int
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Per-user bot flood control
	FloodActions int
	FloodPeriod  time.Duration

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN must be set")
	}

	ownerRaw := os.Getenv("OWNER_ID")
	if ownerRaw == "" {
		return nil, fmt.Errorf("OWNER_ID must be set")
	}
	ownerID, err := strconv.ParseInt(ownerRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_ID %q is not a number: %w", ownerRaw, err)
	}

	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		BotToken:  botToken,
		OwnerID:   ownerID,
		WebAppURL: envOr("WEBAPP_URL", ""),

		YClientsToken: envOr("YCLIENTS_AUTH_TOKEN", ""),

		CheckInterval: time.Duration(envInt("CHECK_INTERVAL_SECONDS", 60)) * time.Second,
		RecoveryDelay: time.Duration(envInt("RECOVERY_DELAY_SECONDS", 60)) * time.Second,
		FetchTimeout:  time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		APIHost:          envOr("API_HOST", "0.0.0.0"),
		APIPort:          envInt("API_PORT", 8080),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		FloodActions: envInt("FLOOD_CONTROL_ACTIONS", 5),
		FloodPeriod:  time.Duration(envInt("FLOOD_CONTROL_PERIOD_SECONDS", 3)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
