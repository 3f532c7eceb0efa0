package config

import (
	"os"
	"strconv"
)

// Config holds everything the server reads from the environment.
// Load it once in main and pass it down; nothing else touches os.Getenv.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigin  string
	AdminToken  string

	// Purification thresholds. MeterThreshold is expected to be <= DownvoteRatio
	// by convention; the policy clamps rather than validating.
	PurifyMinVotes int
	PurifyRatio    float64
	MeterThreshold float64
	SurvivalHours  int
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development. The admin token has no default: routes
// guarded by it fail closed when it is unset.
func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", "sqlite://echoboard.db"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
		AdminToken:     os.Getenv("X_ADMIN_TOKEN"),
		PurifyMinVotes: getEnvInt("PURIFICATION_MIN_VOTES", 10),
		PurifyRatio:    getEnvFloat("PURIFICATION_DOWNVOTE_RATIO", 0.6),
		MeterThreshold: getEnvFloat("PURIFICATION_METER_THRESHOLD", 0.4),
		SurvivalHours:  getEnvInt("POST_SURVIVAL_HOURS", 24),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
