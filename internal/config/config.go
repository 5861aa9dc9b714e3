package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting read from the environment.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseDSN           string
	SessionSecret         string
	SessionSecretPrevious string
	SessionTTL            time.Duration
	CookieSecure          bool
	RateBurst             int
	RatePerSecond         int
}

// Load reads configuration from the environment, pulling in a .env file
// during development.
func Load() Config {
	env := getEnv("LEAF_ENV", "production")
	if env == "dev" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:                   env,
		HTTPAddr:              getEnv("LEAF_HTTP_ADDR", ":8080"),
		DatabaseDSN:           getEnv("LEAF_PG_DSN", ""),
		SessionSecret:         getEnv("LEAF_SESSION_SECRET", ""),
		SessionSecretPrevious: getEnv("LEAF_SESSION_SECRET_PREVIOUS", ""),
		SessionTTL:            getEnvDuration("LEAF_SESSION_TTL", 7*24*time.Hour),
		CookieSecure:          getEnvBool("LEAF_COOKIE_SECURE", env == "production"),
		RateBurst:             getEnvInt("LEAF_RATE_BURST", 20),
		RatePerSecond:         getEnvInt("LEAF_RATE_PER_SECOND", 10),
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if raw, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if raw, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(raw); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if raw, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			return value
		}
	}
	return defaultValue
}
