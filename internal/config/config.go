package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	CatalogURL      string
	JWTSecret       string
	MetricsToken    string
	LogLevel        string
	ShutdownTimeout time.Duration

	SessionCookieName   string
	SessionTTL          time.Duration
	SessionCookieSecure bool
}

const defaultSessionTTL = 14 * 24 * time.Hour

// FromEnv builds Config with defaults, overridden by environment variables.
// defaultAddr differs per binary so several can run side by side locally.
func FromEnv(defaultAddr string) Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", defaultAddr),
		DBConnString:    os.Getenv("DB_DSN"),
		CatalogURL:      os.Getenv("CATALOG_URL"),
		JWTSecret:       envOrDefault("JWT_SECRET", "dev-secret"),
		MetricsToken:    os.Getenv("METRICS_TOKEN"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		ShutdownTimeout: envSeconds("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),

		SessionCookieName:   envOrDefault("SESSION_COOKIE_NAME", "sessionid"),
		SessionTTL:          envSeconds("SESSION_TTL_SECONDS", defaultSessionTTL),
		SessionCookieSecure: envBool("SESSION_COOKIE_SECURE", false),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
