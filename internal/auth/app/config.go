package app

import (
	"os"
	"strconv"
	"time"

	"github.com/donorlens/donorlens/pkg/jwtx"
)

type Config struct {
	AccessSecret  string        // Required: HMAC secret for access tokens
	RenewalSecret string        // Required: HMAC secret for renewal tokens, must differ
	AccessTTL     time.Duration // Optional: access token lifetime (default: 15m)
	RenewalTTL    time.Duration // Optional: renewal token lifetime (default: 14 days)
	Issuer        string        // Optional: issuer claim for tokens (default: donorlens-auth)

	DatabaseFile string // Optional: path to SQLite database file (default: ./donorlens.db)

	BootstrapEmail    string // Optional: admin account created on an empty store
	BootstrapPassword string // Optional: password for the bootstrap admin

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		AccessSecret:  os.Getenv("AUTH_ACCESS_SECRET"),
		RenewalSecret: os.Getenv("AUTH_RENEWAL_SECRET"),
		AccessTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTTL),
		RenewalTTL:    getEnvDurationOrDefault("AUTH_RENEWAL_TTL", jwtx.DefaultRenewalTTL),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "donorlens-auth"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "donorlens.db"),

		BootstrapEmail:    os.Getenv("AUTH_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// SecureCookies reports whether the renewal cookie should carry the
// Secure attribute. Only plain dev setups go without it.
func (cfg Config) SecureCookies() bool {
	return cfg.Env != "dev"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
