package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer      string   // Issuer claim for access tokens
	AdminTokens []string // Static tokens accepted on administrative endpoints

	DatabaseFile         string        // Path to SQLite database file (default: ./carediary.db)
	PepperFile           string        // Path to pepper file for password hashing (default: ./pepper)
	PseudoEmailDomain    string        // Domain of phone-derived login handles (default: diary.local)
	InviteTTL            time.Duration // Default invite lifetime (default: 168h)
	AcceptTimeout        time.Duration // Per-request deadline on redemption (default: 10s)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("CAREDIARY_ISSUER", "carediary-provisioning"),
		DatabaseFile:         getEnvOrDefault("CAREDIARY_DATABASE_FILE", "carediary.db"),
		PepperFile:           getEnvOrDefault("CAREDIARY_PEPPER_FILE", "pepper"),
		PseudoEmailDomain:    getEnvOrDefault("CAREDIARY_PSEUDO_EMAIL_DOMAIN", "diary.local"),
		InviteTTL:            getEnvDurationOrDefault("CAREDIARY_INVITE_TTL", 168*time.Hour),
		AcceptTimeout:        getEnvDurationOrDefault("CAREDIARY_ACCEPT_TIMEOUT", 10*time.Second),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Comma-separated list; mint/revoke/delete are disabled when empty.
	if raw := os.Getenv("CAREDIARY_ADMIN_TOKENS"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.AdminTokens = append(cfg.AdminTokens, t)
			}
		}
	}

	return cfg
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
