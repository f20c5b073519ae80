// Package config loads server configuration from environment variables.
//
// Configuration is read once at startup into a plain struct and passed down
// explicitly — nothing reads the environment after Load returns. cmd/server
// calls godotenv.Load() first so a local .env file works in development.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// HTTP server
	Port int

	// Database
	DBPath string

	// Auth
	JWTSecret string

	// Receipt photo storage
	UploadDir string

	// SMS delivery. Provider is "dev" (log the code, return it to the
	// caller) or "http" (POST to a gateway). The http provider needs
	// APIURL and APIKey.
	SMSProvider string
	SMSAPIURL   string
	SMSAPIKey   string
	SMSFrom     string
}

// Load reads configuration from the environment, applying defaults suitable
// for local development. It returns an error only for values that cannot be
// parsed — missing values fall back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        8080,
		DBPath:      getEnv("DB_PATH", "data/expenses.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		UploadDir:   getEnv("UPLOAD_DIR", "data/receipts"),
		SMSProvider: getEnv("SMS_PROVIDER", "dev"),
		SMSAPIURL:   os.Getenv("SMS_API_URL"),
		SMSAPIKey:   os.Getenv("SMS_API_KEY"),
		SMSFrom:     os.Getenv("SMS_FROM"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.SMSProvider != "dev" && cfg.SMSProvider != "http" {
		return nil, fmt.Errorf("config: unknown SMS_PROVIDER %q (want dev or http)", cfg.SMSProvider)
	}
	if cfg.SMSProvider == "http" && (cfg.SMSAPIURL == "" || cfg.SMSAPIKey == "") {
		return nil, fmt.Errorf("config: SMS_PROVIDER=http requires SMS_API_URL and SMS_API_KEY")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
