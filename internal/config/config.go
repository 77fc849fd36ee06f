// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Store selection
	StoreBackend string

	// BigQuery
	BQProjectID       string
	BQDataset         string
	BQCredentialsFile string

	// AI gateway
	AIGatewayURL string
	AIModel      string

	// Auth
	JWTSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", "bigquery"),

		BQProjectID:       getEnv("BQ_PROJECT_ID", ""),
		BQDataset:         getEnv("BQ_DATASET", "finview"),
		BQCredentialsFile: getEnv("BQ_CREDENTIALS_FILE", ""),

		AIGatewayURL: getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		AIModel:      getEnv("AI_MODEL", ""),

		JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case "bigquery":
		if c.BQProjectID == "" {
			errs = append(errs, "BQ_PROJECT_ID is required for the bigquery backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid store backend '%s': must be one of [bigquery memory]", c.StoreBackend))
	}

	if c.JWTSecret == "" {
		errs = append(errs, "AUTH_JWT_SECRET is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
