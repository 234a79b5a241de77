package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Inventory InventoryConfig
	Digest    DigestConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the connection settings for the relational store.
type DatabaseConfig struct {
	URL string
}

// AuthConfig contains the endpoint and key for the hosted auth service that
// verifies bearer tokens.
type AuthConfig struct {
	BaseURL string
	AnonKey string
}

// InventoryConfig holds feed inventory thresholds.
type InventoryConfig struct {
	LowStockThreshold float64
}

// DigestConfig holds scheduler-related settings for the daily digest.
type DigestConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	threshold, err := strconv.ParseFloat(getenvWithDefault("LOW_STOCK_THRESHOLD", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOW_STOCK_THRESHOLD: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			BaseURL: os.Getenv("AUTH_BASE_URL"),
			AnonKey: os.Getenv("AUTH_ANON_KEY"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: threshold,
		},
		Digest: DigestConfig{
			CronSchedule: getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. There are
// deliberately no embedded credential fallbacks; a missing secret fails startup.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Database.URL == "" {
		return errors.New("DATABASE_URL must be provided")
	}

	switch {
	case c.Auth.BaseURL == "":
		return errors.New("AUTH_BASE_URL must be provided")
	case c.Auth.AnonKey == "":
		return errors.New("AUTH_ANON_KEY must be provided")
	}

	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD must not be negative")
	}

	if c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}

	if c.Digest.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
