// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "dev-only-secret-change-me"
	defaultJWTExpiry = 24 * time.Hour
)

// Config holds application configuration.
type Config struct {
	Port              string
	DBPath            string
	JWTSecret         string
	JWTExpiryDuration time.Duration
	LogLevel          string
	// RateLimit uses the limiter format "<limit>-<period>", e.g. "300-M".
	RateLimit string
}

// Load reads configuration from the environment. Values in envFiles (".env"
// when none are given) are loaded first and never override variables that
// are already set. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "./data/expensebook.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_DURATION", defaultJWTExpiry.String())
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.AutomaticEnv()

	cfg := &Config{
		Port:      v.GetString("PORT"),
		DBPath:    v.GetString("DB_PATH"),
		JWTSecret: v.GetString("JWT_SECRET"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		RateLimit: v.GetString("RATE_LIMIT"),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		slog.Warn("JWT_SECRET not set, using insecure development secret")
	}

	expiry := v.GetString("JWT_EXPIRY_DURATION")
	d, err := time.ParseDuration(expiry)
	if err != nil || d <= 0 {
		d = defaultJWTExpiry
		slog.Warn("Invalid JWT_EXPIRY_DURATION, using default", "value", expiry, "default", d)
	}
	cfg.JWTExpiryDuration = d

	return cfg, nil
}
