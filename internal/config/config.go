// Package config loads runtime configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port       int
	DBPath     string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CORSOrigin string
	LogLevel   slog.Level
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over it. JWT_SECRET is the only required value.
func Load() (Config, error) {
	// godotenv.Load never overrides variables already set in the
	// environment, so deployments keep full control.
	_ = godotenv.Load()

	cfg := Config{
		Port:       8000,
		DBPath:     "data/softdesk.db",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		CORSOrigin: "*",
		LogLevel:   slog.LevelInfo,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	var err error
	if cfg.AccessTTL, err = duration("ACCESS_TOKEN_TTL", cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = duration("REFRESH_TOKEN_TTL", cfg.RefreshTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = lvl
	}

	return cfg, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %q", key, v)
	}
	return d, nil
}
