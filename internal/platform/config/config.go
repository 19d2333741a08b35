package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
	// AllowedOrigins is parsed from CORS_ALLOWED_ORIGINS; empty means "*".
	AllowedOrigins string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type AppConfig struct {
	ServiceName string
	Env         string
	Log         LogConfig
	HTTP        HTTPConfig
}

// IsProduction reports whether APP_ENV=production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		Env:         strings.TrimSpace(os.Getenv("APP_ENV")),
		Log: LogConfig{
			Level:      strings.TrimSpace(os.Getenv("LOG_LEVEL")),
			File:       strings.TrimSpace(os.Getenv("LOG_FILE")),
			MaxSizeMB:  EnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: EnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: EnvInt("LOG_MAX_AGE_DAYS", 7),
		},
		HTTP: HTTPConfig{
			Addr:           strings.TrimSpace(os.Getenv("HTTP_ADDR")),
			AllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	return cfg, nil
}

// EnvInt reads a non-negative integer from key, returning fallback when unset or invalid.
func EnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// EnvDuration reads a positive time.Duration from key, returning fallback when unset or invalid.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
