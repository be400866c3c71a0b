package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = "5000"
	defaultDatabaseURL   = "sqlite://nhm_demo.db"
	defaultSecretKey     = "nhm_india_secure_2026"
	defaultAdminUsername = "jeet@123gmail.com"
	defaultAdminPassword = "jeet123"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string
	DatabaseURL      string
	SecretKey        string
	JWTIssuer        string
	JWTTTL           time.Duration
	CORSOrigins      []string
	AdminUsername    string
	AdminPassword    string
	EnforceAdminAuth bool
	LogLevel         string
}

// Load reads configuration from the environment. Every setting has a
// default, so an empty environment yields a runnable local setup.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), defaultPort),
		DatabaseURL:   fallback(os.Getenv("DATABASE_URL"), defaultDatabaseURL),
		SecretKey:     fallback(os.Getenv("SECRET_KEY"), defaultSecretKey),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "fund-tracker"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		AdminUsername: fallback(os.Getenv("ADMIN_USERNAME"), defaultAdminUsername),
		AdminPassword: fallback(os.Getenv("ADMIN_PASSWORD"), defaultAdminPassword),
		LogLevel:      fallback(os.Getenv("LOG_LEVEL"), "info"),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if raw := strings.TrimSpace(os.Getenv("ENFORCE_ADMIN_AUTH")); raw != "" {
		enforce, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ENFORCE_ADMIN_AUTH: %w", err)
		}
		cfg.EnforceAdminAuth = enforce
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, errors.New("PORT must be a number between 1 and 65535")
	}

	return cfg, nil
}

// CLIConfig is the subset of settings the operator CLI needs.
type CLIConfig struct {
	DatabaseURL string
	LogLevel    string
}

// LoadCLI reads only the storage and logging settings. Server-only settings
// are ignored, so a bad PORT does not block operator commands.
func LoadCLI() CLIConfig {
	return CLIConfig{
		DatabaseURL: fallback(os.Getenv("DATABASE_URL"), defaultDatabaseURL),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
	}
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// UsesDefaultSecret reports whether the signing key was left at its built-in value.
func (c Config) UsesDefaultSecret() bool {
	return c.SecretKey == defaultSecretKey
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
