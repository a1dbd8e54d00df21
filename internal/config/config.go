// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"STOREFRONT_DB_PATH" envDefault:"./data/storefront.db"`
	SessionSecret string `env:"STOREFRONT_SESSION_SECRET,required"`
	ServerHost    string `env:"STOREFRONT_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"STOREFRONT_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"STOREFRONT_ENV" envDefault:"development"`
	LogLevel      string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"STOREFRONT_UPLOADS_DIR" envDefault:"./uploads"`

	// PageSize is the number of records per listing page.
	PageSize int `env:"STOREFRONT_PAGE_SIZE" envDefault:"9"`

	// Timezone is the display zone for article publication timestamps.
	Timezone string `env:"STOREFRONT_TIMEZONE" envDefault:"EET"`

	// Currency is the ISO 4217 code used when formatting item prices.
	Currency string `env:"STOREFRONT_CURRENCY" envDefault:"EUR"`

	// Cache configuration
	RedisURL     string `env:"STOREFRONT_REDIS_URL"`                          // Optional Redis URL for the page cache
	CachePrefix  string `env:"STOREFRONT_CACHE_PREFIX" envDefault:"sf:"`      // Redis key prefix
	CacheTTL     int    `env:"STOREFRONT_CACHE_TTL" envDefault:"2592000"`     // Page cache TTL in seconds (30 days)
	CacheMaxSize int    `env:"STOREFRONT_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// Rate limiting: requests per rolling minute per client IP.
	RateLimitPerMinute int `env:"STOREFRONT_RATE_LIMIT" envDefault:"100"`

	// Seeding configuration
	DoSeed        bool   `env:"STOREFRONT_DO_SEED" envDefault:"false"`
	SeedAdminUser string `env:"STOREFRONT_SEED_ADMIN_USER" envDefault:"admin"`
	SeedAdminPass string `env:"STOREFRONT_SEED_ADMIN_PASS"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the page cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Location resolves the configured timezone, falling back to UTC on error.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("STOREFRONT_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("STOREFRONT_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}

	if cfg.RateLimitPerMinute < 1 {
		return nil, fmt.Errorf("STOREFRONT_RATE_LIMIT must be positive, got %d", cfg.RateLimitPerMinute)
	}

	return cfg, nil
}
