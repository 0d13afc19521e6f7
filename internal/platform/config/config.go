// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
loaded first when present so development setups need no exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codec) via constructors.
  - Fail Fast: Missing secrets or non-positive durations abort startup.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Dublin Bikes API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. Access and refresh tokens use independent secrets.
	AccessTokenSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	RefreshTokenSecret string        `env:"JWT_REFRESH_SECRET,required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Account verification
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL"        envDefault:"300s"`
	ResendCooldown      time.Duration `env:"VERIFICATION_RESEND_COOLDOWN" envDefault:"60s"`
	FrontendBaseURL     string        `env:"FRONTEND_BASE_URL"            envDefault:"http://localhost:5173"`

	// Outbound mail (SMTP). Delivery is disabled when MailServer is empty.
	Mail MailConfig `envPrefix:"MAIL_"`

	// Weather proxy (OpenWeatherMap)
	WeatherBaseURL  string        `env:"OPENWEATHER_API_BASE_URL" envDefault:"https://api.openweathermap.org/data/3.0/onecall"`
	WeatherAPIKey   string        `env:"OPENWEATHER_API_KEY"`
	WeatherCacheTTL time.Duration `env:"WEATHER_CACHE_TTL"        envDefault:"10m"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// TrustedProxies are the reverse-proxy networks (CIDR) allowed to set
	// X-Forwarded-For and X-Real-IP. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`
}

// MailConfig groups the SMTP settings.
type MailConfig struct {
	Server    string `env:"SERVER"`
	Port      int    `env:"PORT"       envDefault:"587"`
	Username  string `env:"USERNAME"`
	Password  string `env:"PASSWORD"`
	From      string `env:"FROM"`
	Workers   int    `env:"WORKERS"    envDefault:"2"`
	QueueSize int    `env:"QUEUE_SIZE" envDefault:"64"`
}

// Enabled reports whether enough SMTP settings are present to deliver mail.
func (m MailConfig) Enabled() bool {
	return m.Server != "" && m.From != "" && m.Username != "" && m.Password != ""
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env file is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current environment into a [Config] and validates it.
func Parse() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	durations := map[string]time.Duration{
		"ACCESS_TOKEN_TTL":             c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL":            c.RefreshTokenTTL,
		"VERIFICATION_CODE_TTL":        c.VerificationCodeTTL,
		"VERIFICATION_RESEND_COOLDOWN": c.ResendCooldown,
		"WEATHER_CACHE_TTL":            c.WeatherCacheTTL,
	}
	for name, value := range durations {
		if value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, value)
		}
	}

	if strings.TrimSpace(c.AccessTokenSecret) == "" || strings.TrimSpace(c.RefreshTokenSecret) == "" {
		return errors.New("config: token secrets must not be blank")
	}

	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.Mail.Workers < 1 || c.Mail.QueueSize < 1 {
		return errors.New("config: MAIL_WORKERS and MAIL_QUEUE_SIZE must be at least 1")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

