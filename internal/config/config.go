package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Compliance ComplianceConfig
	Auth       AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/casa-compliance.db"`
}

// ComplianceConfig holds evaluation behavior configuration.
type ComplianceConfig struct {
	// RuleSeedFile is a YAML file of rule definitions loaded at startup.
	// Empty disables seeding.
	RuleSeedFile string `env:"RULE_SEED_FILE"`
	// RecheckInterval is how often the background loop re-evaluates
	// records with overdue checks. Zero disables the loop.
	RecheckInterval time.Duration `env:"RECHECK_INTERVAL" envDefault:"1h"`
	// MetricsEnabled controls the /metrics endpoint.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	// BootstrapAPIKey is accepted only while no API keys exist in
	// storage, to create the first real key.
	BootstrapAPIKey string `env:"BOOTSTRAP_API_KEY"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Compliance); err != nil {
		return nil, fmt.Errorf("parsing compliance config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Compliance.RecheckInterval < 0 {
		return fmt.Errorf("RECHECK_INTERVAL must not be negative")
	}
	return nil
}
