// Package config loads application configuration from an optional YAML file
// and environment variables. Environment variables take precedence over the
// file. The resulting Config is immutable after Load and passed into each
// component at construction time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for probes and scraping)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL          string        `yaml:"url"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	// SecretKey signs access tokens. Required; no default.
	SecretKey string `yaml:"secret_key"`
	// TokenTTL is the access token lifetime
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Load reads configuration from CRATE_CONFIG (if set) and the environment,
// then validates it
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CRATE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnTimeout:  10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
		},
		LogLevel: "info",
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("CRATE_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("CRATE_PORT", cfg.Server.Port)
	cfg.Server.HealthPort = getEnv("CRATE_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.ReadTimeout = getEnvDuration("CRATE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("CRATE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("CRATE_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("CRATE_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.URL = getEnv("CRATE_DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = getEnvInt("CRATE_DATABASE_MAX_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("CRATE_DATABASE_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnTimeout = getEnvDuration("CRATE_DATABASE_TIMEOUT", cfg.Database.ConnTimeout)

	cfg.Auth.SecretKey = getEnv("CRATE_SECRET_KEY", cfg.Auth.SecretKey)
	cfg.Auth.TokenTTL = getEnvDuration("CRATE_TOKEN_TTL", cfg.Auth.TokenTTL)

	cfg.LogLevel = getEnv("CRATE_LOG_LEVEL", cfg.LogLevel)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("secret key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
