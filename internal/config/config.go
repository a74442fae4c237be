// Package config loads application configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host            string `yaml:"host" env:"SERVER_HOST"`
	Port            int    `yaml:"port" env:"SERVER_PORT"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec" env:"SERVER_READ_TIMEOUT_SEC"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec" env:"SERVER_WRITE_TIMEOUT_SEC"`
	IdleTimeoutSec  int    `yaml:"idle_timeout_sec" env:"SERVER_IDLE_TIMEOUT_SEC"`
	// RateLimitPerSec is the per-caller request budget; RateLimitBurst the
	// bucket size.
	RateLimitPerSec int `yaml:"rate_limit_per_sec" env:"SERVER_RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int `yaml:"rate_limit_burst" env:"SERVER_RATE_LIMIT_BURST"`
}

// DatabaseConfig configures the document store backend.
type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec" env:"DATABASE_CONN_MAX_LIFETIME_SEC"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// AuthConfig configures the local authentication provider.
type AuthConfig struct {
	// JWTSecret signs access tokens issued by the local provider.
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	// TokenTTLMin is the access token lifetime in minutes.
	TokenTTLMin int `yaml:"token_ttl_min" env:"AUTH_TOKEN_TTL_MIN"`
}

// CacheConfig configures the profile cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend   string `yaml:"backend" env:"CACHE_BACKEND"`
	RedisAddr string `yaml:"redis_addr" env:"CACHE_REDIS_ADDR"`
	RedisDB   int    `yaml:"redis_db" env:"CACHE_REDIS_DB"`
	TTLSec    int    `yaml:"ttl_sec" env:"CACHE_TTL_SEC"`
}

// BlobConfig configures avatar blob storage.
type BlobConfig struct {
	Dir string `yaml:"dir" env:"BLOB_DIR"`
}

// AuditConfig configures the request audit trail.
type AuditConfig struct {
	// File, when set, streams audit entries to a JSONL file in addition to
	// the in-memory ring.
	File string `yaml:"file" env:"AUDIT_FILE"`
}

// FlowConfig configures the auth flow coordinator.
type FlowConfig struct {
	// RefreshTimeoutSec bounds a single refresh cycle end to end.
	RefreshTimeoutSec int `yaml:"refresh_timeout_sec" env:"FLOW_REFRESH_TIMEOUT_SEC"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
	Blob     BlobConfig     `yaml:"blob"`
	Audit    AuditConfig    `yaml:"audit"`
	Flow     FlowConfig     `yaml:"flow"`
}

// Default returns the configuration used when no file or env is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
			IdleTimeoutSec:  120,
			RateLimitPerSec: 50,
			RateLimitBurst:  100,
		},
		Database: DatabaseConfig{Driver: "memory"},
		Logging:  LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Auth:     AuthConfig{TokenTTLMin: 60},
		Cache:    CacheConfig{Backend: "memory", TTLSec: 300},
		Blob:     BlobConfig{Dir: "data/avatars"},
		Flow:     FlowConfig{RefreshTimeoutSec: 15},
	}
}

// Load reads configuration from CONFIG_PATH (default config/pokerbase.yaml)
// when the file exists, then applies environment overrides. A missing file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		path = "config/pokerbase.yaml"
	}

	cfg := Default()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
