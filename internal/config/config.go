package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/internal/bunstore"
	"github.com/goliatone/go-component-search/search"
)

// Config is the process configuration for catalogd.
type Config struct {
	Server ServerConfig    `yaml:"server"`
	Store  bunstore.Config `yaml:"store"`
	Cache  cache.Config    `yaml:"cache"`
	Search SearchConfig    `yaml:"search"`
	Log    LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsPath     string        `yaml:"metrics_path"`
}

// SearchConfig bounds page sizes.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MetricsPath:     "/metrics",
		},
		Store: bunstore.DefaultConfig(),
		Cache: cache.DefaultConfig(),
		Search: SearchConfig{
			DefaultLimit: search.DefaultLimit,
			MaxLimit:     search.MaxLimit,
		},
		Log: LogConfig{Mode: "development"},
	}
}

// Load reads path over the defaults when path is set, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("CATALOG_ADDR", c.Server.Addr)
	c.Store.DSN = getEnv("CATALOG_DB_DSN", c.Store.DSN)
	c.Cache.Backend = cache.Backend(getEnv("CACHE_BACKEND", string(c.Cache.Backend)))
	c.Cache.Redis.Addr = getEnv("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = getEnvInt("REDIS_DB", c.Cache.Redis.DB)
	c.Cache.Coalesce = getEnvBool("CACHE_COALESCE", c.Cache.Coalesce)
	c.Log.Mode = getEnv("LOG_MODE", c.Log.Mode)
}

// Validate checks every section.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
		validation.Field(&c.Server.ShutdownTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Server.MetricsPath, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return errors.New("store: dsn is required")
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	err = validation.ValidateStruct(&c.Search,
		validation.Field(&c.Search.DefaultLimit, validation.Required, validation.Min(1), validation.Max(c.Search.MaxLimit)),
		validation.Field(&c.Search.MaxLimit, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	err = validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Mode, validation.In("development", "dev", "production", "prod")),
	)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
