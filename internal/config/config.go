package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/erfasst-mcp/internal/graphql"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL    = "https://server.123erfasst.de/api/graphql"
	placeholderToken = "YOUR_123ERFASST_API_TOKEN_HERE"
)

var (
	// ErrMissingToken indicates no API token was configured.
	ErrMissingToken = errors.New("ERFASST_API_TOKEN is required")
	// ErrPlaceholderToken indicates the setup placeholder was never replaced.
	ErrPlaceholderToken = errors.New("ERFASST_API_TOKEN still holds the setup placeholder")
)

// Config defines server configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Paging    PagingConfig    `yaml:"paging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type APIConfig struct {
	URL            string        `yaml:"url"`
	Username       string        `yaml:"username"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Token guards the HTTP transport. Empty disables bearer auth.
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type PagingConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	MaxPages     int `yaml:"max_pages"`
}

type TracingConfig struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used before any file or env override.
func Default() Config {
	return Config{
		API: APIConfig{
			URL:            DefaultAPIURL,
			Username:       "api",
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			InitialBackoff: time.Second,
		},
		Transport: TransportConfig{Mode: "stdio"},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{Level: "info"},
		Paging: PagingConfig{
			DefaultLimit: 50,
			MaxLimit:     graphql.MaxLimit,
			MaxPages:     20,
		},
		Tracing: TracingConfig{Exporter: "none"},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("ERFASST_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	setString(getenv, "ERFASST_API_URL", &cfg.API.URL)
	setString(getenv, "ERFASST_API_USERNAME", &cfg.API.Username)
	setString(getenv, "ERFASST_API_TOKEN", &cfg.API.Token)
	setString(getenv, "ERFASST_TRANSPORT", &cfg.Transport.Mode)
	setString(getenv, "ERFASST_SERVER_HOST", &cfg.Server.Host)
	setString(getenv, "ERFASST_SERVER_TOKEN", &cfg.Server.Token)
	setString(getenv, "ERFASST_LOG_LEVEL", &cfg.Log.Level)
	setString(getenv, "ERFASST_LOG_PATH", &cfg.Log.Path)
	setString(getenv, "ERFASST_OTEL_EXPORTER", &cfg.Tracing.Exporter)
	setString(getenv, "ERFASST_OTEL_ENDPOINT", &cfg.Tracing.Endpoint)

	ints := []struct {
		key string
		dst *int
	}{
		{"ERFASST_SERVER_PORT", &cfg.Server.Port},
		{"ERFASST_MAX_RETRIES", &cfg.API.MaxRetries},
		{"ERFASST_DEFAULT_LIMIT", &cfg.Paging.DefaultLimit},
		{"ERFASST_MAX_LIMIT", &cfg.Paging.MaxLimit},
		{"ERFASST_MAX_PAGES", &cfg.Paging.MaxPages},
	}
	for _, v := range ints {
		raw := getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := getenv("ERFASST_TIMEOUT"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ERFASST_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}

	cfg.Transport.Mode = strings.ToLower(strings.TrimSpace(cfg.Transport.Mode))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	return cfg, nil
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	token := strings.TrimSpace(c.API.Token)
	switch {
	case token == "":
		return ErrMissingToken
	case token == placeholderToken:
		return ErrPlaceholderToken
	}
	if c.API.URL == "" {
		return errors.New("api url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.API.MaxRetries)
	}
	if c.Paging.MaxLimit <= 0 || c.Paging.MaxLimit > graphql.MaxLimit {
		return fmt.Errorf("max limit must be between 1 and %d, got %d", graphql.MaxLimit, c.Paging.MaxLimit)
	}
	if c.Paging.DefaultLimit <= 0 || c.Paging.DefaultLimit > c.Paging.MaxLimit {
		return fmt.Errorf("default limit must be between 1 and %d, got %d", c.Paging.MaxLimit, c.Paging.DefaultLimit)
	}
	if c.Paging.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive, got %d", c.Paging.MaxPages)
	}
	switch c.Transport.Mode {
	case "stdio":
	case "http":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("invalid server port %d", c.Server.Port)
		}
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", c.Transport.Mode)
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
