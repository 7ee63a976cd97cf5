// Package config loads the service configuration from config.toml, an optional
// environment overlay, and ISOONE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/chat"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/logging"
	"github.com/JaimeStill/isoone/pkg/middleware"
	"github.com/JaimeStill/isoone/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvISOOneEnv             = "ISOONE_ENV"
	EnvISOOneShutdownTimeout = "ISOONE_SHUTDOWN_TIMEOUT"
	EnvISOOneVersion         = "ISOONE_VERSION"
)

var backendEnv = &backend.Env{
	DocumentsURL: "ISOONE_BACKEND_DOCUMENTS_URL",
	ChatURL:      "ISOONE_BACKEND_CHAT_URL",
	FileOrigin:   "ISOONE_BACKEND_FILE_ORIGIN",
	Timeout:      "ISOONE_BACKEND_TIMEOUT",
}

var sessionEnv = &session.Env{
	Driver:       "ISOONE_SESSION_DRIVER",
	RedisURL:     "ISOONE_SESSION_REDIS_URL",
	CookieSecure: "ISOONE_SESSION_COOKIE_SECURE",
	TTL:          "ISOONE_SESSION_TTL",
	TurnTTL:      "ISOONE_SESSION_TURN_TTL",
}

var chatEnv = &chat.Env{
	TopK:            "ISOONE_CHAT_TOP_K",
	SharedSessionID: "ISOONE_CHAT_SHARED_SESSION_ID",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ISOONE_CORS_ENABLED",
	Origins:          "ISOONE_CORS_ORIGINS",
	AllowedMethods:   "ISOONE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ISOONE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ISOONE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ISOONE_CORS_MAX_AGE",
}

var loggingEnv = &logging.Env{
	Level:  "ISOONE_LOG_LEVEL",
	Format: "ISOONE_LOG_FORMAT",
	File:   "ISOONE_LOG_FILE",
}

var tracingEnv = &tracing.Env{
	Enabled:  "ISOONE_TRACING_ENABLED",
	Endpoint: "ISOONE_TRACING_ENDPOINT",
}

// Config is the root configuration for the ISOOne service.
type Config struct {
	Server          ServerConfig          `toml:"server"`
	App             AppConfig             `toml:"app"`
	Auth            AuthConfig            `toml:"auth"`
	Catalog         CatalogConfig         `toml:"catalog"`
	Upload          UploadConfig          `toml:"upload"`
	Analysis        AnalysisConfig        `toml:"analysis"`
	Chat            chat.Config           `toml:"chat"`
	Backend         backend.Config        `toml:"backend"`
	Session         session.Config        `toml:"session"`
	CORS            middleware.CORSConfig `toml:"cors"`
	Logging         logging.Config        `toml:"logging"`
	Tracing         tracing.Config        `toml:"tracing"`
	ShutdownTimeout string                `toml:"shutdown_timeout"`
	Version         string                `toml:"version"`
}

// Env returns the ISOONE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvISOOneEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present), the base config (if present), applies any
// environment overlay, and finalizes all values. Without config.toml, defaults
// and environment variables provide all configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.App.Merge(&overlay.App)
	c.Auth.Merge(&overlay.Auth)
	c.Catalog.Merge(&overlay.Catalog)
	c.Upload.Merge(&overlay.Upload)
	c.Analysis.Merge(&overlay.Analysis)
	c.Chat.Merge(&overlay.Chat)
	c.Backend.Merge(&overlay.Backend)
	c.Session.Merge(&overlay.Session)
	c.CORS.Merge(&overlay.CORS)
	c.Logging.Merge(&overlay.Logging)
	c.Tracing.Merge(&overlay.Tracing)
}

// Finalize applies defaults, environment overrides, and validation to every
// section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"app", c.App.Finalize},
		{"auth", c.Auth.Finalize},
		{"catalog", c.Catalog.Finalize},
		{"upload", c.Upload.Finalize},
		{"analysis", c.Analysis.Finalize},
		{"chat", func() error { return c.Chat.Finalize(chatEnv) }},
		{"backend", func() error { return c.Backend.Finalize(backendEnv) }},
		{"session", func() error { return c.Session.Finalize(sessionEnv) }},
		{"cors", func() error { return c.CORS.Finalize(corsEnv) }},
		{"logging", func() error { return c.Logging.Finalize(loggingEnv) }},
		{"tracing", func() error { return c.Tracing.Finalize(tracingEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	// A chat turn lock must outlive the slowest collaborator call it guards.
	if c.Session.TurnTTLDuration() <= c.Backend.TimeoutDuration() {
		return fmt.Errorf("session: turn_ttl %s must exceed backend timeout %s", c.Session.TurnTTL, c.Backend.Timeout)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvISOOneShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvISOOneVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvISOOneEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
