package backend

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config locates the document and chat services.
type Config struct {
	DocumentsURL string `toml:"documents_url"`
	ChatURL      string `toml:"chat_url"`
	FileOrigin   string `toml:"file_origin"`
	Timeout      string `toml:"timeout"`
}

// Env maps backend config fields to environment variable names.
type Env struct {
	DocumentsURL string
	ChatURL      string
	FileOrigin   string
	Timeout      string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DocumentsURL != "" {
		c.DocumentsURL = overlay.DocumentsURL
	}
	if overlay.ChatURL != "" {
		c.ChatURL = overlay.ChatURL
	}
	if overlay.FileOrigin != "" {
		c.FileOrigin = overlay.FileOrigin
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.DocumentsURL == "" {
		c.DocumentsURL = "http://127.0.0.1:8000"
	}
	if c.ChatURL == "" {
		c.ChatURL = "http://127.0.0.1:8001"
	}
	if c.FileOrigin == "" {
		c.FileOrigin = c.DocumentsURL
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	c.DocumentsURL = strings.TrimSuffix(c.DocumentsURL, "/")
	c.ChatURL = strings.TrimSuffix(c.ChatURL, "/")
	c.FileOrigin = strings.TrimSuffix(c.FileOrigin, "/")
}

func (c *Config) loadEnv(env *Env) {
	if env.DocumentsURL != "" {
		if v := os.Getenv(env.DocumentsURL); v != "" {
			c.DocumentsURL = v
		}
	}
	if env.ChatURL != "" {
		if v := os.Getenv(env.ChatURL); v != "" {
			c.ChatURL = v
		}
	}
	if env.FileOrigin != "" {
		if v := os.Getenv(env.FileOrigin); v != "" {
			c.FileOrigin = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"documents_url": c.DocumentsURL,
		"chat_url":      c.ChatURL,
		"file_origin":   c.FileOrigin,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}
