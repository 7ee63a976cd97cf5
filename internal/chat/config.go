package chat

import (
	"fmt"
	"os"
	"strconv"
)

// Config shapes the requests sent to the chat service.
type Config struct {
	TopK            int    `toml:"top_k"`
	SharedSessionID string `toml:"shared_session_id"`
}

// Env maps chat config fields to environment variable names.
type Env struct {
	TopK            string
	SharedSessionID string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.TopK != 0 {
		c.TopK = overlay.TopK
	}
	if overlay.SharedSessionID != "" {
		c.SharedSessionID = overlay.SharedSessionID
	}
}

func (c *Config) loadDefaults() {
	if c.TopK == 0 {
		c.TopK = 8
	}
}

func (c *Config) loadEnv(env *Env) error {
	if env.TopK != "" {
		if v := os.Getenv(env.TopK); v != "" {
			k, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.TopK, err)
			}
			c.TopK = k
		}
	}
	if env.SharedSessionID != "" {
		if v := os.Getenv(env.SharedSessionID); v != "" {
			c.SharedSessionID = v
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive: %d", c.TopK)
	}
	return nil
}
