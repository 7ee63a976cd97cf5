package session

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects the session store and cookie policy.
type Config struct {
	Driver       string `toml:"driver"`
	RedisURL     string `toml:"redis_url"`
	CookieName   string `toml:"cookie_name"`
	CookieSecure bool   `toml:"cookie_secure"`
	TTL          string `toml:"ttl"`
	TurnTTL      string `toml:"turn_ttl"`
}

// Env maps session config fields to environment variable names.
type Env struct {
	Driver       string
	RedisURL     string
	CookieSecure string
	TTL          string
	TurnTTL      string
}

// TTLDuration returns the idle lifetime of a record.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// TurnTTLDuration returns the lifetime of a chat turn lock.
func (c *Config) TurnTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TurnTTL)
	return d
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

// Merge overwrites non-zero fields from overlay. CookieSecure always applies.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	c.CookieSecure = overlay.CookieSecure
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.TurnTTL != "" {
		c.TurnTTL = overlay.TurnTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.CookieName == "" {
		c.CookieName = "isoone_session"
	}
	if c.TTL == "" {
		c.TTL = "12h"
	}
	if c.TurnTTL == "" {
		c.TurnTTL = "2m"
	}
}

func (c *Config) loadEnv(env *Env) error {
	if env.Driver != "" {
		if v := os.Getenv(env.Driver); v != "" {
			c.Driver = v
		}
	}
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.CookieSecure != "" {
		if v := os.Getenv(env.CookieSecure); v != "" {
			secure, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.CookieSecure, err)
			}
			c.CookieSecure = secure
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
	if env.TurnTTL != "" {
		if v := os.Getenv(env.TurnTTL); v != "" {
			c.TurnTTL = v
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url required for redis driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, c.Driver)
	}
	if d, err := time.ParseDuration(c.TTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid ttl: %q", c.TTL)
	}
	if d, err := time.ParseDuration(c.TurnTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid turn_ttl: %q", c.TurnTTL)
	}
	return nil
}
