package openapi

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds OpenAPI metadata for spec generation. Disabled withholds the
// document and its reference UI, for deployments that should not advertise
// the API surface.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Disabled    bool   `toml:"disabled"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	Title       string
	Description string
	Disabled    string
}

// Finalize applies defaults and environment variable overrides. A Disabled
// override that is not a boolean is an error.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env == nil {
		return nil
	}
	return c.loadEnv(env)
}

// Merge overwrites non-zero fields from overlay. An overlay can disable the
// document but not re-enable it.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Disabled {
		c.Disabled = true
	}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "Shroud API"
	}
	if c.Description == "" {
		c.Description = "PII detection and irreversible redaction for paginated documents."
	}
}

func (c *Config) loadEnv(env *ConfigEnv) error {
	if v := lookup(env.Title); v != "" {
		c.Title = v
	}
	if v := lookup(env.Description); v != "" {
		c.Description = v
	}
	if v := lookup(env.Disabled); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env.Disabled, err)
		}
		c.Disabled = disabled
	}
	return nil
}

func lookup(key string) string {
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}
