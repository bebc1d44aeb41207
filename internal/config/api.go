package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/shroud/pkg/formatting"
	"github.com/JaimeStill/shroud/pkg/middleware"
	"github.com/JaimeStill/shroud/pkg/openapi"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SHROUD_CORS_ENABLED",
	Origins:          "SHROUD_CORS_ORIGINS",
	AllowedMethods:   "SHROUD_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SHROUD_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SHROUD_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SHROUD_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "SHROUD_OPENAPI_TITLE",
	Description: "SHROUD_OPENAPI_DESCRIPTION",
	Disabled:    "SHROUD_OPENAPI_DISABLED",
}

// APIConfig holds API routing, upload limits, CORS, and OpenAPI metadata.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("SHROUD_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("SHROUD_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
