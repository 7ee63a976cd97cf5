package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/isoone/pkg/formatting"
	"github.com/JaimeStill/isoone/pkg/pagination"
)

const (
	EnvAppBasePath       = "ISOONE_APP_BASE_PATH"
	EnvAuthRedirectDelay = "ISOONE_AUTH_REDIRECT_DELAY"
	EnvUploadMaxSize     = "ISOONE_UPLOAD_MAX_SIZE"
	EnvUploadVerifyPDF   = "ISOONE_UPLOAD_VERIFY_PDF"
	EnvAnalysisDelay     = "ISOONE_ANALYSIS_DELAY"
)

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ISOONE_CATALOG_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ISOONE_CATALOG_MAX_PAGE_SIZE",
}

// AppConfig locates the server-rendered view module.
type AppConfig struct {
	BasePath string `toml:"base_path"`
}

// Finalize applies defaults, environment overrides, and validation.
func (c *AppConfig) Finalize() error {
	if v := os.Getenv(EnvAppBasePath); v != "" {
		c.BasePath = v
	}
	if c.BasePath == "" {
		c.BasePath = "/app"
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.BasePath == "/" {
		return fmt.Errorf("base_path cannot be the root")
	}
	if strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single segment: %q", c.BasePath)
	}
	switch c.BasePath {
	case "/api", "/auth", "/chat", "/healthz", "/readyz":
		return fmt.Errorf("base_path %q is reserved", c.BasePath)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *AppConfig) Merge(overlay *AppConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
}

// AuthConfig shapes the login view.
type AuthConfig struct {
	RedirectDelay string `toml:"redirect_delay"`
}

// RedirectDelayDuration is how long the success notice stays before navigating.
func (c *AuthConfig) RedirectDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RedirectDelay)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *AuthConfig) Finalize() error {
	if v := os.Getenv(EnvAuthRedirectDelay); v != "" {
		c.RedirectDelay = v
	}
	if c.RedirectDelay == "" {
		c.RedirectDelay = "800ms"
	}
	return validDurations(map[string]string{"redirect_delay": c.RedirectDelay})
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.RedirectDelay != "" {
		c.RedirectDelay = overlay.RedirectDelay
	}
}

// CatalogConfig shapes the catalog view.
type CatalogConfig struct {
	Pagination pagination.Config `toml:"pagination"`
}

// Finalize finalizes the nested pagination config.
func (c *CatalogConfig) Finalize() error {
	return c.Pagination.Finalize(paginationEnv)
}

// Merge overwrites non-zero fields from overlay.
func (c *CatalogConfig) Merge(overlay *CatalogConfig) {
	c.Pagination.Merge(&overlay.Pagination)
}

// UploadConfig bounds and checks document uploads.
type UploadConfig struct {
	MaxSize   string `toml:"max_size"`
	VerifyPDF bool   `toml:"verify_pdf"`
}

// MaxSizeBytes returns MaxSize in bytes.
func (c *UploadConfig) MaxSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxSize)
	if err != nil {
		return 50 << 20
	}
	return size
}

// Finalize applies defaults, environment overrides, and validation.
func (c *UploadConfig) Finalize() error {
	if v := os.Getenv(EnvUploadMaxSize); v != "" {
		c.MaxSize = v
	}
	if v := os.Getenv(EnvUploadVerifyPDF); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUploadVerifyPDF, err)
		}
		c.VerifyPDF = verify
	}
	if c.MaxSize == "" {
		c.MaxSize = "50MB"
	}
	if size, err := formatting.ParseBytes(c.MaxSize); err != nil || size <= 0 {
		return fmt.Errorf("invalid max_size: %q", c.MaxSize)
	}
	return nil
}

// Merge overwrites fields from overlay. VerifyPDF always applies.
func (c *UploadConfig) Merge(overlay *UploadConfig) {
	if overlay.MaxSize != "" {
		c.MaxSize = overlay.MaxSize
	}
	c.VerifyPDF = overlay.VerifyPDF
}

// AnalysisConfig tunes the heuristic analyzer.
type AnalysisConfig struct {
	Delay string `toml:"delay"`
}

// DelayDuration returns Delay as a time.Duration.
func (c *AnalysisConfig) DelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Delay)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	if v := os.Getenv(EnvAnalysisDelay); v != "" {
		c.Delay = v
	}
	if c.Delay == "" {
		c.Delay = "1.5s"
	}
	return validDurations(map[string]string{"delay": c.Delay})
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.Delay != "" {
		c.Delay = overlay.Delay
	}
}
