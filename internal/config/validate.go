package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if err := ValidateBaseURL(c.Backend.BaseURL); err != nil {
		return err
	}
	if c.Backend.RequestTimeoutSeconds < 0 || c.Backend.RequestTimeoutSeconds > maxRequestTimeoutSeconds {
		return fmt.Errorf("backend.request_timeout_seconds must be between 0 and %d", maxRequestTimeoutSeconds)
	}
	if c.Backend.CatalogTimeoutSeconds <= 0 || c.Backend.CatalogTimeoutSeconds > maxCatalogTimeoutSeconds {
		return fmt.Errorf("backend.catalog_timeout_seconds must be between 1 and %d", maxCatalogTimeoutSeconds)
	}
	return nil
}

// ValidateBaseURL reports whether value is an absolute http(s) URL.
func ValidateBaseURL(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("backend.base_url must be set (or set VIDSUB_BACKEND_URL)")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("backend.base_url must include a host")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind must be host:port, got %q", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.EventBuffer <= 0 {
		return errors.New("workflow.event_buffer must be positive")
	}
	if c.Workflow.ProgressLogBucket < minProgressLogBucket || c.Workflow.ProgressLogBucket > maxProgressLogBucket {
		return fmt.Errorf("workflow.progress_log_bucket must be between %d and %d", minProgressLogBucket, maxProgressLogBucket)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
