package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Identity.SessionTTLHours <= 0 {
		problems = append(problems, "identity.session_ttl_hours must be positive")
	}
	if c.Identity.BcryptCost < 4 || c.Identity.BcryptCost > 31 {
		problems = append(problems, "identity.bcrypt_cost must be between 4 and 31")
	}
	if c.Workflow.ClaimStaleMinutes <= 0 {
		problems = append(problems, "workflow.claim_stale_minutes must be positive")
	}
	if c.Workflow.SweepIntervalSeconds <= 0 {
		problems = append(problems, "workflow.sweep_interval_seconds must be positive")
	}
	if c.Workflow.StorageRetries < 0 {
		problems = append(problems, "workflow.storage_retries must not be negative")
	}
	if c.Marketplace.RequestTimeout <= 0 {
		problems = append(problems, "marketplace.request_timeout must be positive")
	}
	if c.Marketplace.MaxRetries < 0 {
		problems = append(problems, "marketplace.max_retries must not be negative")
	}
	if !c.Marketplace.Sandbox && strings.TrimSpace(c.Marketplace.BaseURL) == "" {
		problems = append(problems, "marketplace.base_url must be set when sandbox is disabled")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
