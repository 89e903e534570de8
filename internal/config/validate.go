package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	providers := []struct {
		path string
		cfg  ProviderConfig
	}{
		{"providers.knowledge", cfg.Providers.Knowledge},
		{"providers.document", cfg.Providers.Document},
		{"providers.database", cfg.Providers.Database},
		{"providers.visualization", cfg.Providers.Visualization},
	}
	for _, p := range providers {
		if p.cfg.BaseURL == "" {
			issues = append(issues, ValidationIssue{
				Path:    p.path + ".baseUrl",
				Message: "base URL is required",
			})
			continue
		}
		if u, err := url.Parse(p.cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    p.path + ".baseUrl",
				Message: fmt.Sprintf("must be an absolute URL, got %q", p.cfg.BaseURL),
			})
		}
	}

	if cfg.Retry.MaxAttempts < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.maxAttempts",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Retry.MaxAttempts),
		})
	}
	if cfg.Retry.BaseDelayMs < 0 || cfg.Retry.MaxDelayMs < 0 || cfg.Retry.JitterMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "retry",
			Message: "delays must not be negative",
		})
	}

	validStores := []string{"memory", "sqlite"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}
	if cfg.Session.TTLMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.ttlMinutes",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.TTLMinutes),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
