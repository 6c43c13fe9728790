package config

import (
	"fmt"
	"strings"
)

// ValidationError reports one or more invalid configuration fields.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

var validAuditBackends = map[string]bool{
	"sqlite": true,
	"memory": true,
}

// Validate checks the configuration for consistency. It collects every
// problem rather than stopping at the first.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Server.ListenAddress == "" {
		problems = append(problems, "server.listen_address cannot be empty")
	}
	if cfg.Server.ReadTimeout < 0 {
		problems = append(problems, "server.read_timeout cannot be negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		problems = append(problems, "server.write_timeout cannot be negative")
	}
	if cfg.Server.MaxRequestBytes <= 0 {
		problems = append(problems, "server.max_request_bytes must be positive")
	}

	if !validLogLevels[cfg.Logging.Level] {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level))
	}
	if !validLogFormats[cfg.Logging.Format] {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of json, text", cfg.Logging.Format))
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		problems = append(problems, fmt.Sprintf("metrics.path %q must start with /", cfg.Metrics.Path))
	}

	if cfg.Rulesets.Directory == "" {
		problems = append(problems, "rulesets.directory cannot be empty")
	}
	if cfg.Rulesets.DebounceInterval < 0 {
		problems = append(problems, "rulesets.debounce_interval cannot be negative")
	}

	if cfg.Audit.Enabled {
		if !validAuditBackends[cfg.Audit.Backend] {
			problems = append(problems, fmt.Sprintf("audit.backend %q is not one of sqlite, memory", cfg.Audit.Backend))
		}
		if cfg.Audit.Backend == "sqlite" && cfg.Audit.SQLitePath == "" {
			problems = append(problems, "audit.sqlite_path cannot be empty when the sqlite backend is selected")
		}
		if cfg.Audit.BufferSize <= 0 {
			problems = append(problems, "audit.buffer_size must be positive")
		}
		if cfg.Audit.Retention.Days < 0 {
			problems = append(problems, "audit.retention.days cannot be negative")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
