package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// ARBITER_* environment overrides, and validates the result. An empty
// path skips the file and yields defaults plus overrides.
//
// The loading sequence is:
//  1. Start from defaults
//  2. Unmarshal YAML over them
//  3. Apply environment variable overrides
//  4. Validate the final configuration
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		// Re-apply in case the file blanked a string field.
		ApplyDefaults(cfg)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies ARBITER_SECTION_FIELD environment variables.
func applyEnvOverrides(cfg *Config) {
	// Server
	if val := os.Getenv("ARBITER_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("ARBITER_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("ARBITER_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("ARBITER_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("ARBITER_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("ARBITER_SERVER_MAX_REQUEST_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxRequestBytes = i
		}
	}

	// Logging
	if val := os.Getenv("ARBITER_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("ARBITER_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Metrics
	if val := os.Getenv("ARBITER_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("ARBITER_METRICS_PATH"); val != "" {
		cfg.Metrics.Path = val
	}
	if val := os.Getenv("ARBITER_METRICS_NAMESPACE"); val != "" {
		cfg.Metrics.Namespace = val
	}

	// Rulesets
	if val := os.Getenv("ARBITER_RULESETS_DIRECTORY"); val != "" {
		cfg.Rulesets.Directory = val
	}
	if val := os.Getenv("ARBITER_RULESETS_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rulesets.Watch = b
		}
	}
	if val := os.Getenv("ARBITER_RULESETS_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rulesets.DebounceInterval = d
		}
	}

	// Audit
	if val := os.Getenv("ARBITER_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("ARBITER_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("ARBITER_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	if val := os.Getenv("ARBITER_AUDIT_BUFFER_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.BufferSize = i
		}
	}
	if val := os.Getenv("ARBITER_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}
	if val := os.Getenv("ARBITER_AUDIT_RETENTION_SCHEDULE"); val != "" {
		cfg.Audit.Retention.Schedule = val
	}
}
