package config

import "time"

// Config is the root configuration for the arbiter service.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Rulesets configures where rule documents are loaded from.
	Rulesets RulesetsConfig `yaml:"rulesets"`

	// Audit configures execution record persistence.
	Audit AuditConfig `yaml:"audit"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port to bind, e.g. ":8080".
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle deadline.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxRequestBytes caps the accepted request body size.
	MaxRequestBytes int64 `yaml:"max_request_bytes"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig holds Prometheus exposure settings.
type MetricsConfig struct {
	// Enabled toggles the /metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// RulesetsConfig holds rule document loading settings.
type RulesetsConfig struct {
	// Directory is scanned for .yaml, .yml, and .csv rule documents.
	Directory string `yaml:"directory"`

	// Watch reloads documents when their files change.
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload fires.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// AuditConfig holds execution audit settings.
type AuditConfig struct {
	// Enabled toggles execution recording.
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the async write queue capacity.
	BufferSize int `yaml:"buffer_size"`

	// Retention configures periodic pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig holds audit pruning settings.
type RetentionConfig struct {
	// Days is how many days of records to keep.
	Days int `yaml:"days"`

	// Schedule is the cron expression for the prune job.
	Schedule string `yaml:"schedule"`
}
