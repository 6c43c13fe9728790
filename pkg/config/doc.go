// Package config defines the arbiter configuration model and its loading
// pipeline.
//
// Configuration is read from a YAML file, padded with defaults, overridden
// by ARBITER_* environment variables, and validated. Environment variables
// follow the naming convention ARBITER_SECTION_FIELD, for example
// ARBITER_SERVER_LISTEN_ADDRESS or ARBITER_AUDIT_ENABLED, and always take
// precedence over file values.
//
// A zero-value path is accepted: Load("") yields the pure defaults, which
// describe a server on :8080 with metrics enabled and auditing disabled.
package config
