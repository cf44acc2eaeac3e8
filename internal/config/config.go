// Package config holds the driver's runtime settings and the optional
// on-disk overlay file that supplies defaults for them.
package config

import "time"

// Config holds all configuration for a driver run. Values are populated by
// CLI flags first, then by an optional overlay file (see LoadFile), in that
// priority order: CLI flags win over the file, the file wins over these
// defaults.
type Config struct {
	// Window is the episode window duration.
	Window time.Duration `yaml:"window"`

	// KeyColumns are the default entity columns used to group events within
	// a window. Intersected at runtime with the columns actually present.
	KeyColumns []string `yaml:"key_columns"`

	// OutputDir is the directory incident JSON files are written to.
	OutputDir string `yaml:"output_dir"`

	// LogLevelFlags are the per-package log level configurations.
	// Format: ["debug"], ["default=info", "topology=debug"], or ["info"].
	LogLevelFlags []string `yaml:"log_levels"`

	// MetricsAddr, when non-empty, serves Prometheus metrics at this address.
	MetricsAddr string `yaml:"metrics_addr"`

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled.
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingEndpoint is the OTLP gRPC endpoint for trace export.
	TracingEndpoint string `yaml:"tracing_endpoint"`

	// TracingTLSCAPath is the path to the CA certificate for TLS verification.
	TracingTLSCAPath string `yaml:"tracing_tls_ca_path"`

	// TracingTLSInsecure allows insecure TLS connections (skip verification).
	TracingTLSInsecure bool `yaml:"tracing_tls_insecure"`
}

// Default returns the built-in defaults, used when neither a flag nor an
// overlay file supplies a value.
func Default() *Config {
	return &Config{
		Window:        10 * time.Minute,
		KeyColumns:    []string{"namespace", "pod", "node"},
		OutputDir:     ".",
		LogLevelFlags: []string{"info"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return NewConfigError("window must be positive")
	}
	if c.OutputDir == "" {
		return NewConfigError("output_dir must not be empty")
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("tracing_endpoint must be set when tracing is enabled")
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

func (e *ConfigError) Error() string {
	return e.message
}
