//nolint:lll
package config

import "time"

// Config represents the complete configuration for the slimtimer CLI.
// It supports loading from configuration files, environment variables and
// command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Measurement configuration
	Run RunConfig `mapstructure:"run" yaml:"run" json:"run"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Metrics export
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// RunConfig contains measurement settings.
type RunConfig struct {
	Runs       int           `mapstructure:"runs" yaml:"runs" json:"runs"`
	Verbosity  int           `mapstructure:"verbosity" yaml:"verbosity" json:"verbosity"`
	Tag        string        `mapstructure:"tag" yaml:"tag" json:"tag"`
	Shell      bool          `mapstructure:"shell" yaml:"shell" json:"shell"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Dir        string        `mapstructure:"dir" yaml:"dir" json:"dir"`
	ShowOutput bool          `mapstructure:"show_output" yaml:"show_output" json:"show_output"`
}

// OutputConfig contains report settings.
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format" json:"format"`
	File    string `mapstructure:"file" yaml:"file" json:"file"`
	WithTag bool   `mapstructure:"with_tag" yaml:"with_tag" json:"with_tag"`
}

// MetricsConfig contains Prometheus textfile settings.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}
