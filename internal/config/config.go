package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/slimtimer/internal/report"
	"github.com/MeKo-Tech/slimtimer/internal/timer"
)

// Default values.
const (
	DefaultRuns      = 10
	DefaultLogLevel  = "info"
	DefaultFormat    = report.FormatText
	DefaultVerbosity = timer.VerbositySilent
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Verbose:  false,
		Run: RunConfig{
			Runs:      DefaultRuns,
			Verbosity: DefaultVerbosity,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Run.Runs < 1 {
		return fmt.Errorf("invalid run.runs: %d (must be positive)", c.Run.Runs)
	}
	if c.Run.Verbosity < timer.VerbositySilent || c.Run.Verbosity > timer.VerbosityTimes {
		return fmt.Errorf("invalid run.verbosity: %d (must be 0, 1 or 2)", c.Run.Verbosity)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("invalid run.timeout: %v (must not be negative)", c.Run.Timeout)
	}

	if c.Output.Format != "" && !report.IsFormat(c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(report.Formats(), ", "))
	}

	return nil
}
