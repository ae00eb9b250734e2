package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "slimtimer"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SLIMTIMER"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader with its own viper instance.
// Flags must be bound to GetViper() before Load is called.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from the default search paths, environment
// variables and defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()

	return l.read(true)
}

// LoadWithFile loads configuration from a specific file path. An empty
// path falls back to Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)

	return l.read(false)
}

func (l *Loader) read(optional bool) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// It's okay if the config file doesn't exist, we'll use defaults and env vars
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !optional || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()

	// Replace dots and dashes with underscores in env var names
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("run.runs", defaults.Run.Runs)
	l.v.SetDefault("run.verbosity", defaults.Run.Verbosity)
	l.v.SetDefault("run.tag", defaults.Run.Tag)
	l.v.SetDefault("run.shell", defaults.Run.Shell)
	l.v.SetDefault("run.timeout", defaults.Run.Timeout)
	l.v.SetDefault("run.dir", defaults.Run.Dir)
	l.v.SetDefault("run.show_output", defaults.Run.ShowOutput)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.with_tag", defaults.Output.WithTag)

	l.v.SetDefault("metrics.file", defaults.Metrics.File)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// GenerateDefaultConfigFile writes the default configuration as YAML.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()

	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	return loader.v.SafeWriteConfigAs(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	paths = append(paths, "/etc/"+ConfigFileName)

	return paths
}
