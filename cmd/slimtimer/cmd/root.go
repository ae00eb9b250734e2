package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/slimtimer/internal/config"
	"github.com/MeKo-Tech/slimtimer/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by one command tree.
type app struct {
	// Configuration file path.
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
}

// flagBinding maps a configuration key to a command-line flag.
type flagBinding struct {
	key  string
	flag string
}

var globalBindings = []flagBinding{
	{"log_level", "log-level"},
	{"verbose", "verbose"},
}

// NewRootCommand builds a fresh slimtimer command tree. Each call returns
// independent flag state so tests can execute it repeatedly.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "slimtimer",
		Short: "Repeatedly time a command and report mean and standard deviation",
		Long: `slimtimer runs a command a fixed number of times, records the wall-clock
duration of every run and reports the mean and population standard deviation.

Results can be printed as text, JSON, YAML or CSV and exported as a
Prometheus textfile.

Examples:
  slimtimer run -n 20 -- sleep 0.1
  slimtimer run --format json --with-tag --tag build -- make
  slimtimer run --shell --verbosity 2 -- 'ls | wc -l'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "slimtimer version %s\n", version.String())
				return nil
			}
			// If no version flag, show help
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/slimtimer, /etc/slimtimer)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig loads configuration with the executing command's flags
// bound on top and installs the structured logger.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.loader = config.NewLoader()
	if err := bindFlags(a.loader.GetViper(), cmd, globalBindings); err != nil {
		return err
	}
	if err := bindFlags(a.loader.GetViper(), cmd, runBindings); err != nil {
		return err
	}

	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
	slog.SetDefault(logger)

	if used := a.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("Loaded configuration", "file", used)
	}
	return nil
}

// bindFlags binds the flags present on cmd to viper keys. Flags the
// command does not define are skipped.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings []flagBinding) error {
	for _, binding := range bindings {
		flag := cmd.Flags().Lookup(binding.flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(binding.key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", binding.flag, err)
		}
	}
	return nil
}

func logLevel(cfg *config.Config) slog.Level {
	// Check verbose flag first
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
