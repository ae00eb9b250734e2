package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/slimtimer/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage slimtimer configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration as YAML",
		Long: `Write the default configuration to a YAML file. The file defaults to
slimtimer.yaml in the current directory and is never overwritten.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			if err := config.GenerateDefaultConfigFile(filename); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "Print the resolved configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			return enc.Close()
		},
	})

	return configCmd
}
