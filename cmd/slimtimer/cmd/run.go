package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/slimtimer/internal/command"
	"github.com/MeKo-Tech/slimtimer/internal/config"
	"github.com/MeKo-Tech/slimtimer/internal/metrics"
	"github.com/MeKo-Tech/slimtimer/internal/report"
	"github.com/MeKo-Tech/slimtimer/internal/timer"
	"github.com/spf13/cobra"
)

var runBindings = []flagBinding{
	{"run.runs", "runs"},
	{"run.tag", "tag"},
	{"run.verbosity", "verbosity"},
	{"run.shell", "shell"},
	{"run.timeout", "timeout"},
	{"run.dir", "dir"},
	{"run.show_output", "show-output"},
	{"output.format", "format"},
	{"output.file", "output"},
	{"output.with_tag", "with-tag"},
	{"metrics.file", "metrics-file"},
}

func newRunCommand(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Time repeated runs of a command",
		Long: `Run a command the configured number of times and report the duration of
every run together with the mean and population standard deviation.

The command's own output is discarded unless --show-output is given, in which
case it is forwarded to stderr. Reports are written to stdout or --output.

Examples:
  slimtimer run -- sleep 0.05
  slimtimer run -n 5 --format json -- ./bench.sh
  slimtimer run --shell --timeout 2s -- 'curl -s localhost:8080 > /dev/null'`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return measure(ctx, cmd, a.cfg, args)
		},
	}

	addRunFlags(runCmd)
	return runCmd
}

// addRunFlags adds the measurement and output flags.
func addRunFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()

	cmd.Flags().IntP("runs", "n", defaults.Run.Runs, "number of times to run the command")
	cmd.Flags().String("tag", "", "label for the result (default is the program name)")
	cmd.Flags().Int("verbosity", defaults.Run.Verbosity, "progress output: 0 silent, 1 run labels, 2 labels and times")
	cmd.Flags().Bool("shell", false, "run the command through sh -c")
	cmd.Flags().Duration("timeout", 0, "kill a single run after this duration (0 disables)")
	cmd.Flags().String("dir", "", "working directory for the command")
	cmd.Flags().Bool("show-output", false, "forward the command's output to stderr")

	cmd.Flags().StringP("format", "f", defaults.Output.Format, "report format: text, json, yaml, csv")
	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().Bool("with-tag", false, "prefix exported keys with the tag")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
}

// measure times the command described by args and writes the report.
func measure(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) error {
	stderr := cmd.ErrOrStderr()

	opts := []command.Option{
		command.WithShell(cfg.Run.Shell),
		command.WithDir(cfg.Run.Dir),
		command.WithTimeout(cfg.Run.Timeout),
	}
	if cfg.Run.ShowOutput {
		opts = append(opts, command.WithStdout(stderr), command.WithStderr(stderr))
	}
	target, err := command.New(args, opts...)
	if err != nil {
		return err
	}

	tag := cfg.Run.Tag
	if tag == "" {
		tag = target.Name()
	}

	logger := slog.Default().With("tag", tag)
	recorder := metrics.NewRecorder()
	progress := timer.NewMultiProgress(
		timer.NewConsoleProgress(stderr, cfg.Run.Verbosity),
		timer.NewLogProgress(logger, slog.LevelDebug),
	)

	tm, err := timer.New(target.Run, cfg.Run.Runs,
		timer.WithTag(tag),
		timer.WithVerbosity(cfg.Run.Verbosity),
		timer.WithProgress(progress),
		timer.WithObserver(recorder),
		timer.WithLogger(logger),
		timer.WithArguments([]any{ctx}, nil),
	)
	if err != nil {
		return err
	}

	logger.Info("Timing command", "command", target.String(), "runs", tm.RunCount())

	measureErr := tm.MeasureContext(ctx)
	if cfg.Metrics.File != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.File); err != nil {
			logger.Error("Failed to write metrics", "file", cfg.Metrics.File, "error", err)
			if measureErr == nil {
				return err
			}
		}
	}
	if measureErr != nil {
		return fmt.Errorf("measurement failed: %w", measureErr)
	}

	res, err := tm.Result()
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), cfg.Output, res)
}

// writeReport writes res to the configured file, or to out when none is set.
func writeReport(out io.Writer, cfg config.OutputConfig, res timer.Result) error {
	if cfg.File == "" {
		return report.Write(out, res, cfg.Format, cfg.WithTag)
	}

	f, err := os.Create(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.Write(f, res, cfg.Format, cfg.WithTag); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	slog.Info("Report written", "file", cfg.File, "format", cfg.Format)
	return nil
}
