package timer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Progress receives notifications while a Timer measures. Implementations
// only observe; they cannot influence the measurement.
type Progress interface {
	// OnStart is called once before the first invocation.
	OnStart(total int)

	// OnRun is called before invocation run (0-based).
	OnRun(run, total int)

	// OnSample is called after invocation run succeeded.
	OnSample(run, total int, seconds float64)

	// OnComplete is called after all invocations succeeded.
	OnComplete(mean, stdev float64)

	// OnError is called when invocation run aborted the batch.
	OnError(run int, err error)
}

// NoOpProgress implements Progress but does nothing.
type NoOpProgress struct{}

func (NoOpProgress) OnStart(int)                 {}
func (NoOpProgress) OnRun(int, int)              {}
func (NoOpProgress) OnSample(int, int, float64)  {}
func (NoOpProgress) OnComplete(float64, float64) {}
func (NoOpProgress) OnError(int, error)          {}

// ConsoleProgress prints a label per run and, at verbosity 2, the elapsed
// time after each run.
type ConsoleProgress struct {
	writer    io.Writer
	verbosity int
}

// NewConsoleProgress creates a console reporter. A nil writer means os.Stdout.
func NewConsoleProgress(writer io.Writer, verbosity int) *ConsoleProgress {
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleProgress{writer: writer, verbosity: verbosity}
}

func (c *ConsoleProgress) OnStart(int) {}

func (c *ConsoleProgress) OnRun(run, total int) {
	switch {
	case c.verbosity >= 2:
		_, _ = fmt.Fprintf(c.writer, "Run %d / %d ...", run, total)
	case c.verbosity == 1:
		_, _ = fmt.Fprintf(c.writer, "Run %d / %d ...\n", run, total)
	}
}

func (c *ConsoleProgress) OnSample(_, _ int, seconds float64) {
	if c.verbosity >= 2 {
		_, _ = fmt.Fprintf(c.writer, " %.9fs\n", seconds)
	}
}

func (c *ConsoleProgress) OnComplete(float64, float64) {}

func (c *ConsoleProgress) OnError(run int, err error) {
	if c.verbosity >= 2 {
		_, _ = fmt.Fprintln(c.writer, " failed")
	}
}

// LogProgress logs each run using slog.
type LogProgress struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogProgress creates a log-based reporter. A nil logger means slog.Default().
func NewLogProgress(logger *slog.Logger, level slog.Level) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger, level: level}
}

func (l *LogProgress) OnStart(total int) {
	l.logger.Log(context.Background(), l.level, "Starting measurement", "runs", total)
}

func (l *LogProgress) OnRun(int, int) {}

func (l *LogProgress) OnSample(run, total int, seconds float64) {
	l.logger.Log(context.Background(), l.level, "Run completed",
		"run", run,
		"total", total,
		"seconds", seconds,
	)
}

func (l *LogProgress) OnComplete(mean, stdev float64) {
	l.logger.Log(context.Background(), l.level, "Measurement completed", "mean", mean, "stdev", stdev)
}

func (l *LogProgress) OnError(run int, err error) {
	l.logger.Log(context.Background(), slog.LevelError, "Run failed", "run", run, "error", err)
}

// MultiProgress fans notifications out to several reporters.
type MultiProgress struct {
	reporters []Progress
}

// NewMultiProgress creates a reporter that forwards to all of reporters.
func NewMultiProgress(reporters ...Progress) *MultiProgress {
	return &MultiProgress{reporters: reporters}
}

// Add adds another reporter.
func (m *MultiProgress) Add(p Progress) {
	m.reporters = append(m.reporters, p)
}

func (m *MultiProgress) OnStart(total int) {
	for _, p := range m.reporters {
		p.OnStart(total)
	}
}

func (m *MultiProgress) OnRun(run, total int) {
	for _, p := range m.reporters {
		p.OnRun(run, total)
	}
}

func (m *MultiProgress) OnSample(run, total int, seconds float64) {
	for _, p := range m.reporters {
		p.OnSample(run, total, seconds)
	}
}

func (m *MultiProgress) OnComplete(mean, stdev float64) {
	for _, p := range m.reporters {
		p.OnComplete(mean, stdev)
	}
}

func (m *MultiProgress) OnError(run int, err error) {
	for _, p := range m.reporters {
		p.OnError(run, err)
	}
}
