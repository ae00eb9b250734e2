// Package command wraps an external command line so it can be timed.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyCommand is returned when no program is given.
var ErrEmptyCommand = errors.New("command must not be empty")

// Command runs one program invocation per call to Run.
type Command struct {
	argv    []string
	shell   bool
	dir     string
	env     []string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
}

// Option configures a Command.
type Option func(*Command)

// WithShell runs the joined argument list through "sh -c".
func WithShell(shell bool) Option {
	return func(c *Command) { c.shell = shell }
}

// WithDir sets the working directory.
func WithDir(dir string) Option {
	return func(c *Command) { c.dir = dir }
}

// WithEnv appends KEY=VALUE entries to the inherited environment.
func WithEnv(env []string) Option {
	return func(c *Command) { c.env = append(c.env, env...) }
}

// WithTimeout limits each invocation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Command) { c.timeout = d }
}

// WithStdout forwards the program's standard output to w.
func WithStdout(w io.Writer) Option {
	return func(c *Command) { c.stdout = w }
}

// WithStderr forwards the program's standard error to w.
func WithStderr(w io.Writer) Option {
	return func(c *Command) { c.stderr = w }
}

// New creates a Command for argv. Output is discarded unless redirected.
func New(argv []string, opts ...Option) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, ErrEmptyCommand
	}
	c := &Command{
		argv:   append([]string(nil), argv...),
		stdout: io.Discard,
		stderr: io.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout < 0 {
		return nil, fmt.Errorf("invalid timeout: %v (must not be negative)", c.timeout)
	}
	return c, nil
}

// Name returns the base name of the program, or "sh" in shell mode when
// the script has no leading word.
func (c *Command) Name() string {
	if c.shell {
		fields := strings.Fields(c.argv[0])
		if len(fields) == 0 {
			return "sh"
		}
		return filepath.Base(fields[0])
	}
	return filepath.Base(c.argv[0])
}

// String returns the command line.
func (c *Command) String() string {
	return strings.Join(c.argv, " ")
}

// Run executes the command once and waits for it to exit.
func (c *Command) Run(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if c.shell {
		cmd = exec.CommandContext(ctx, "sh", "-c", c.String())
	} else {
		cmd = exec.CommandContext(ctx, c.argv[0], c.argv[1:]...) //nolint:gosec // G204: running the user's command is the point
	}
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(cmd.Environ(), c.env...)
	}
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && c.timeout > 0 {
			return fmt.Errorf("%s: timed out after %v: %w", c, c.timeout, ctx.Err())
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", c, ctx.Err())
		}
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}
