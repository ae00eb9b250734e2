package support

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/slimtimer/cmd/slimtimer/cmd"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastStdout  string
	LastStderr  string
	LastError   error

	// Test environment
	OriginalDir string
	TempDir     string
	EnvVars     map[string]string
	savedEnv    map[string]*string
}

// NewTestContext creates a new test context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "slimtimer-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		OriginalDir: originalDir,
		TempDir:     tempDir,
		EnvVars:     map[string]string{},
		savedEnv:    map[string]*string{},
	}, nil
}

// Enter switches into the scenario's temp directory so that no project
// configuration is picked up.
func (testCtx *TestContext) Enter() error {
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to enter temp directory: %w", err)
	}
	testCtx.setEnv("HOME", testCtx.TempDir)
	testCtx.setEnv("XDG_CONFIG_HOME", testCtx.TempDir)
	return nil
}

// Cleanup restores the process environment and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if err := os.Chdir(testCtx.OriginalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}

	for name, value := range testCtx.savedEnv {
		if value == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *value)
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	return errors.Join(errs...)
}

// setEnv sets an environment variable for the rest of the scenario and
// remembers the previous value for Cleanup.
func (testCtx *TestContext) setEnv(name, value string) {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	testCtx.EnvVars[name] = value
	_ = os.Setenv(name, value)
}

// Execute runs the slimtimer command tree in-process with the given
// whitespace-separated arguments.
func (testCtx *TestContext) Execute(command string) {
	testCtx.LastCommand = command

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "slimtimer" {
		args = args[1:]
	}

	root := cmd.NewRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	testCtx.LastError = root.Execute()
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
}
