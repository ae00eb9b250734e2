package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/slimtimer/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunCommandRequiresArgs(t *testing.T) {
	isolate(t)

	_, _, err := executeCommandAndCaptureOutput(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRunCommandText(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "-n", "3", "--", "true")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "true: 3 runs, mean: "), stdout)
}

func TestRunCommandJSON(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "--runs", "4", "--format", "json", "--", "true")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got, 3)
	assert.Len(t, got[timer.KeyRuntimes], 4)
	assert.Contains(t, got, timer.KeyMean)
	assert.Contains(t, got, timer.KeyStdev)
}

func TestRunCommandJSONWithTag(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "2", "-f", "json", "--with-tag", "--tag", "noop", "--", "true")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Contains(t, got, "noop_runtimes")
	assert.Contains(t, got, "noop_tmean")
	assert.Contains(t, got, "noop_tstdev")
}

func TestRunCommandProgressOnStderr(t *testing.T) {
	isolate(t)

	stdout, stderr, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "2", "--verbosity", "1", "-f", "json", "--", "true")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Run 0 / 2 ...\n")
	assert.Contains(t, stderr, "Run 1 / 2 ...\n")
	assert.NotContains(t, stdout, "Run 0")
}

func TestRunCommandInvalidRuns(t *testing.T) {
	isolate(t)

	_, _, err := executeCommandAndCaptureOutput(t, "run", "-n", "0", "--", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run.runs")
}

func TestRunCommandInvalidFormat(t *testing.T) {
	isolate(t)

	_, _, err := executeCommandAndCaptureOutput(t, "run", "-f", "xml", "--", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestRunCommandFailingCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "-n", "3", "--", "false")
	require.Error(t, err)
	assert.Empty(t, stdout)

	var runErr *timer.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 0, runErr.Run)

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestRunCommandShell(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "2", "--shell", "--format", "csv", "--", "test 1 -eq 1 && true")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "tag,run,seconds", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "test,0,"), lines[1])
}

func TestRunCommandShowOutput(t *testing.T) {
	isolate(t)

	stdout, stderr, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "1", "--show-output", "-f", "yaml", "--", "echo", "hello-from-child")
	require.NoError(t, err)

	assert.Contains(t, stderr, "hello-from-child")
	assert.NotContains(t, stdout, "hello-from-child")
}

func TestRunCommandOutputAndMetricsFiles(t *testing.T) {
	dir := isolate(t)
	reportFile := filepath.Join(dir, "report.yaml")
	metricsFile := filepath.Join(dir, "slimtimer.prom")

	stdout, _, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "3", "--tag", "bench", "-f", "yaml",
		"-o", reportFile, "--metrics-file", metricsFile, "--", "true")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Len(t, got[timer.KeyRuntimes], 3)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `slimtimer_runs_total{tag="bench"} 3`)
	assert.Contains(t, string(prom), `slimtimer_mean_seconds{tag="bench"}`)
}

func TestRunCommandFailureStillWritesMetrics(t *testing.T) {
	dir := isolate(t)
	metricsFile := filepath.Join(dir, "slimtimer.prom")

	_, _, err := executeCommandAndCaptureOutput(t,
		"run", "-n", "2", "--tag", "broken", "--metrics-file", metricsFile, "--", "false")
	require.Error(t, err)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `slimtimer_measure_failures_total{tag="broken"} 1`)
}

func TestRunCommandConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slimtimer.yaml"),
		[]byte("run:\n  runs: 2\n  tag: fromfile\noutput:\n  format: json\n  with_tag: true\n"), 0o644))

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "--", "true")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got["fromfile_runtimes"], 2)
}

func TestRunCommandFlagOverridesConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slimtimer.yaml"),
		[]byte("run:\n  runs: 2\noutput:\n  format: json\n"), 0o644))

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "-n", "5", "--", "true")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got[timer.KeyRuntimes], 5)
}

func TestRunCommandEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("SLIMTIMER_RUN_RUNS", "3")
	t.Setenv("SLIMTIMER_OUTPUT_FORMAT", "json")

	stdout, _, err := executeCommandAndCaptureOutput(t, "run", "--", "true")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got[timer.KeyRuntimes], 3)
}
