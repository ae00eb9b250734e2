package timer

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpProgress(t *testing.T) {
	// Should not panic or cause issues
	p := NoOpProgress{}
	p.OnStart(3)
	p.OnRun(0, 3)
	p.OnSample(0, 3, 0.1)
	p.OnComplete(0.1, 0)
	p.OnError(1, assert.AnError)
}

func TestConsoleProgress_Silent(t *testing.T) {
	var buf bytes.Buffer
	tm, err := New(noop, 3, WithOutput(&buf))
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	assert.Empty(t, buf.String())
}

func TestConsoleProgress_Runs(t *testing.T) {
	var buf bytes.Buffer
	tm, err := New(noop, 2, WithVerbosity(VerbosityRuns), WithOutput(&buf))
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	assert.Equal(t, "Run 0 / 2 ...\nRun 1 / 2 ...\n", buf.String())
}

func TestConsoleProgress_Times(t *testing.T) {
	var buf bytes.Buffer
	tm, err := New(noop, 2,
		WithVerbosity(VerbosityTimes),
		WithOutput(&buf),
		WithClock(steppingClock(time.Millisecond)),
	)
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	assert.Equal(t, "Run 0 / 2 ... 0.001000000s\nRun 1 / 2 ... 0.001000000s\n", buf.String())
}

func TestConsoleProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	tm, err := New(func() error { return errors.New("nope") }, 2,
		WithVerbosity(VerbosityTimes),
		WithOutput(&buf),
	)
	require.NoError(t, err)
	require.Error(t, tm.Measure())

	assert.Equal(t, "Run 0 / 2 ... failed\n", buf.String())
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tm, err := New(noop, 2, WithProgress(NewLogProgress(logger, slog.LevelInfo)), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	output := buf.String()
	assert.Contains(t, output, `"msg":"Starting measurement"`)
	assert.Contains(t, output, `"msg":"Run completed"`)
	assert.Contains(t, output, `"msg":"Measurement completed"`)
	assert.Contains(t, output, `"runs":2`)
}

func TestLogProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	tm, err := New(func() error { return assert.AnError }, 2,
		WithProgress(NewLogProgress(logger, slog.LevelInfo)),
		WithLogger(logger),
	)
	require.NoError(t, err)
	require.Error(t, tm.Measure())

	output := buf.String()
	assert.Contains(t, output, `"msg":"Run failed"`)
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"msg":"Measurement aborted"`)
}

func TestMultiProgress(t *testing.T) {
	var first, second bytes.Buffer
	multi := NewMultiProgress(NewConsoleProgress(&first, VerbosityRuns))
	multi.Add(NewConsoleProgress(&second, VerbosityRuns))

	tm, err := New(noop, 1, WithProgress(multi))
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	assert.Equal(t, "Run 0 / 1 ...\n", first.String())
	assert.Equal(t, first.String(), second.String())
}

func TestWithProgressOverridesVerbosity(t *testing.T) {
	var buf bytes.Buffer
	tm, err := New(noop, 2, WithVerbosity(VerbosityTimes), WithOutput(&buf), WithProgress(NoOpProgress{}))
	require.NoError(t, err)
	require.NoError(t, tm.Measure())

	assert.Empty(t, buf.String())
	assert.Equal(t, VerbosityTimes, tm.Verbosity())
}
