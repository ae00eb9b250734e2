// Package timer repeatedly invokes a function and reports the mean and
// population standard deviation of the elapsed wall-clock times.
//
// A Timer is either Unmeasured or Measured. Results can only be read in
// the Measured state, which is entered by a successful Measure and left by
// changing the run count or the target. A Timer is not safe for concurrent use.
package timer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"
)

// State tells whether a Timer holds results.
type State int

const (
	// Unmeasured is the initial state; results are unavailable.
	Unmeasured State = iota
	// Measured means the last reset was followed by a successful Measure.
	Measured
)

func (s State) String() string {
	switch s {
	case Unmeasured:
		return "unmeasured"
	case Measured:
		return "measured"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Verbosity levels for console progress.
const (
	VerbositySilent = 0 // no output
	VerbosityRuns   = 1 // label before each run
	VerbosityTimes  = 2 // label plus elapsed time
)

// Observer receives committed measurements, e.g. to export them as metrics.
type Observer interface {
	ObserveRun(tag string, seconds float64)
	ObserveSummary(tag string, mean, stdev float64)
	ObserveFailure(tag string)
}

// Timer times a target function over a fixed number of runs.
type Timer struct {
	fn     *callable
	runs   int
	args   []any
	kwargs Kwargs

	tag         string
	explicitTag bool
	verbosity   int
	output      io.Writer
	progress    Progress
	observer    Observer
	logger      *slog.Logger
	now         func() time.Time

	samples []float64
	mean    float64
	stdev   float64
	state   State
}

// Option configures a Timer.
type Option func(*Timer)

// WithTag sets the tag used to prefix exported keys. An empty tag keeps
// the target's function name.
func WithTag(tag string) Option {
	return func(t *Timer) {
		if tag != "" {
			t.tag = tag
			t.explicitTag = true
		}
	}
}

// WithVerbosity sets the console progress level (0, 1 or 2).
func WithVerbosity(level int) Option {
	return func(t *Timer) { t.verbosity = level }
}

// WithOutput sets the writer used for console progress.
func WithOutput(w io.Writer) Option {
	return func(t *Timer) { t.output = w }
}

// WithProgress replaces the console progress reporter.
func WithProgress(p Progress) Option {
	return func(t *Timer) { t.progress = p }
}

// WithObserver registers an observer for committed measurements.
func WithObserver(o Observer) Option {
	return func(t *Timer) { t.observer = o }
}

// WithLogger sets the logger for measurement records.
func WithLogger(l *slog.Logger) Option {
	return func(t *Timer) { t.logger = l }
}

// WithClock replaces the clock used to take timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// WithArguments sets the initial call arguments.
func WithArguments(args []any, kwargs Kwargs) Option {
	return func(t *Timer) { t.SetArguments(args, kwargs) }
}

// New creates a Timer for target with the given run count. target must be
// a func value; runs must be at least 1.
func New(target any, runs int, opts ...Option) (*Timer, error) {
	fn, err := newCallable(target)
	if err != nil {
		return nil, err
	}
	if err := validateRunCount(runs); err != nil {
		return nil, err
	}

	t := &Timer{
		fn:   fn,
		runs: runs,
		tag:  fn.name,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.verbosity < VerbositySilent || t.verbosity > VerbosityTimes {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVerbosity, t.verbosity)
	}
	if t.progress == nil {
		if t.verbosity > VerbositySilent {
			t.progress = NewConsoleProgress(t.output, t.verbosity)
		} else {
			t.progress = NoOpProgress{}
		}
	}
	if t.now == nil {
		t.now = time.Now
	}

	t.reset()
	return t, nil
}

func validateRunCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRunCount, n)
	}
	return nil
}

// reset reallocates the sample buffer and drops results.
func (t *Timer) reset() {
	t.samples = make([]float64, t.runs)
	t.mean = math.NaN()
	t.stdev = math.NaN()
	t.state = Unmeasured
}

// SetArguments replaces the arguments passed on every invocation. It does
// not change the state.
func (t *Timer) SetArguments(args []any, kwargs Kwargs) {
	t.args = slices.Clone(args)
	t.kwargs = maps.Clone(kwargs)
}

// SetRunCount changes the number of runs per measurement and discards results.
func (t *Timer) SetRunCount(n int) error {
	if err := validateRunCount(n); err != nil {
		return err
	}
	t.runs = n
	t.reset()
	return nil
}

// SetFunc replaces the target and discards results.
func (t *Timer) SetFunc(target any) error {
	fn, err := newCallable(target)
	if err != nil {
		return err
	}
	t.fn = fn
	if !t.explicitTag {
		t.tag = fn.name
	}
	t.reset()
	return nil
}

// Measure invokes the target RunCount times and computes the statistics.
func (t *Timer) Measure() error {
	return t.MeasureContext(context.Background())
}

// MeasureContext is like Measure but stops before the next invocation once
// ctx is done. The target itself is not interrupted.
//
// If any invocation fails no result of the batch is kept: a Timer that was
// Measured before keeps its previous results.
func (t *Timer) MeasureContext(ctx context.Context) error {
	invoke, err := t.fn.bind(t.args, t.kwargs)
	if err != nil {
		return err
	}

	runs := t.runs
	scratch := make([]float64, runs)

	t.progress.OnStart(runs)
	for i := range runs {
		if err := ctx.Err(); err != nil {
			return t.abort(i, err)
		}

		t.progress.OnRun(i, runs)
		start := t.now()
		err := invoke()
		elapsed := t.now().Sub(start).Seconds()
		if err != nil {
			return t.abort(i, err)
		}

		scratch[i] = elapsed
		t.progress.OnSample(i, runs, elapsed)
	}

	mean, stdev := Summarize(scratch)
	copy(t.samples, scratch)
	t.mean = mean
	t.stdev = stdev
	t.state = Measured

	if t.observer != nil {
		for _, s := range scratch {
			t.observer.ObserveRun(t.tag, s)
		}
		t.observer.ObserveSummary(t.tag, mean, stdev)
	}
	t.progress.OnComplete(mean, stdev)
	t.log().Debug("Measurement completed",
		"tag", t.tag,
		"runs", runs,
		"mean", mean,
		"stdev", stdev,
	)
	return nil
}

func (t *Timer) abort(run int, err error) error {
	t.progress.OnError(run, err)
	if t.observer != nil {
		t.observer.ObserveFailure(t.tag)
	}
	t.log().Warn("Measurement aborted", "tag", t.tag, "run", run, "runs", t.runs, "error", err)
	return &RunError{Run: run, Runs: t.runs, Err: err}
}

func (t *Timer) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// State returns the current state.
func (t *Timer) State() State {
	return t.state
}

// HasRun reports whether results are available.
func (t *Timer) HasRun() bool {
	return t.state == Measured
}

// RunCount returns the number of runs per measurement.
func (t *Timer) RunCount() int {
	return t.runs
}

// Tag returns the export tag.
func (t *Timer) Tag() string {
	return t.tag
}

// Verbosity returns the console progress level.
func (t *Timer) Verbosity() int {
	return t.verbosity
}

// Samples returns a copy of the elapsed times in seconds, one per run.
func (t *Timer) Samples() ([]float64, error) {
	if t.state != Measured {
		return nil, ErrResultsUnavailable
	}
	return slices.Clone(t.samples), nil
}

// Mean returns the mean elapsed time in seconds.
func (t *Timer) Mean() (float64, error) {
	if t.state != Measured {
		return math.NaN(), ErrResultsUnavailable
	}
	return t.mean, nil
}

// Stdev returns the population standard deviation of the elapsed times.
func (t *Timer) Stdev() (float64, error) {
	if t.state != Measured {
		return math.NaN(), ErrResultsUnavailable
	}
	return t.stdev, nil
}

// Result returns a snapshot of the current results.
func (t *Timer) Result() (Result, error) {
	if t.state != Measured {
		return Result{}, ErrResultsUnavailable
	}
	return Result{
		Tag:      t.tag,
		Runs:     t.runs,
		Runtimes: slices.Clone(t.samples),
		Mean:     t.mean,
		Stdev:    t.stdev,
	}, nil
}

// ToMap exports the results under the keys "runtimes", "tmean" and
// "tstdev", each prefixed with "<tag>_" when withTag is set.
func (t *Timer) ToMap(withTag bool) (map[string]any, error) {
	res, err := t.Result()
	if err != nil {
		return nil, err
	}
	return res.Map(withTag), nil
}
