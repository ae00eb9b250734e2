package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCallable is returned when the timed target is not a func value.
	ErrInvalidCallable = errors.New("target must be callable")

	// ErrInvalidRunCount is returned when the run count is not a positive integer.
	ErrInvalidRunCount = errors.New("run count must be a positive integer")

	// ErrInvalidVerbosity is returned for verbosity levels other than 0, 1 and 2.
	ErrInvalidVerbosity = errors.New("verbosity must be 0, 1 or 2")

	// ErrInvalidArguments is returned by Measure when the stored arguments
	// cannot be passed to the target.
	ErrInvalidArguments = errors.New("arguments do not match target signature")

	// ErrResultsUnavailable is returned by the result accessors before a
	// measurement has completed.
	ErrResultsUnavailable = errors.New("cannot report unmeasured times")
)

// RunError reports an invocation that aborted a measurement batch.
type RunError struct {
	Run  int // 0-based index of the failed invocation
	Runs int
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %d/%d failed: %v", e.Run+1, e.Runs, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
