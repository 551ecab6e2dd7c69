package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for drive simulation.
var (
	// ErrConfig indicates an invalid parameter detected before the run starts.
	ErrConfig = errors.New("drivesim: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("drivesim: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration diverged.
	ErrUnstable = errors.New("drivesim: simulation unstable (state diverged)")

	// ErrEventDetection indicates a switching or conduction event could not be
	// located within tolerance inside a control interval.
	ErrEventDetection = errors.New("drivesim: event detection failed")

	// ErrStepTooSmall indicates the step size fell below the configured minimum.
	ErrStepTooSmall = errors.New("drivesim: step size below minimum")

	// ErrNotRunnable indicates Run was called on an engine that already finished.
	ErrNotRunnable = errors.New("drivesim: engine is not in the idle phase")
)

// SimulationError wraps an error with the time and state at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
