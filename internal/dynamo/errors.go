package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors shared across the planner and the rollout worlds.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// StepError wraps an error with rollout context.
type StepError struct {
	Step    int
	Sample  int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d sample %d: %v", e.Step, e.Sample, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
