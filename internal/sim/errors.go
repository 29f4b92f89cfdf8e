package sim

import (
	"errors"
	"fmt"
)

// ErrNonConvergence is returned when a run hits its step limit with
// people still inside.
var ErrNonConvergence = errors.New("simulation did not converge")

// NonConvergenceError carries the state at the step limit.
type NonConvergenceError struct {
	Steps     int
	Remaining float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%v after %d steps (%.2f people remaining)", ErrNonConvergence, e.Steps, e.Remaining)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }
