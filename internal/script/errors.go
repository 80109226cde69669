package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call exceeds the execution timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNotFound is returned when a global operator definition is missing.
	ErrNotFound = errors.New("lua operator not defined")

	// ErrInvalidOperator is returned when a definition lacks apply or unapply.
	ErrInvalidOperator = errors.New("invalid lua operator")
)

// Phase names the operator method that failed.
type Phase string

// Operator phases.
const (
	PhaseCreate  Phase = "create"
	PhasePrepare Phase = "prepare"
	PhaseApply   Phase = "apply"
	PhaseUnapply Phase = "unapply"
)

// Error reports a failure inside a Lua operator.
type Error struct {
	Operator string
	Phase    Phase
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lua operator %q: %s: %v", e.Operator, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
