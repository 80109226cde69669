package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrInvalidMaxSteps   = errors.New("max steps must be at least 1")
	ErrNilStrategy       = errors.New("memento strategy is nil")
	ErrReentrantCall     = errors.New("history manager called re-entrantly")
	ErrBatchClosed       = errors.New("batch already committed or discarded")
	ErrUnknownCheckpoint = errors.New("checkpoint is not reachable from the current position")
)

// RollbackError reports an operator that failed to unapply while a failed
// submission was being rolled back. It is joined to the error that caused
// the rollback, so errors.Is on the original error still matches.
type RollbackError struct {
	// Index is the position of the operator in the submitted step.
	Index int
	// Err is the error returned by Unapply.
	Err error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback operator %d: %v", e.Index, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}
