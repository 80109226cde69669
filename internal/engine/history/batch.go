package history

import (
	"github.com/google/uuid"
)

// Batch collects operators and submits them to the manager as one step.
// Nothing is prepared or applied until Commit.
//
// Usage:
//
//	func reformat(mgr *history.Manager[*Editor, *Cursor]) error {
//	    b := mgr.NewBatch("Reformat")
//	    defer b.Discard()
//	    // ... b.Add(...) ...
//	    return b.Commit()
//	}
type Batch[C, M any] struct {
	manager     *Manager[C, M]
	description string
	operators   []Operator[C]
	closed      bool
}

// NewBatch starts a new batch with the given step description.
func (m *Manager[C, M]) NewBatch(description string) *Batch[C, M] {
	return &Batch[C, M]{
		manager:     m,
		description: description,
	}
}

// Add appends operators to the batch.
func (b *Batch[C, M]) Add(ops ...Operator[C]) error {
	if b.closed {
		return ErrBatchClosed
	}
	b.operators = append(b.operators, ops...)
	return nil
}

// Len returns the number of operators collected so far.
func (b *Batch[C, M]) Len() int {
	return len(b.operators)
}

// Description returns the step description.
func (b *Batch[C, M]) Description() string {
	return b.description
}

// Commit submits the collected operators as a single step.
// An empty batch commits nothing. A batch can be committed once.
func (b *Batch[C, M]) Commit(opts ...StepOption[M]) error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true

	ops := b.operators
	b.operators = nil
	return b.manager.AddStep(b.description, ops, opts...)
}

// Discard drops the batch without touching history.
// Safe to call multiple times and after Commit.
func (b *Batch[C, M]) Discard() {
	b.closed = true
	b.operators = nil
}

// Transaction builds a batch with fn and commits it if fn returns nil.
// If fn returns an error the batch is discarded and the error returned.
func (m *Manager[C, M]) Transaction(description string, fn func(b *Batch[C, M]) error, opts ...StepOption[M]) error {
	b := m.NewBatch(description)
	defer b.Discard()

	if err := fn(b); err != nil {
		return err
	}
	return b.Commit(opts...)
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	// top is the newest applied step at the checkpoint, uuid.Nil if none
	top uuid.UUID
}

// Checkpoint records the current history position.
func (m *Manager[C, M]) Checkpoint() Checkpoint {
	if len(m.applied) == 0 {
		return Checkpoint{top: uuid.Nil}
	}
	return Checkpoint{top: m.applied[len(m.applied)-1].id}
}

// AtCheckpoint reports whether the history is positioned at cp.
func (m *Manager[C, M]) AtCheckpoint(cp Checkpoint) bool {
	return m.Checkpoint() == cp
}

// UndoToCheckpoint undoes steps until the history is positioned at cp.
// Returns ErrUnknownCheckpoint if cp is not among the applied steps, for
// example because it was evicted or discarded by a new submission.
func (m *Manager[C, M]) UndoToCheckpoint(cp Checkpoint) error {
	if cp.top != uuid.Nil && indexOf(m.applied, cp.top) < 0 {
		return ErrUnknownCheckpoint
	}
	for !m.AtCheckpoint(cp) {
		if err := m.Undo(); err != nil {
			return err
		}
	}
	return nil
}

// RedoToCheckpoint redoes steps until the history is positioned at cp.
// Returns ErrUnknownCheckpoint if cp is not reachable by redoing.
func (m *Manager[C, M]) RedoToCheckpoint(cp Checkpoint) error {
	if m.AtCheckpoint(cp) {
		return nil
	}
	if cp.top == uuid.Nil || indexOf(m.unapplied, cp.top) < 0 {
		return ErrUnknownCheckpoint
	}
	for !m.AtCheckpoint(cp) {
		if err := m.Redo(); err != nil {
			return err
		}
	}
	return nil
}

func indexOf[C, M any](steps []*step[C, M], id uuid.UUID) int {
	for i, s := range steps {
		if s.id == id {
			return i
		}
	}
	return -1
}
