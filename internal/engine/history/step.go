package history

import (
	"time"

	"github.com/google/uuid"
)

// step groups the operators applied together as one undo/redo unit.
type step[C, M any] struct {
	id          uuid.UUID
	description string
	operators   []Operator[C]
	before      M
	after       M
	timestamp   time.Time
}

func newStep[C, M any](description string, ops []Operator[C], before M) *step[C, M] {
	operators := make([]Operator[C], len(ops))
	copy(operators, ops)

	return &step[C, M]{
		id:          uuid.New(),
		description: description,
		operators:   operators,
		before:      before,
		timestamp:   time.Now(),
	}
}

// apply applies all operators in submission order.
func (s *step[C, M]) apply(ctx C) error {
	for _, op := range s.operators {
		if err := op.Apply(ctx); err != nil {
			return err
		}
	}
	return nil
}

// unapply unapplies all operators in reverse submission order.
func (s *step[C, M]) unapply(ctx C) error {
	for i := len(s.operators) - 1; i >= 0; i-- {
		if err := s.operators[i].Unapply(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *step[C, M]) entry(kind EntryKind) Entry {
	return Entry{
		Kind:        kind,
		ID:          s.id,
		Description: s.description,
		Operators:   len(s.operators),
		Timestamp:   s.timestamp,
	}
}

// EntryKind tells where an Entry sits relative to the current position.
type EntryKind int

const (
	// EntryApplied is a step currently in effect.
	EntryApplied EntryKind = iota
	// EntryCurrent marks the current position between applied and unapplied steps.
	EntryCurrent
	// EntryUnapplied is a step that was undone and can be redone.
	EntryUnapplied
)

// String returns the kind name.
func (k EntryKind) String() string {
	switch k {
	case EntryApplied:
		return "applied"
	case EntryCurrent:
		return "current"
	case EntryUnapplied:
		return "unapplied"
	default:
		return "unknown"
	}
}

// Entry provides read-only info about a step.
// Used for displaying undo/redo history to users.
type Entry struct {
	Kind        EntryKind
	ID          uuid.UUID // uuid.Nil for the current-position marker
	Description string    // Human-readable description, may be empty
	Operators   int       // Number of operators in the step
	Timestamp   time.Time // When the step was added
}

// IsCurrent reports whether e is the current-position marker.
func (e Entry) IsCurrent() bool {
	return e.Kind == EntryCurrent
}
