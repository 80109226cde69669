package textdoc

import (
	"github.com/dshills/stepwise/internal/engine/history"
)

// CursorMemento saves and restores the editor cursor around each step.
// Mementos are *Cursor values, so two snapshots compare by identity.
type CursorMemento struct{}

// CreateMemento captures the current cursor.
func (CursorMemento) CreateMemento(e *Editor) (*Cursor, error) {
	c := e.Cursor
	return &c, nil
}

// RestoreMemento puts the cursor back, clamped to the document.
func (CursorMemento) RestoreMemento(e *Editor, c *Cursor) error {
	if c == nil {
		return nil
	}
	e.Cursor = c.clamp(e.Doc.Len())
	return nil
}

// Manager is a history manager over an Editor.
type Manager = history.Manager[*Editor, *Cursor]

// NewManager creates a history manager for e that restores the cursor on
// undo and redo.
func NewManager(e *Editor, opts ...history.Option) (*Manager, error) {
	return history.NewManager[*Editor, *Cursor](e, CursorMemento{}, opts...)
}
