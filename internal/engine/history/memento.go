package history

// MementoStrategy captures and restores auxiliary state that operators do not
// reach through the context. It is the only integration point a new use of
// the engine has to supply.
//
// The "before" memento of a step is restored when the step is undone, the
// "after" memento when it is redone.
type MementoStrategy[C, M any] interface {
	CreateMemento(ctx C) (M, error)
	RestoreMemento(ctx C, memento M) error
}

// MementoFuncs adapts plain functions to the MementoStrategy interface.
// A nil Create returns the zero memento; a nil Restore does nothing.
type MementoFuncs[C, M any] struct {
	Create  func(ctx C) (M, error)
	Restore func(ctx C, memento M) error
}

// CreateMemento calls Create.
func (f MementoFuncs[C, M]) CreateMemento(ctx C) (M, error) {
	if f.Create == nil {
		var zero M
		return zero, nil
	}
	return f.Create(ctx)
}

// RestoreMemento calls Restore.
func (f MementoFuncs[C, M]) RestoreMemento(ctx C, memento M) error {
	if f.Restore == nil {
		return nil
	}
	return f.Restore(ctx, memento)
}

// NoMemento is a strategy for contexts without auxiliary state.
type NoMemento[C any] struct{}

// CreateMemento returns an empty memento.
func (NoMemento[C]) CreateMemento(C) (struct{}, error) {
	return struct{}{}, nil
}

// RestoreMemento does nothing.
func (NoMemento[C]) RestoreMemento(C, struct{}) error {
	return nil
}
