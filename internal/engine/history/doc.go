// Package history provides a reversible-command engine with unlimited
// undo/redo and bounded memory.
//
// The history system applies operators to an externally owned context and
// records them in two stacks: applied steps (undoable) and unapplied steps
// (redoable). Key concepts:
//
// # Operators
//
// An Operator is the atomic, reversible unit of change:
//   - Prepare is called exactly once, before the first Apply
//   - Apply performs the forward change
//   - Unapply exactly reverses the most recent Apply
//
// Apply and Unapply are always called in strict alternation starting with
// Apply, and must not require user interaction.
//
// # Steps
//
// One or more operators submitted together form a step, the unit of undo
// and redo:
//
//	mgr, err := history.NewManager(editor, strategy, history.WithMaxSteps(100))
//	if err != nil {
//	    return err
//	}
//
//	err = mgr.AddStep("Indent block", []history.Operator[*Editor]{op1, op2})
//
//	mgr.Undo() // unapplies op2, then op1, restores the "before" memento
//	mgr.Redo() // applies op1, then op2, restores the "after" memento
//
// If an operator fails while a step is being added, the operators already
// applied in that submission are unapplied in reverse order and the original
// error is returned. The failed step stays on the applied stack unless the
// manager was built WithDropFailedSteps(true).
//
// Undo and Redo are not transactional: the step moves between stacks before
// its operators run, so an operator failure leaves the history pointing at a
// partially reversed step.
//
// # Mementos
//
// A MementoStrategy captures and restores auxiliary state that operators do
// not reach through the context (cursor position, selection, scroll offset).
// The "before" memento is restored on undo, the "after" memento on redo.
//
// # Batches
//
// Operators can be collected before submission and committed as one step:
//
//	b := mgr.NewBatch("Find and Replace")
//	defer b.Discard()
//	b.Add(op1, op2)
//	return b.Commit()
//
// # Notifications
//
// Observers subscribe to before/after signals for add, undo and redo and to
// the CanUndoChanged, CanRedoChanged and Changed state signals. State signals
// fire only when a call changed the stacks, so a rejected or fully rolled
// back call is reported through its After* event alone. Delivery is
// synchronous on the calling goroutine.
//
// # Concurrency
//
// A Manager is single-threaded and not safe for concurrent use. Calling a
// mutating method from inside an operator, memento hook or Before* observer
// returns ErrReentrantCall.
package history
