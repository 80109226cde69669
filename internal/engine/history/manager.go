package history

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/dshills/stepwise/internal/logging"
	"github.com/dshills/stepwise/internal/notify"
)

// Manager owns the applied and unapplied step stacks for one context.
//
// The context is referenced, never copied or owned; the manager only changes
// it through operators and the memento strategy.
type Manager[C, M any] struct {
	ctx      C
	strategy MementoStrategy[C, M]

	// Top of stack is the last element
	applied   []*step[C, M]
	unapplied []*step[C, M]

	maxSteps   int
	dropFailed bool

	notifier *notify.Notifier
	log      *logging.Logger

	// Set while a mutating operation runs
	busy bool
}

// NewManager creates a history manager for ctx.
func NewManager[C, M any](ctx C, strategy MementoStrategy[C, M], opts ...Option) (*Manager[C, M], error) {
	if strategy == nil {
		return nil, ErrNilStrategy
	}

	cfg := config{
		maxSteps: Unbounded,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxSteps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxSteps, cfg.maxSteps)
	}
	if cfg.notifier == nil {
		cfg.notifier = notify.New()
	}

	return &Manager[C, M]{
		ctx:        ctx,
		strategy:   strategy,
		maxSteps:   cfg.maxSteps,
		dropFailed: cfg.dropFailed,
		notifier:   cfg.notifier,
		log:        cfg.logger.WithComponent("history"),
	}, nil
}

// Context returns the context the manager operates on.
func (m *Manager[C, M]) Context() C {
	return m.ctx
}

// Add records a step without description.
func (m *Manager[C, M]) Add(ops ...Operator[C]) error {
	return m.AddStep("", ops)
}

// AddStep prepares and applies ops as a single step and pushes it onto the
// applied stack. The unapplied stack is cleared. An empty ops list does
// nothing.
//
// If an operator fails to prepare or apply, the operators already applied in
// this call are unapplied in reverse order and the error is returned. The
// step itself remains on the applied stack unless WithDropFailedSteps was
// set, so callers must not assume a failing AddStep left history untouched.
func (m *Manager[C, M]) AddStep(description string, ops []Operator[C], opts ...StepOption[M]) (err error) {
	if len(ops) == 0 {
		return nil
	}
	if err := m.enter(); err != nil {
		return err
	}

	m.emit(notify.BeforeAdd, description, nil)
	start := m.position()
	defer func() {
		m.leave()
		m.signalStateSince(start)
		m.emit(notify.AfterAdd, description, err)
	}()

	var sc stepConfig[M]
	for _, opt := range opts {
		opt(&sc)
	}

	before := sc.before
	if !sc.hasBefore {
		before, err = m.strategy.CreateMemento(m.ctx)
		if err != nil {
			return fmt.Errorf("create before memento: %w", err)
		}
	}

	s := newStep(description, ops, before)
	m.applied = append(m.applied, s)
	redo := m.unapplied
	if len(redo) > 0 {
		m.log.Debug("discarding %d redo steps", len(redo))
	}
	m.unapplied = nil

	// Operators applied so far, unwound on failure
	rollback := make([]Operator[C], 0, len(s.operators))
	for i, op := range s.operators {
		if err = op.Prepare(m.ctx); err == nil {
			err = op.Apply(m.ctx)
		}
		if err != nil {
			m.log.WithField("step", s.id).Debug("operator %d of %q failed, rolling back %d", i, description, len(rollback))
			return m.abort(s, rollback, redo, err)
		}
		rollback = append(rollback, op)
	}

	after, err := m.strategy.CreateMemento(m.ctx)
	if err != nil {
		return m.abort(s, rollback, redo, fmt.Errorf("create after memento: %w", err))
	}
	s.after = after

	if sc.finisher != nil {
		sc.finisher(after)
	}

	m.enforceLimit()
	m.log.WithField("step", s.id).Debug("added %q with %d operators", description, len(s.operators))
	return nil
}

// abort unwinds the operators applied during a failed submission. When
// failed steps are dropped, the redo history discarded by the submission is
// put back as well.
func (m *Manager[C, M]) abort(s *step[C, M], applied []Operator[C], redo []*step[C, M], cause error) error {
	var rbErrs []error
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].Unapply(m.ctx); err != nil {
			m.log.Warn("rollback of operator %d failed: %v", i, err)
			rbErrs = append(rbErrs, &RollbackError{Index: i, Err: err})
		}
	}

	if m.dropFailed && len(m.applied) > 0 && m.applied[len(m.applied)-1] == s {
		m.applied = m.applied[:len(m.applied)-1]
		m.unapplied = redo
	}

	if len(rbErrs) == 0 {
		return cause
	}
	return errors.Join(append([]error{cause}, rbErrs...)...)
}

// Undo unapplies the most recently applied step and restores its "before"
// memento. It returns ErrNothingToUndo when there is nothing to undo.
//
// The step moves to the unapplied stack before its operators run; if one of
// them fails the error is returned and the history is not restored.
func (m *Manager[C, M]) Undo() (err error) {
	if err := m.enter(); err != nil {
		return err
	}
	if len(m.applied) == 0 {
		m.leave()
		return ErrNothingToUndo
	}

	s := m.applied[len(m.applied)-1]
	m.emit(notify.BeforeUndo, s.description, nil)
	start := m.position()
	defer func() {
		m.leave()
		m.signalStateSince(start)
		m.emit(notify.AfterUndo, s.description, err)
	}()

	m.applied = m.applied[:len(m.applied)-1]
	m.unapplied = append(m.unapplied, s)

	if err = s.unapply(m.ctx); err != nil {
		return err
	}
	if err = m.strategy.RestoreMemento(m.ctx, s.before); err != nil {
		return fmt.Errorf("restore before memento: %w", err)
	}

	m.log.WithField("step", s.id).Debug("undid %q", s.description)
	return nil
}

// Redo reapplies the most recently undone step and restores its "after"
// memento. It returns ErrNothingToRedo when there is nothing to redo.
func (m *Manager[C, M]) Redo() (err error) {
	if err := m.enter(); err != nil {
		return err
	}
	if len(m.unapplied) == 0 {
		m.leave()
		return ErrNothingToRedo
	}

	s := m.unapplied[len(m.unapplied)-1]
	m.emit(notify.BeforeRedo, s.description, nil)
	start := m.position()
	defer func() {
		m.leave()
		m.signalStateSince(start)
		m.emit(notify.AfterRedo, s.description, err)
	}()

	m.unapplied = m.unapplied[:len(m.unapplied)-1]
	m.applied = append(m.applied, s)

	if err = s.apply(m.ctx); err != nil {
		return err
	}
	if err = m.strategy.RestoreMemento(m.ctx, s.after); err != nil {
		return fmt.Errorf("restore after memento: %w", err)
	}

	m.log.WithField("step", s.id).Debug("redid %q", s.description)
	return nil
}

// Clear removes all undo/redo history without calling any operator.
func (m *Manager[C, M]) Clear() error {
	if err := m.enter(); err != nil {
		return err
	}

	start := m.position()
	m.applied = nil
	m.unapplied = nil
	m.leave()

	m.signalStateSince(start)
	return nil
}

// CreateMemento captures a memento from the current state of the context.
// Pass it to WithBefore when a later submission should restore to this point.
func (m *Manager[C, M]) CreateMemento() (M, error) {
	return m.strategy.CreateMemento(m.ctx)
}

// CanUndo returns true if undo is available.
func (m *Manager[C, M]) CanUndo() bool {
	return len(m.applied) > 0
}

// CanRedo returns true if redo is available.
func (m *Manager[C, M]) CanRedo() bool {
	return len(m.unapplied) > 0
}

// UndoCount returns the number of steps that can be undone.
func (m *Manager[C, M]) UndoCount() int {
	return len(m.applied)
}

// RedoCount returns the number of steps that can be redone.
func (m *Manager[C, M]) RedoCount() int {
	return len(m.unapplied)
}

// UndoDescription returns the description of the step the next Undo acts on.
func (m *Manager[C, M]) UndoDescription() (string, bool) {
	if len(m.applied) == 0 {
		return "", false
	}
	return m.applied[len(m.applied)-1].description, true
}

// RedoDescription returns the description of the step the next Redo acts on.
func (m *Manager[C, M]) RedoDescription() (string, bool) {
	if len(m.unapplied) == 0 {
		return "", false
	}
	return m.unapplied[len(m.unapplied)-1].description, true
}

// PeekUndo returns info about the next undo step without changing history.
func (m *Manager[C, M]) PeekUndo() (Entry, bool) {
	if len(m.applied) == 0 {
		return Entry{}, false
	}
	return m.applied[len(m.applied)-1].entry(EntryApplied), true
}

// PeekRedo returns info about the next redo step without changing history.
func (m *Manager[C, M]) PeekRedo() (Entry, bool) {
	if len(m.unapplied) == 0 {
		return Entry{}, false
	}
	return m.unapplied[len(m.unapplied)-1].entry(EntryUnapplied), true
}

// History yields the history front to back: applied steps oldest first, a
// single EntryCurrent marker, then unapplied steps in the order Redo would
// reapply them. Iteration reads a snapshot taken when it starts.
func (m *Manager[C, M]) History() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		applied := slices.Clone(m.applied)
		unapplied := slices.Clone(m.unapplied)

		for _, s := range applied {
			if !yield(s.entry(EntryApplied)) {
				return
			}
		}
		if !yield(Entry{Kind: EntryCurrent}) {
			return
		}
		for i := len(unapplied) - 1; i >= 0; i-- {
			if !yield(unapplied[i].entry(EntryUnapplied)) {
				return
			}
		}
	}
}

// Entries returns History as a slice.
func (m *Manager[C, M]) Entries() []Entry {
	return slices.Collect(m.History())
}

// MaxSteps returns the maximum number of applied steps retained.
func (m *Manager[C, M]) MaxSteps() int {
	return m.maxSteps
}

// SetMaxSteps changes the retention limit. If more applied steps exist than
// the new limit allows, the oldest are discarded immediately without calling
// any operator.
func (m *Manager[C, M]) SetMaxSteps(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSteps, n)
	}
	if err := m.enter(); err != nil {
		return err
	}

	m.maxSteps = n
	evicted := m.enforceLimit()
	m.leave()

	if evicted > 0 {
		m.emit(notify.Changed, "", nil)
	}
	return nil
}

// Subscribe registers an observer for every signal.
func (m *Manager[C, M]) Subscribe(observer notify.Observer) *notify.Subscription {
	return m.notifier.Subscribe(observer)
}

// SubscribeSignal registers an observer for one signal.
func (m *Manager[C, M]) SubscribeSignal(signal notify.Signal, observer notify.Observer) *notify.Subscription {
	return m.notifier.SubscribeSignal(signal, observer)
}

// enforceLimit discards the oldest applied steps beyond maxSteps.
// Returns the number of steps discarded.
func (m *Manager[C, M]) enforceLimit() int {
	excess := len(m.applied) - m.maxSteps
	if excess <= 0 {
		return 0
	}

	for _, s := range m.applied[:excess] {
		m.log.WithField("step", s.id).Debug("evicting %q", s.description)
	}
	m.applied = slices.Delete(m.applied, 0, excess)
	return excess
}

func (m *Manager[C, M]) enter() error {
	if m.busy {
		return ErrReentrantCall
	}
	m.busy = true
	return nil
}

func (m *Manager[C, M]) leave() {
	m.busy = false
}

func (m *Manager[C, M]) emit(signal notify.Signal, description string, err error) {
	m.notifier.Notify(notify.Event{
		Signal:      signal,
		Description: description,
		CanUndo:     m.CanUndo(),
		CanRedo:     m.CanRedo(),
		Err:         err,
	})
}

// position identifies the shape of both stacks. Two equal positions mean
// no step was pushed, popped, moved or evicted in between.
type position[C, M any] struct {
	applied, unapplied int
	top, next          *step[C, M]
}

func (m *Manager[C, M]) position() position[C, M] {
	p := position[C, M]{applied: len(m.applied), unapplied: len(m.unapplied)}
	if p.applied > 0 {
		p.top = m.applied[p.applied-1]
	}
	if p.unapplied > 0 {
		p.next = m.unapplied[p.unapplied-1]
	}
	return p
}

// signalStateSince fires the availability and change signals if the stacks
// differ from start. A failure that left the history as it was stays silent.
func (m *Manager[C, M]) signalStateSince(start position[C, M]) {
	if m.position() == start {
		return
	}
	m.emit(notify.CanUndoChanged, "", nil)
	m.emit(notify.CanRedoChanged, "", nil)
	m.emit(notify.Changed, "", nil)
}
