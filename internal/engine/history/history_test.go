package history

import (
	"errors"
	"slices"
	"testing"

	"github.com/dshills/stepwise/internal/notify"
)

// counter is the test context. label is auxiliary state that operators do
// not touch and that only the memento strategy saves and restores.
type counter struct {
	value int
	label string
	trace []string
}

type snapshot struct {
	label string
}

type labelStrategy struct {
	creates  int
	restores int
}

func (s *labelStrategy) CreateMemento(c *counter) (*snapshot, error) {
	s.creates++
	return &snapshot{label: c.label}, nil
}

func (s *labelStrategy) RestoreMemento(c *counter, m *snapshot) error {
	s.restores++
	if m != nil {
		c.label = m.label
	}
	return nil
}

// addOp adds delta to the counter and records every callback.
type addOp struct {
	name      string
	delta     int
	prepares  int
	applies   int
	unapplies int

	failPrepare error
	failApply   error // returned from the first Apply
	failUnapply error
}

func (o *addOp) Prepare(c *counter) error {
	o.prepares++
	c.trace = append(c.trace, "prepare "+o.name)
	return o.failPrepare
}

func (o *addOp) Apply(c *counter) error {
	o.applies++
	c.trace = append(c.trace, "apply "+o.name)
	if o.failApply != nil && o.applies == 1 {
		return o.failApply
	}
	c.value += o.delta
	return nil
}

func (o *addOp) Unapply(c *counter) error {
	o.unapplies++
	c.trace = append(c.trace, "unapply "+o.name)
	if o.failUnapply != nil {
		return o.failUnapply
	}
	c.value -= o.delta
	return nil
}

func newTestManager(t *testing.T, opts ...Option) (*Manager[*counter, *snapshot], *counter, *labelStrategy) {
	t.Helper()
	ctx := &counter{}
	strategy := &labelStrategy{}
	mgr, err := NewManager[*counter, *snapshot](ctx, strategy, opts...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return mgr, ctx, strategy
}

func ops(o ...Operator[*counter]) []Operator[*counter] {
	return o
}

// mustAdd submits a step of one addOp and fails the test on error.
func mustAdd(t *testing.T, mgr *Manager[*counter, *snapshot], description string) {
	t.Helper()
	if err := mgr.AddStep(description, ops(&addOp{name: description, delta: 1})); err != nil {
		t.Fatalf("AddStep(%q) error = %v", description, err)
	}
}

func mustUndo(t *testing.T, mgr *Manager[*counter, *snapshot]) {
	t.Helper()
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
}

func mustRedo(t *testing.T, mgr *Manager[*counter, *snapshot]) {
	t.Helper()
	if err := mgr.Redo(); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
}

func descriptions(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		if e.IsCurrent() {
			out = append(out, "|")
			continue
		}
		out = append(out, e.Description)
	}
	return out
}

func checkAvailability(t *testing.T, mgr *Manager[*counter, *snapshot], canUndo, canRedo bool) {
	t.Helper()
	if got := mgr.CanUndo(); got != canUndo {
		t.Errorf("CanUndo() = %v, want %v", got, canUndo)
	}
	if got := mgr.CanRedo(); got != canRedo {
		t.Errorf("CanRedo() = %v, want %v", got, canRedo)
	}
}

func TestNewManager(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	if mgr.Context() != ctx {
		t.Error("Context() does not return the managed context")
	}
	if got := mgr.MaxSteps(); got != Unbounded {
		t.Errorf("MaxSteps() = %d, want Unbounded", got)
	}
	checkAvailability(t, mgr, false, false)
}

func TestNewManagerInvalidMaxSteps(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewManager[*counter, *snapshot](&counter{}, &labelStrategy{}, WithMaxSteps(n))
		if !errors.Is(err, ErrInvalidMaxSteps) {
			t.Errorf("NewManager(WithMaxSteps(%d)) error = %v, want ErrInvalidMaxSteps", n, err)
		}
	}
}

func TestNewManagerNilStrategy(t *testing.T) {
	_, err := NewManager[*counter, *snapshot](&counter{}, nil)
	if !errors.Is(err, ErrNilStrategy) {
		t.Errorf("NewManager(nil) error = %v, want ErrNilStrategy", err)
	}
}

func TestAddUndoRedoScenario(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	add5 := &addOp{name: "add5", delta: 5}

	if err := mgr.AddStep("add5", ops(add5)); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if ctx.value != 5 {
		t.Errorf("value after AddStep = %d, want 5", ctx.value)
	}
	checkAvailability(t, mgr, true, false)

	mustUndo(t, mgr)
	if ctx.value != 0 {
		t.Errorf("value after Undo = %d, want 0", ctx.value)
	}
	checkAvailability(t, mgr, false, true)

	mustRedo(t, mgr)
	if ctx.value != 5 {
		t.Errorf("value after Redo = %d, want 5", ctx.value)
	}
	checkAvailability(t, mgr, true, false)

	if add5.prepares != 1 {
		t.Errorf("prepares = %d, want 1", add5.prepares)
	}
	if add5.applies != 2 {
		t.Errorf("applies = %d, want 2", add5.applies)
	}
	if add5.unapplies != 1 {
		t.Errorf("unapplies = %d, want 1", add5.unapplies)
	}
}

func TestAddStepEmptyIsNoop(t *testing.T) {
	mgr, _, strategy := newTestManager(t)

	fired := 0
	mgr.Subscribe(func(notify.Event) { fired++ })

	if err := mgr.AddStep("nothing", nil); err != nil {
		t.Errorf("AddStep(nil) error = %v", err)
	}
	if err := mgr.Add(); err != nil {
		t.Errorf("Add() error = %v", err)
	}

	if mgr.CanUndo() {
		t.Error("CanUndo() = true, want false")
	}
	if fired != 0 {
		t.Errorf("events fired = %d, want 0", fired)
	}
	if strategy.creates != 0 {
		t.Errorf("mementos created = %d, want 0", strategy.creates)
	}
}

func TestOperatorOrder(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	a := &addOp{name: "a", delta: 1}
	b := &addOp{name: "b", delta: 10}

	if err := mgr.AddStep("ab", ops(a, b)); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	mustUndo(t, mgr)
	mustRedo(t, mgr)

	want := []string{
		"prepare a", "apply a",
		"prepare b", "apply b",
		"unapply b", "unapply a",
		"apply a", "apply b",
	}
	if !slices.Equal(ctx.trace, want) {
		t.Errorf("trace = %v, want %v", ctx.trace, want)
	}
	if ctx.value != 11 {
		t.Errorf("value = %d, want 11", ctx.value)
	}
}

func TestAddClearsRedo(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	mustAdd(t, mgr, "s1")
	mustAdd(t, mgr, "s2")
	mustUndo(t, mgr)
	mustUndo(t, mgr)
	if !mgr.CanRedo() {
		t.Fatal("CanRedo() = false before new submission")
	}

	mustAdd(t, mgr, "s3")
	if mgr.CanRedo() {
		t.Error("CanRedo() = true after new submission, want false")
	}
	if got := mgr.RedoCount(); got != 0 {
		t.Errorf("RedoCount() = %d, want 0", got)
	}
	if err := mgr.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestCanUndoAfterEveryAdd(t *testing.T) {
	mgr, _, _ := newTestManager(t, WithMaxSteps(3))

	for i := 0; i < 10; i++ {
		if err := mgr.Add(&addOp{delta: 1}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		checkAvailability(t, mgr, true, false)
		if i%3 == 0 {
			mustUndo(t, mgr)
		}
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	fired := 0
	mgr.Subscribe(func(notify.Event) { fired++ })

	if err := mgr.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if err := mgr.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
	if fired != 0 {
		t.Errorf("events fired = %d, want 0", fired)
	}
}

func TestRetentionLimitScenario(t *testing.T) {
	mgr, ctx, _ := newTestManager(t, WithMaxSteps(2))

	mustAdd(t, mgr, "S1")
	mustAdd(t, mgr, "S2")
	mustAdd(t, mgr, "S3")

	if ctx.value != 3 {
		t.Errorf("value = %d, want 3", ctx.value)
	}
	if got, want := descriptions(mgr.Entries()), []string{"S2", "S3", "|"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestRetentionKeepsNewest(t *testing.T) {
	const n = 4
	mgr, ctx, _ := newTestManager(t, WithMaxSteps(n))

	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, name := range names {
		mustAdd(t, mgr, name)
	}

	if got := mgr.UndoCount(); got != n {
		t.Errorf("UndoCount() = %d, want %d", got, n)
	}
	if got, want := descriptions(mgr.Entries()), []string{"d", "e", "f", "g", "|"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	for mgr.CanUndo() {
		mustUndo(t, mgr)
	}
	if want := len(names) - n; ctx.value != want {
		t.Errorf("value after undoing all = %d, want %d", ctx.value, want)
	}
}

func TestSetMaxStepsTruncates(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	var all []*addOp
	for _, name := range []string{"a", "b", "c", "d"} {
		op := &addOp{name: name, delta: 1}
		all = append(all, op)
		if err := mgr.AddStep(name, ops(op)); err != nil {
			t.Fatalf("AddStep() error = %v", err)
		}
	}

	changed := 0
	mgr.SubscribeSignal(notify.Changed, func(notify.Event) { changed++ })

	if err := mgr.SetMaxSteps(2); err != nil {
		t.Fatalf("SetMaxSteps(2) error = %v", err)
	}
	if got := mgr.MaxSteps(); got != 2 {
		t.Errorf("MaxSteps() = %d, want 2", got)
	}
	if got, want := descriptions(mgr.Entries()), []string{"c", "d", "|"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
	if changed != 1 {
		t.Errorf("changed signals = %d, want 1", changed)
	}

	// Eviction must not call operators
	for _, op := range all {
		if op.applies != 1 || op.unapplies != 0 {
			t.Errorf("op %s applies = %d, unapplies = %d, want 1, 0", op.name, op.applies, op.unapplies)
		}
	}

	// Raising the limit does not bring steps back or notify
	if err := mgr.SetMaxSteps(10); err != nil {
		t.Fatalf("SetMaxSteps(10) error = %v", err)
	}
	if got := mgr.UndoCount(); got != 2 {
		t.Errorf("UndoCount() = %d, want 2", got)
	}
	if changed != 1 {
		t.Errorf("changed signals = %d, want 1", changed)
	}

	if err := mgr.SetMaxSteps(0); !errors.Is(err, ErrInvalidMaxSteps) {
		t.Errorf("SetMaxSteps(0) error = %v, want ErrInvalidMaxSteps", err)
	}
	if got := mgr.MaxSteps(); got != 10 {
		t.Errorf("MaxSteps() = %d, want 10", got)
	}
}

func TestRollbackOnApplyFailure(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	boom := errors.New("boom")

	first := &addOp{name: "first", delta: 1}
	second := &addOp{name: "second", delta: 2, failApply: boom}
	third := &addOp{name: "third", delta: 3}

	err := mgr.AddStep("broken", ops(first, second, third))
	if err != boom {
		t.Fatalf("AddStep() error = %v, want the operator's error unchanged", err)
	}

	if ctx.value != 0 {
		t.Errorf("value = %d, want 0", ctx.value)
	}
	if first.unapplies != 1 {
		t.Errorf("first.unapplies = %d, want 1", first.unapplies)
	}
	if second.unapplies != 0 {
		t.Errorf("second.unapplies = %d, want 0", second.unapplies)
	}
	if third.prepares != 0 {
		t.Errorf("third.prepares = %d, want 0", third.prepares)
	}

	// The rolled back step stays undoable
	if !mgr.CanUndo() {
		t.Error("CanUndo() = false, want true")
	}
	if desc, ok := mgr.UndoDescription(); !ok || desc != "broken" {
		t.Errorf("UndoDescription() = %q, %v, want %q, true", desc, ok, "broken")
	}
}

func TestRollbackOnPrepareFailure(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	boom := errors.New("prepare failed")

	first := &addOp{name: "first", delta: 1}
	second := &addOp{name: "second", delta: 2, failPrepare: boom}

	if err := mgr.AddStep("broken", ops(first, second)); !errors.Is(err, boom) {
		t.Errorf("AddStep() error = %v, want %v", err, boom)
	}
	if ctx.value != 0 {
		t.Errorf("value = %d, want 0", ctx.value)
	}
	if first.unapplies != 1 {
		t.Errorf("first.unapplies = %d, want 1", first.unapplies)
	}
	if second.applies != 0 {
		t.Errorf("second.applies = %d, want 0", second.applies)
	}
}

func TestRollbackUnapplyFailureIsJoined(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	boom := errors.New("boom")
	stuck := errors.New("stuck")

	first := &addOp{name: "first", delta: 1, failUnapply: stuck}
	second := &addOp{name: "second", delta: 2, failApply: boom}

	err := mgr.AddStep("broken", ops(first, second))
	if !errors.Is(err, boom) || !errors.Is(err, stuck) {
		t.Errorf("AddStep() error = %v, want both %v and %v", err, boom, stuck)
	}

	var rb *RollbackError
	if !errors.As(err, &rb) {
		t.Fatalf("AddStep() error = %v, want a RollbackError", err)
	}
	if rb.Index != 0 {
		t.Errorf("RollbackError.Index = %d, want 0", rb.Index)
	}
}

func TestDropFailedSteps(t *testing.T) {
	mgr, _, _ := newTestManager(t, WithDropFailedSteps(true))

	mustAdd(t, mgr, "ok")
	mustUndo(t, mgr)

	if err := mgr.AddStep("broken", ops(&addOp{delta: 1, failApply: errors.New("boom")})); err == nil {
		t.Fatal("AddStep() error = nil, want failure")
	}

	// Redo history is restored when the failed step is dropped
	checkAvailability(t, mgr, false, true)
	if desc, _ := mgr.RedoDescription(); desc != "ok" {
		t.Errorf("RedoDescription() = %q, want %q", desc, "ok")
	}
}

func TestMementoRoundTrip(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)

	ctx.label = "before"
	err := mgr.AddStep("step", ops(Reversible(
		func(c *counter) error { c.value++; c.label = "after"; return nil },
		func(c *counter) error { c.value--; return nil },
	)))
	if err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if ctx.label != "after" {
		t.Errorf("label after AddStep = %q, want %q", ctx.label, "after")
	}

	ctx.label = "scrolled"
	mustUndo(t, mgr)
	if ctx.label != "before" || ctx.value != 0 {
		t.Errorf("after Undo label, value = %q, %d, want %q, 0", ctx.label, ctx.value, "before")
	}

	mustRedo(t, mgr)
	if ctx.label != "after" || ctx.value != 1 {
		t.Errorf("after Redo label, value = %q, %d, want %q, 1", ctx.label, ctx.value, "after")
	}
}

func TestWithBeforeAndFinisher(t *testing.T) {
	mgr, ctx, strategy := newTestManager(t)

	ctx.label = "earlier"
	saved, err := mgr.CreateMemento()
	if err != nil {
		t.Fatalf("CreateMemento() error = %v", err)
	}
	ctx.label = "now"

	var finished *snapshot
	err = mgr.AddStep("step", ops(&addOp{delta: 1}),
		WithBefore(saved),
		WithFinisher(func(after *snapshot) {
			finished = after
			after.label = "annotated"
		}),
	)
	if err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if finished == nil {
		t.Fatal("finisher was not called")
	}
	// An explicit before memento is not captured again
	if strategy.creates != 2 {
		t.Errorf("mementos created = %d, want 2", strategy.creates)
	}

	mustUndo(t, mgr)
	if ctx.label != "earlier" {
		t.Errorf("label after Undo = %q, want %q", ctx.label, "earlier")
	}

	mustRedo(t, mgr)
	if ctx.label != "annotated" {
		t.Errorf("label after Redo = %q, want %q", ctx.label, "annotated")
	}
}

func TestUndoFailureLeavesStepMoved(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	stuck := errors.New("stuck")

	if err := mgr.AddStep("bad", ops(&addOp{delta: 1, failUnapply: stuck})); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}

	if err := mgr.Undo(); !errors.Is(err, stuck) {
		t.Errorf("Undo() error = %v, want %v", err, stuck)
	}
	checkAvailability(t, mgr, false, true)
}

func TestNotificationOrder(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	var got []string
	mgr.Subscribe(func(e notify.Event) {
		got = append(got, e.Signal.String())
	})

	tests := []struct {
		name string
		call func() error
		want []string
	}{
		{"add", func() error { return mgr.AddStep("s", ops(&addOp{delta: 1})) },
			[]string{"before-add", "can-undo-changed", "can-redo-changed", "changed", "after-add"}},
		{"undo", mgr.Undo,
			[]string{"before-undo", "can-undo-changed", "can-redo-changed", "changed", "after-undo"}},
		{"redo", mgr.Redo,
			[]string{"before-redo", "can-undo-changed", "can-redo-changed", "changed", "after-redo"}},
		{"clear", mgr.Clear,
			[]string{"can-undo-changed", "can-redo-changed", "changed"}},
	}
	for _, tt := range tests {
		got = nil
		if err := tt.call(); err != nil {
			t.Fatalf("%s error = %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s signals = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStateSignalsOnlyWhenHistoryChanges(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		opts []Option
		// prepare runs before signals are recorded
		prepare func(*Manager[*counter, *snapshot])
		call    func(*Manager[*counter, *snapshot]) error
		wantErr error
		want    []string
	}{
		{
			name: "dropped failed add",
			opts: []Option{WithDropFailedSteps(true)},
			call: func(m *Manager[*counter, *snapshot]) error {
				return m.AddStep("broken", ops(&addOp{delta: 1, failApply: boom}))
			},
			wantErr: boom,
			want:    []string{"before-add", "after-add"},
		},
		{
			name: "kept failed add",
			call: func(m *Manager[*counter, *snapshot]) error {
				return m.AddStep("broken", ops(&addOp{delta: 1, failApply: boom}))
			},
			wantErr: boom,
			want:    []string{"before-add", "can-undo-changed", "can-redo-changed", "changed", "after-add"},
		},
		{
			name: "dropped failed add with redo history",
			opts: []Option{WithDropFailedSteps(true)},
			prepare: func(m *Manager[*counter, *snapshot]) {
				_ = m.Add(&addOp{delta: 1})
				_ = m.Undo()
			},
			call: func(m *Manager[*counter, *snapshot]) error {
				return m.AddStep("broken", ops(&addOp{delta: 1, failPrepare: boom}))
			},
			wantErr: boom,
			want:    []string{"before-add", "after-add"},
		},
		{
			name: "failed undo moves the step",
			prepare: func(m *Manager[*counter, *snapshot]) {
				_ = m.Add(&addOp{delta: 1, failUnapply: boom})
			},
			call:    func(m *Manager[*counter, *snapshot]) error { return m.Undo() },
			wantErr: boom,
			want:    []string{"before-undo", "can-undo-changed", "can-redo-changed", "changed", "after-undo"},
		},
		{
			name: "clear on empty history",
			call: func(m *Manager[*counter, *snapshot]) error { return m.Clear() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, _, _ := newTestManager(t, tt.opts...)
			if tt.prepare != nil {
				tt.prepare(mgr)
			}

			var got []string
			var afterErr error
			mgr.Subscribe(func(e notify.Event) {
				got = append(got, e.Signal.String())
				if e.Err != nil {
					afterErr = e.Err
				}
			})

			if err := tt.call(mgr); !errors.Is(err, tt.wantErr) {
				t.Fatalf("call error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("signals = %v, want %v", got, tt.want)
			}
			if !errors.Is(afterErr, tt.wantErr) {
				t.Errorf("After event Err = %v, want %v", afterErr, tt.wantErr)
			}
		})
	}
}

func TestFailedBeforeMementoSignalsNoStateChange(t *testing.T) {
	boom := errors.New("snapshot failed")
	strategy := MementoFuncs[*counter, int]{
		Create: func(*counter) (int, error) { return 0, boom },
	}
	mgr, err := NewManager[*counter, int](&counter{}, strategy)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var got []string
	mgr.Subscribe(func(e notify.Event) { got = append(got, e.Signal.String()) })

	if err := mgr.Add(&addOp{delta: 1}); !errors.Is(err, boom) {
		t.Fatalf("Add() error = %v, want %v", err, boom)
	}
	if want := []string{"before-add", "after-add"}; !slices.Equal(got, want) {
		t.Errorf("signals = %v, want %v", got, want)
	}
}

func TestAfterAddFiresOnFailure(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	boom := errors.New("boom")

	var after *notify.Event
	mgr.SubscribeSignal(notify.AfterAdd, func(e notify.Event) { after = &e })

	if err := mgr.AddStep("broken", ops(&addOp{delta: 1, failApply: boom})); !errors.Is(err, boom) {
		t.Fatalf("AddStep() error = %v, want %v", err, boom)
	}
	if after == nil {
		t.Fatal("AfterAdd was not emitted")
	}
	if !errors.Is(after.Err, boom) {
		t.Errorf("AfterAdd Err = %v, want %v", after.Err, boom)
	}
	if after.Description != "broken" {
		t.Errorf("AfterAdd Description = %q, want %q", after.Description, "broken")
	}
}

func TestEventAvailability(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	var canUndo, canRedo []bool
	mgr.SubscribeSignal(notify.Changed, func(e notify.Event) {
		canUndo = append(canUndo, e.CanUndo)
		canRedo = append(canRedo, e.CanRedo)
	})

	if err := mgr.Add(&addOp{delta: 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	mustUndo(t, mgr)

	if want := []bool{true, false}; !slices.Equal(canUndo, want) {
		t.Errorf("CanUndo in events = %v, want %v", canUndo, want)
	}
	if want := []bool{false, true}; !slices.Equal(canRedo, want) {
		t.Errorf("CanRedo in events = %v, want %v", canRedo, want)
	}
}

func TestReentrantCallRejected(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	var inner error
	nested := OperatorFuncs[*counter]{
		OnApply: func(*counter) error {
			inner = mgr.Add(&addOp{delta: 1})
			return nil
		},
	}

	if err := mgr.AddStep("outer", ops(nested)); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if !errors.Is(inner, ErrReentrantCall) {
		t.Errorf("nested Add() error = %v, want ErrReentrantCall", inner)
	}
	if got := mgr.UndoCount(); got != 1 {
		t.Errorf("UndoCount() = %d, want 1", got)
	}

	// Observers of After* signals may drive the manager again
	var undoErr error
	sub := mgr.SubscribeSignal(notify.AfterAdd, func(notify.Event) {
		undoErr = mgr.Undo()
	})
	if err := mgr.Add(&addOp{delta: 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	sub.Unsubscribe()
	if undoErr != nil {
		t.Errorf("Undo() from observer error = %v", undoErr)
	}
	if mgr.UndoCount() != 1 || mgr.RedoCount() != 1 {
		t.Errorf("UndoCount, RedoCount = %d, %d, want 1, 1", mgr.UndoCount(), mgr.RedoCount())
	}
}

func TestDescriptions(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	if _, ok := mgr.UndoDescription(); ok {
		t.Error("UndoDescription() ok on empty history")
	}
	if _, ok := mgr.RedoDescription(); ok {
		t.Error("RedoDescription() ok on empty history")
	}

	mustAdd(t, mgr, "first")
	mustAdd(t, mgr, "second")
	mustUndo(t, mgr)

	if undo, ok := mgr.UndoDescription(); !ok || undo != "first" {
		t.Errorf("UndoDescription() = %q, %v, want %q, true", undo, ok, "first")
	}
	if redo, ok := mgr.RedoDescription(); !ok || redo != "second" {
		t.Errorf("RedoDescription() = %q, %v, want %q, true", redo, ok, "second")
	}

	e, ok := mgr.PeekRedo()
	if !ok {
		t.Fatal("PeekRedo() ok = false")
	}
	if e.Kind != EntryUnapplied || e.Operators != 1 {
		t.Errorf("PeekRedo() = %v with %d operators, want unapplied with 1", e.Kind, e.Operators)
	}
}

func TestHistoryOrder(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	for _, name := range []string{"a", "b", "c", "d"} {
		mustAdd(t, mgr, name)
	}
	mustUndo(t, mgr) // d
	mustUndo(t, mgr) // c

	if got, want := descriptions(mgr.Entries()), []string{"a", "b", "|", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	var kinds []EntryKind
	for e := range mgr.History() {
		kinds = append(kinds, e.Kind)
	}
	want := []EntryKind{EntryApplied, EntryApplied, EntryCurrent, EntryUnapplied, EntryUnapplied}
	if !slices.Equal(kinds, want) {
		t.Errorf("History() kinds = %v, want %v", kinds, want)
	}
}

func TestHistoryEarlyStop(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	mustAdd(t, mgr, "a")
	mustAdd(t, mgr, "b")

	var seen []string
	for e := range mgr.History() {
		seen = append(seen, e.Description)
		break
	}
	if want := []string{"a"}; !slices.Equal(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestHistoryEmpty(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	entries := mgr.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(Entries()) = %d, want 1", len(entries))
	}
	if !entries[0].IsCurrent() {
		t.Errorf("Entries()[0].Kind = %v, want current", entries[0].Kind)
	}
}

func TestHistoryIsReadOnly(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	mustAdd(t, mgr, "a")

	for range mgr.History() {
	}
	for range mgr.History() {
	}

	if mgr.UndoCount() != 1 || mgr.RedoCount() != 0 {
		t.Errorf("UndoCount, RedoCount = %d, %d, want 1, 0", mgr.UndoCount(), mgr.RedoCount())
	}
}

func TestClear(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)
	op := &addOp{delta: 1}

	if err := mgr.Add(op); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	mustAdd(t, mgr, "second")
	mustUndo(t, mgr)

	if err := mgr.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	checkAvailability(t, mgr, false, false)
	// Clear must not touch the context
	if ctx.value != 1 {
		t.Errorf("value = %d, want 1", ctx.value)
	}
	if op.unapplies != 0 {
		t.Errorf("unapplies = %d, want 0", op.unapplies)
	}
}

func TestStepOperatorsAreCopied(t *testing.T) {
	mgr, ctx, _ := newTestManager(t)

	list := ops(&addOp{delta: 1})
	if err := mgr.AddStep("a", list); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	list[0] = &addOp{delta: 100}

	mustUndo(t, mgr)
	if ctx.value != 0 {
		t.Errorf("value = %d, want 0", ctx.value)
	}
}

func TestNoMemento(t *testing.T) {
	n := 0
	mgr, err := NewManager[*int, struct{}](&n, NoMemento[*int]{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	inc := Reversible(
		func(p *int) error { *p++; return nil },
		func(p *int) error { *p--; return nil },
	)
	if err := mgr.AddStep("inc", []Operator[*int]{inc}); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if err := mgr.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}

func TestMementoFuncsFailure(t *testing.T) {
	boom := errors.New("snapshot failed")
	strategy := MementoFuncs[*counter, int]{
		Create: func(*counter) (int, error) { return 0, boom },
	}

	mgr, err := NewManager[*counter, int](&counter{}, strategy)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if err := mgr.Add(&addOp{delta: 1}); !errors.Is(err, boom) {
		t.Errorf("Add() error = %v, want %v", err, boom)
	}
	// No step is recorded when the before memento cannot be captured
	if mgr.CanUndo() {
		t.Error("CanUndo() = true, want false")
	}
}

func TestEntryKindString(t *testing.T) {
	tests := []struct {
		kind EntryKind
		want string
	}{
		{EntryApplied, "applied"},
		{EntryCurrent, "current"},
		{EntryUnapplied, "unapplied"},
		{EntryKind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EntryKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
