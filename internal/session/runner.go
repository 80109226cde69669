package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/stepwise/internal/engine/history"
	"github.com/dshills/stepwise/internal/logging"
	"github.com/dshills/stepwise/internal/script"
	"github.com/dshills/stepwise/internal/textdoc"
)

// ErrExpectedFailure is returned when a step marked expectError succeeds.
var ErrExpectedFailure = errors.New("step was expected to fail")

// Options configures a Runner.
type Options struct {
	// History options passed to the manager.
	History []history.Option
	// ScriptTimeout bounds each Lua call.
	ScriptTimeout time.Duration
	// Log receives step progress at debug level.
	Log *logging.Logger
}

// Runner executes sessions against an editor.
type Runner struct {
	Editor  *textdoc.Editor
	Manager *textdoc.Manager

	lua         *script.State
	checkpoints map[string]history.Checkpoint
	log         *logging.Logger
}

// NewRunner prepares the editor, history and Lua state for s.
func NewRunner(s *Session, opts Options) (*Runner, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	hopts := append([]history.Option{history.WithLogger(log)}, opts.History...)
	if s.MaxSteps > 0 {
		hopts = append(hopts, history.WithMaxSteps(s.MaxSteps))
	}

	editor := textdoc.NewEditor(s.Text)
	mgr, err := textdoc.NewManager(editor, hopts...)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		Editor:      editor,
		Manager:     mgr,
		checkpoints: make(map[string]history.Checkpoint),
		log:         log.WithComponent("session"),
	}

	if s.Lua != "" || len(s.LuaFiles) > 0 {
		r.lua, err = script.NewState(
			script.WithExecutionTimeout(opts.ScriptTimeout),
			script.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		if s.Lua != "" {
			if err := r.lua.DoString(s.Lua); err != nil {
				r.Close()
				return nil, fmt.Errorf("loading session lua: %w", err)
			}
		}
		for _, path := range s.LuaFiles {
			if err := r.lua.DoFile(path); err != nil {
				r.Close()
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}

	return r, nil
}

// Close releases the Lua state. Lua steps still in history can no longer
// be undone or redone afterwards.
func (r *Runner) Close() error {
	if r.lua == nil {
		return nil
	}
	return r.lua.Close()
}

// Run executes the steps of s in order and stops at the first unexpected
// result.
func (r *Runner) Run(s *Session) error {
	for i, st := range s.Steps {
		err := r.exec(st)
		if st.ExpectError {
			if err == nil {
				return fmt.Errorf("step %d (%s): %w", i+1, st.Op, ErrExpectedFailure)
			}
			r.log.Debug("step %d (%s) failed as expected: %v", i+1, st.Op, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		r.log.Debug("step %d (%s) done", i+1, st.Op)
	}
	return nil
}

func (r *Runner) exec(st Step) error {
	switch st.Op {
	case OpUndo:
		return r.Manager.Undo()
	case OpRedo:
		return r.Manager.Redo()
	case OpClear:
		return r.Manager.Clear()
	case OpMove:
		r.Editor.MoveTo(st.Offset)
		return nil
	case OpSelect:
		r.Editor.Select(st.Start, st.End)
		return nil
	case OpCheckpoint:
		r.checkpoints[st.Name] = r.Manager.Checkpoint()
		return nil
	case OpRewind:
		cp, ok := r.checkpoints[st.Name]
		if !ok {
			return fmt.Errorf("%w: %q", history.ErrUnknownCheckpoint, st.Name)
		}
		return r.Manager.UndoToCheckpoint(cp)
	case OpBatch:
		return r.Manager.Transaction(st.Description, func(b *history.Batch[*textdoc.Editor, *textdoc.Cursor]) error {
			for _, nested := range st.Steps {
				op, err := r.batchOperator(nested)
				if err != nil {
					return err
				}
				if op == nil {
					continue
				}
				if err := b.Add(op); err != nil {
					return err
				}
			}
			return nil
		})
	}

	op, err := r.operator(st)
	if err != nil || op == nil {
		return err
	}
	desc := st.Description
	if desc == "" {
		desc = textdoc.Describe(op)
	}
	return r.Manager.AddStep(desc, []textdoc.Operator{op})
}

// batchOperator builds the operator for a step nested in a batch. Nothing is
// applied until the batch commits, so typing and backspace resolve the
// cursor when they are prepared instead of now.
func (r *Runner) batchOperator(st Step) (textdoc.Operator, error) {
	switch st.Op {
	case OpType:
		return textdoc.NewType(st.Text), nil
	case OpBackspace:
		return textdoc.NewBackspace(), nil
	}
	return r.operator(st)
}

// operator builds the operator for an editing step. Backspace at the start
// of the document yields nil.
func (r *Runner) operator(st Step) (textdoc.Operator, error) {
	switch st.Op {
	case OpInsert:
		return textdoc.NewInsert(st.Offset, st.Text), nil
	case OpDelete:
		return r.Editor.DeleteRange(textdoc.Range{Start: st.Start, End: st.End}), nil
	case OpReplace:
		return r.Editor.ReplaceRange(textdoc.Range{Start: st.Start, End: st.End}, st.Text), nil
	case OpType:
		return r.Editor.TypeText(st.Text), nil
	case OpBackspace:
		return r.Editor.Backspace(), nil
	case OpLua:
		if r.lua == nil {
			return nil, fmt.Errorf("lua operator %q: session defines no lua", st.Name)
		}
		op, err := script.NewOperator[*textdoc.Editor](r.lua, st.Name, script.BindEditor)
		if err != nil {
			return nil, err
		}
		return op, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
	}
}
