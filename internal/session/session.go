// Package session replays scripted editing sessions against a text editor.
//
// A session is a YAML document with the initial text, optional Lua
// definitions and a list of steps:
//
//	text: "hello"
//	lua: |
//	  shout = { apply = function(self, ed) ... end, unapply = ... }
//	steps:
//	  - op: insert
//	    offset: 5
//	    text: " world"
//	  - op: undo
//	  - op: lua
//	    name: shout
//	  - op: batch
//	    description: Wrap
//	    steps:
//	      - {op: insert, offset: 0, text: "["}
//	      - {op: insert, offset: 6, text: "]"}
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpInsert    = "insert"
	OpDelete    = "delete"
	OpReplace   = "replace"
	OpType      = "type"
	OpBackspace = "backspace"
	OpMove      = "move"
	OpSelect    = "select"
	OpUndo      = "undo"
	OpRedo      = "redo"
	OpClear     = "clear"
	OpLua       = "lua"
	OpBatch     = "batch"

	// OpCheckpoint records the current position under Name; OpRewind
	// undoes back to it.
	OpCheckpoint = "checkpoint"
	OpRewind     = "rewind"
)

// ErrUnknownOp is returned for a step with an unrecognized op.
var ErrUnknownOp = errors.New("unknown step op")

// Session is a parsed replay script.
type Session struct {
	// Text is the initial document text.
	Text string `yaml:"text"`
	// Lua is Lua source defining operators, run before the first step.
	Lua string `yaml:"lua"`
	// LuaFiles are Lua files run after Lua.
	LuaFiles []string `yaml:"luaFiles"`
	// MaxSteps overrides the configured retention limit when positive.
	MaxSteps int `yaml:"maxSteps"`
	// Steps are executed in order.
	Steps []Step `yaml:"steps"`
}

// Step is one action in a session.
type Step struct {
	Op          string `yaml:"op"`
	Description string `yaml:"description"`

	Offset int    `yaml:"offset"`
	Start  int    `yaml:"start"`
	End    int    `yaml:"end"`
	Text   string `yaml:"text"`

	// Name is the Lua global defining the operator for op lua, or the
	// checkpoint name for checkpoint and rewind.
	Name string `yaml:"name"`

	// Steps are the edits combined by op batch.
	Steps []Step `yaml:"steps"`

	// ExpectError marks a step that must fail.
	ExpectError bool `yaml:"expectError"`
}

// Parse reads a session document. Unknown fields are rejected.
func Parse(r io.Reader) (*Session, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Session
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Session) validate() error {
	return validateSteps(s.Steps, false)
}

func validateSteps(steps []Step, nested bool) error {
	for i, st := range steps {
		switch st.Op {
		case OpInsert, OpDelete, OpReplace, OpType, OpBackspace, OpLua:
		case OpMove, OpSelect, OpUndo, OpRedo, OpClear, OpBatch, OpCheckpoint, OpRewind:
			if nested {
				return fmt.Errorf("step %d: %q is not allowed inside a batch", i+1, st.Op)
			}
			if st.Op == OpBatch {
				if err := validateSteps(st.Steps, true); err != nil {
					return fmt.Errorf("batch step %d: %w", i+1, err)
				}
			}
		default:
			return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownOp, st.Op)
		}
		if st.Name == "" && (st.Op == OpLua || st.Op == OpCheckpoint || st.Op == OpRewind) {
			return fmt.Errorf("step %d: %s step needs a name", i+1, st.Op)
		}
	}
	return nil
}
