package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stepwise/internal/logging"
)

// DefaultExecutionTimeout bounds each chunk or operator method run by a State.
const DefaultExecutionTimeout = 5 * time.Second

// State owns one sandboxed Lua interpreter shared by the operators created
// from it.
//
// gopher-lua is single-threaded; every entry point takes mu, so operators
// from one State may be used from different goroutines but never
// concurrently with each other.
type State struct {
	L  *lua.LState
	mu sync.Mutex

	timeout time.Duration
	log     *logging.Logger
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout bounds every call into Lua. Zero or a negative
// duration disables the bound.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithLogger routes print output to log at info level.
func WithLogger(log *logging.Logger) StateOption {
	return func(s *State) {
		if log != nil {
			s.log = log
		}
	}
}

// NewState creates an interpreter with only the safe standard libraries.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{
		timeout: DefaultExecutionTimeout,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	installSandbox(s.L, s.log.WithComponent("lua"))
	return s, nil
}

// DoString runs a chunk of Lua source, typically operator definitions.
func (s *State) DoString(source string) error {
	return s.do(func() error { return s.L.DoString(source) })
}

// DoFile runs the Lua file at path.
func (s *State) DoFile(path string) error {
	return s.do(func() error { return s.L.DoFile(path) })
}

func (s *State) do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.run(fn)
}

// Global returns the value of a global, or nil once the state is closed.
func (s *State) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// Close shuts the interpreter down. Operators created from the state fail
// with ErrStateClosed afterwards. Closing twice is a no-op.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.L.Close()
	}
	return nil
}

// call invokes fn with args in protected mode and returns every result.
// The caller holds mu.
func (s *State) call(fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	base := s.L.GetTop()

	err := s.run(func() error {
		s.L.Push(fn)
		for _, a := range args {
			s.L.Push(a)
		}
		return s.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		s.L.SetTop(base)
		return nil, err
	}

	n := s.L.GetTop() - base
	results := make([]lua.LValue, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		results = append(results, s.L.Get(base+i))
	}
	s.L.SetTop(base)
	return results, nil
}

// run executes fn with the timeout attached to the interpreter. A Go panic
// raised by a binding is returned as an error.
func (s *State) run(fn func() error) (err error) {
	if s.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.L.SetContext(ctx)
		defer func() {
			s.L.RemoveContext()
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w after %s", ErrExecutionTimeout, s.timeout)
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
