package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Binder converts the history context into the value passed to Lua
// operator methods.
type Binder[C any] func(L *lua.LState, ctx C) lua.LValue

// Operator is a history operator implemented by a Lua table.
type Operator[C any] struct {
	state *State
	name  string
	bind  Binder[C]
	self  *lua.LTable
}

// NewOperator creates an operator from the global definition name. A table
// is used as is; a function is called with no arguments and must return the
// table. The table must have apply and unapply functions.
func NewOperator[C any](s *State, name string, bind Binder[C]) (*Operator[C], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &Error{Operator: name, Phase: PhaseCreate, Err: ErrStateClosed}
	}

	def := s.L.GetGlobal(name)
	var self *lua.LTable
	switch v := def.(type) {
	case *lua.LTable:
		self = v
	case *lua.LFunction:
		results, err := s.call(v)
		if err != nil {
			return nil, &Error{Operator: name, Phase: PhaseCreate, Err: err}
		}
		if len(results) == 0 {
			return nil, &Error{Operator: name, Phase: PhaseCreate, Err: fmt.Errorf("%w: factory returned nothing", ErrInvalidOperator)}
		}
		tbl, ok := results[0].(*lua.LTable)
		if !ok {
			return nil, &Error{Operator: name, Phase: PhaseCreate, Err: fmt.Errorf("%w: factory returned %s", ErrInvalidOperator, results[0].Type())}
		}
		self = tbl
	default:
		if def == lua.LNil {
			return nil, &Error{Operator: name, Phase: PhaseCreate, Err: ErrNotFound}
		}
		return nil, &Error{Operator: name, Phase: PhaseCreate, Err: fmt.Errorf("%w: global is %s", ErrInvalidOperator, def.Type())}
	}

	for _, method := range []Phase{PhaseApply, PhaseUnapply} {
		if self.RawGetString(string(method)).Type() != lua.LTFunction {
			return nil, &Error{Operator: name, Phase: PhaseCreate, Err: fmt.Errorf("%w: missing %s function", ErrInvalidOperator, method)}
		}
	}

	return &Operator[C]{
		state: s,
		name:  name,
		bind:  bind,
		self:  self,
	}, nil
}

// Name returns the global the operator was created from.
func (o *Operator[C]) Name() string {
	return o.name
}

// Description returns the table's description field, or the operator name.
func (o *Operator[C]) Description() string {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()

	if d, ok := o.self.RawGetString("description").(lua.LString); ok {
		return string(d)
	}
	return o.name
}

// Prepare calls the table's prepare function if it has one.
func (o *Operator[C]) Prepare(ctx C) error {
	return o.invoke(PhasePrepare, ctx, true)
}

// Apply calls the table's apply function.
func (o *Operator[C]) Apply(ctx C) error {
	return o.invoke(PhaseApply, ctx, false)
}

// Unapply calls the table's unapply function.
func (o *Operator[C]) Unapply(ctx C) error {
	return o.invoke(PhaseUnapply, ctx, false)
}

func (o *Operator[C]) invoke(phase Phase, ctx C, optional bool) error {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()

	if o.state.closed {
		return &Error{Operator: o.name, Phase: phase, Err: ErrStateClosed}
	}

	fn := o.self.RawGetString(string(phase))
	if fn.Type() != lua.LTFunction {
		if optional {
			return nil
		}
		return &Error{Operator: o.name, Phase: phase, Err: fmt.Errorf("%w: missing %s function", ErrInvalidOperator, phase)}
	}

	var arg lua.LValue = lua.LNil
	if o.bind != nil {
		arg = o.bind(o.state.L, ctx)
	}
	if _, err := o.state.call(fn, o.self, arg); err != nil {
		return &Error{Operator: o.name, Phase: phase, Err: err}
	}
	return nil
}
