package history

// Operator is the atomic, reversible unit of change applied to a context.
//
// Prepare is called exactly once per operator, before its first Apply. It may
// have side effects outside the context (prompting, resolving resources) but
// must not mutate the context. Apply and Unapply are then called in strict
// alternation starting with Apply, any number of times, and must not require
// user interaction. Unapply exactly reverses the most recent Apply.
//
// An operator belongs to a single step and must not be submitted twice.
type Operator[C any] interface {
	Prepare(ctx C) error
	Apply(ctx C) error
	Unapply(ctx C) error
}

// OperatorFuncs adapts plain functions to the Operator interface.
// Nil functions are no-ops.
type OperatorFuncs[C any] struct {
	OnPrepare func(ctx C) error
	OnApply   func(ctx C) error
	OnUnapply func(ctx C) error
}

// Prepare calls OnPrepare.
func (o OperatorFuncs[C]) Prepare(ctx C) error {
	if o.OnPrepare == nil {
		return nil
	}
	return o.OnPrepare(ctx)
}

// Apply calls OnApply.
func (o OperatorFuncs[C]) Apply(ctx C) error {
	if o.OnApply == nil {
		return nil
	}
	return o.OnApply(ctx)
}

// Unapply calls OnUnapply.
func (o OperatorFuncs[C]) Unapply(ctx C) error {
	if o.OnUnapply == nil {
		return nil
	}
	return o.OnUnapply(ctx)
}

// Reversible builds an operator from an apply/unapply pair with no preparation.
func Reversible[C any](apply, unapply func(ctx C) error) Operator[C] {
	return OperatorFuncs[C]{OnApply: apply, OnUnapply: unapply}
}
