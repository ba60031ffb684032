package vtable

import "reflect"

// Operation is a singleton handler set applied to operands of one base
// family. Exactly one instance exists per concrete operation type and per
// dispatcher; the dispatcher's registry owns it for the dispatcher's
// lifetime. Implementations hold no per-call state.
type Operation interface {
	// Name returns a short identifier used in logs, traces and
	// introspection snapshots.
	Name() string
}

// tableEntry is a type-erased entry point stored in a scope's table. At
// invoke time it narrows the operation instance to its concrete type and
// the operand to the registered target type before calling the handler.
type tableEntry struct {
	opType reflect.Type
	target reflect.Type
	invoke func(op Operation, operand any) (any, error)
}

// bind builds the entry point for a handler of operation type O applied
// to target type D. The two assertions inside invoke are the double
// dispatch: first the operation is narrowed, then the operand.
func bind[O Operation, D, R any](h func(O, D) (R, error)) *tableEntry {
	opType := typeOf[O]()
	target := typeOf[D]()
	return &tableEntry{
		opType: opType,
		target: target,
		invoke: func(op Operation, operand any) (any, error) {
			concrete, ok := op.(O)
			if !ok {
				return nil, newError(ErrorCodeIncoherentBinding,
					"operation instance "+reflect.TypeOf(op).String()+" is not "+opType.String(),
					ErrIncoherentBinding)
			}
			narrowed, ok := operand.(D)
			if !ok {
				return nil, newError(ErrorCodeNotOperand,
					"operand "+reflect.TypeOf(operand).String()+" is not "+target.String(),
					ErrNotOperand)
			}
			return h(concrete, narrowed)
		},
	}
}
