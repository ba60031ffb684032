package vtable

import (
	"reflect"
	"strconv"
)

// fallbackMode selects how unset tags resolve to the base default slot.
type fallbackMode uint8

const (
	// fallbackLazy consults the base slot's current entry at dispatch
	// time whenever a tag has no direct registration.
	fallbackLazy fallbackMode = iota
	// fallbackSnapshot reproduces the original table semantics: slots
	// created by growth capture the base entry as it was at growth time,
	// and out-of-range lookups redirect to the base slot.
	fallbackSnapshot
)

// binding records one direct registration, for override detection and
// introspection.
type binding struct {
	operation string
	target    string
}

// scope holds the operation table and the instance registry for one
// (context, base family, result type) triple. The table stores erased
// entry points; the registry stores the singleton operation instances.
// Both are dense slices indexed by tag.
type scope struct {
	key      uint64
	ctxName  string
	resName  string
	family   *Family
	mode     fallbackMode
	table    []*tableEntry
	registry []Operation
	bindings map[Tag]binding
}

func newScope(key uint64, ctxName, resName string, family *Family, mode fallbackMode) *scope {
	return &scope{
		key:      key,
		ctxName:  ctxName,
		resName:  resName,
		family:   family,
		mode:     mode,
		bindings: make(map[Tag]binding),
	}
}

// install writes the entry point and the instance at tag, growing both
// structures as needed, and returns the binding it replaced, if any.
// Last registration wins on both table and registry.
func (s *scope) install(tag Tag, e *tableEntry, op Operation) (prev binding, overridden bool) {
	idx := int(tag)
	if idx >= len(s.table) {
		s.growTable(idx + 1)
	}
	if idx >= len(s.registry) {
		grown := make([]Operation, idx+1)
		copy(grown, s.registry)
		s.registry = grown
	}
	s.table[idx] = e
	s.registry[idx] = op
	prev, overridden = s.bindings[tag]
	s.bindings[tag] = binding{operation: op.Name(), target: e.target.String()}
	return prev, overridden
}

// growTable extends the table to size n. In snapshot mode every new slot
// captures the base slot's entry as it is right now; later registrations
// against the base do not reach slots that already exist.
func (s *scope) growTable(n int) {
	grown := make([]*tableEntry, n)
	copy(grown, s.table)
	if s.mode == fallbackSnapshot {
		var def *tableEntry
		if bt := int(s.family.BaseTag()); bt < len(s.table) {
			def = s.table[bt]
		}
		for i := len(s.table); i < n; i++ {
			grown[i] = def
		}
	}
	s.table = grown
}

// checkCoherence verifies that the entry and the instance installed at
// tag describe the same operation. Called on every install, so a broken
// pairing is caught at registration time rather than at dispatch.
func (s *scope) checkCoherence(tag Tag) error {
	idx := int(tag)
	if idx >= len(s.table) || idx >= len(s.registry) || s.table[idx] == nil || s.registry[idx] == nil {
		return newError(ErrorCodeIncoherentBinding,
			"tag "+strconv.Itoa(idx)+" in family "+s.family.Name()+" has a dangling table or registry slot",
			ErrIncoherentBinding)
	}
	if reflect.TypeOf(s.registry[idx]) != s.table[idx].opType {
		return newError(ErrorCodeIncoherentBinding,
			"tag "+strconv.Itoa(idx)+" in family "+s.family.Name()+" binds instance "+
				reflect.TypeOf(s.registry[idx]).String()+" to entry for "+s.table[idx].opType.String(),
			ErrIncoherentBinding)
	}
	return nil
}

// resolve returns the entry point and instance to invoke for tag, with
// fallback to the base default slot according to the scope's mode.
func (s *scope) resolve(tag Tag) (*tableEntry, Operation, bool, error) {
	if s.mode == fallbackSnapshot {
		return s.resolveSnapshot(tag)
	}
	return s.resolveLazy(tag)
}

// resolveLazy ignores anything growth may have captured and always
// consults the base slot's current registration when tag has no direct
// entry.
func (s *scope) resolveLazy(tag Tag) (*tableEntry, Operation, bool, error) {
	idx := int(tag)
	if idx < len(s.table) && s.table[idx] != nil {
		return s.table[idx], s.registry[idx], false, nil
	}
	bt := int(s.family.BaseTag())
	if bt < len(s.table) && s.table[bt] != nil {
		return s.table[bt], s.registry[bt], true, nil
	}
	return nil, nil, false, s.errUnregistered(tag)
}

// resolveSnapshot preserves the original lookup rules: out-of-range tags
// redirect to the base slot, while in-range slots return whatever entry
// they captured at growth time. A captured base entry is paired with the
// base slot's instance, since growth never copies instances.
func (s *scope) resolveSnapshot(tag Tag) (*tableEntry, Operation, bool, error) {
	idx := int(tag)
	fellBack := false
	if idx >= len(s.table) {
		idx = int(s.family.BaseTag())
		fellBack = true
		if idx >= len(s.table) {
			return nil, nil, false, s.errUnregistered(tag)
		}
	}
	e := s.table[idx]
	if e == nil {
		return nil, nil, false, s.errUnregistered(tag)
	}
	op := s.registry[idx]
	if op == nil {
		fellBack = true
		if bt := int(s.family.BaseTag()); bt < len(s.registry) {
			op = s.registry[bt]
		}
	}
	if op == nil || reflect.TypeOf(op) != e.opType {
		return nil, nil, false, newError(ErrorCodeIncoherentBinding,
			"tag "+strconv.Itoa(int(tag))+" in family "+s.family.Name()+" resolved an entry without a matching instance",
			ErrIncoherentBinding)
	}
	return e, op, fellBack, nil
}

func (s *scope) errUnregistered(tag Tag) error {
	return newError(ErrorCodeUnregisteredSubtype,
		"no operation for tag "+strconv.Itoa(int(tag))+" in scope ("+s.ctxName+", "+s.family.Name()+", "+s.resName+")",
		ErrUnregisteredSubtype)
}
