package vtable

import (
	"reflect"
	"sync"
)

// Tag is a process-run-local identifier for a concrete type within one
// base family. Tags are dense, start at 1, and are assigned in first-touch
// order; they are not stable across runs or registration orders and must
// never be persisted.
type Tag uint32

// TagNone is the reserved "unassigned" tag.
const TagNone Tag = 0

// Family is the tag namespace shared by a base interface type and every
// concrete type dispatched against it. The base type's own tag doubles as
// the default/fallback slot.
//
// All methods are safe for concurrent use.
type Family struct {
	name string
	base reflect.Type

	mu   sync.Mutex
	next Tag
	tags map[reflect.Type]Tag
}

// NewFamily creates a tag namespace for the base interface type B.
func NewFamily[B any](name string) (*Family, error) {
	base := typeOf[B]()
	if base.Kind() != reflect.Interface {
		return nil, newError(ErrorCodeInvalidFamily, "base family "+name+" is not an interface type", ErrInvalidFamily)
	}
	return &Family{
		name: name,
		base: base,
		tags: make(map[reflect.Type]Tag),
	}, nil
}

// Name returns the family name used in logs and introspection.
func (f *Family) Name() string { return f.name }

// Base returns the family's base interface type.
func (f *Family) Base() reflect.Type { return f.base }

// TagOf returns the tag for t, allocating the next free tag on first use.
// Repeated calls for the same type always return the same value, and no
// two distinct types in the family ever share a tag.
func (f *Family) TagOf(t reflect.Type) Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tag, ok := f.tags[t]; ok {
		return tag
	}
	f.next++
	f.tags[t] = f.next
	return f.next
}

// BaseTag returns the tag of the base type itself, the default/fallback
// slot. Like any other tag it is allocated on first touch.
func (f *Family) BaseTag() Tag {
	return f.TagOf(f.base)
}

// TagFor resolves the dynamic tag of an operand: the tag of its true,
// most-derived concrete type as carried by the interface value. A nil
// operand yields TagNone.
func (f *Family) TagFor(v any) Tag {
	t := reflect.TypeOf(v)
	if t == nil {
		return TagNone
	}
	return f.TagOf(t)
}

// Lookup reports the tag already assigned to t, without allocating one.
func (f *Family) Lookup(t reflect.Type) (Tag, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag, ok := f.tags[t]
	return tag, ok
}

// Len returns the number of tags assigned so far.
func (f *Family) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tags)
}

// Snapshot returns a copy of the type-name-to-tag mapping.
func (f *Family) Snapshot() map[string]Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Tag, len(f.tags))
	for t, tag := range f.tags {
		out[t.String()] = tag
	}
	return out
}

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
