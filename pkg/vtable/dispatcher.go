// Package vtable implements a runtime multiple-dispatch registry. It lets
// externally defined operations be applied to values from a fixed type
// hierarchy, selecting the handler by the value's exact dynamic type,
// without the hierarchy knowing about the operations in advance.
//
// A hierarchy participates by declaring a base interface; every concrete
// type dispatched against it receives a dense integer tag on first touch.
// Operations are registered per (context, base family, result type) scope
// during an explicit bootstrap phase; Freeze ends that phase, after which
// Call is safe for concurrent use from multiple goroutines.
package vtable

import (
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/dispatch/internal/observability/log"
)

// Dispatcher is an explicitly constructed, process-scoped dispatch
// registry. It owns one Family per base interface type and one scope per
// (context, family, result type) triple. There are no hidden singletons;
// tests can build isolated dispatchers freely.
type Dispatcher struct {
	mu        sync.RWMutex
	logger    log.Log
	mode      fallbackMode
	frozen    bool
	families  map[reflect.Type]*Family
	scopes    map[uint64]*scope
	observers []Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for registration and freeze events.
func WithLogger(l log.Log) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithSnapshotFallback reproduces the legacy table semantics: growth
// backfills new slots with a snapshot of the base default entry, and a
// default registered after a subtype's slot was created is not picked up
// by that slot. The default mode resolves fallback lazily at dispatch
// time instead.
func WithSnapshotFallback() Option {
	return func(d *Dispatcher) { d.mode = fallbackSnapshot }
}

// WithObserver attaches observers for registration and dispatch events.
func WithObserver(obs ...Observer) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, obs...) }
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		families: make(map[reflect.Type]*Family),
		scopes:   make(map[uint64]*scope),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewNop()
	}
	return d
}

// FamilyOf returns the dispatcher's tag namespace for base type B,
// creating it on first use.
func FamilyOf[B any](d *Dispatcher) (*Family, error) {
	base := typeOf[B]()
	if base.Kind() != reflect.Interface {
		return nil, newError(ErrorCodeInvalidFamily, "base family "+base.String()+" is not an interface type", ErrInvalidFamily)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.familyLocked(base), nil
}

func (d *Dispatcher) familyLocked(base reflect.Type) *Family {
	if f, ok := d.families[base]; ok {
		return f
	}
	f := &Family{
		name: base.String(),
		base: base,
		tags: make(map[reflect.Type]Tag),
	}
	d.families[base] = f
	return f
}

func (d *Dispatcher) scopeLocked(ctx reflect.Type, fam *Family, result reflect.Type) *scope {
	key := scopeKey(ctx, fam.Base(), result)
	if sc, ok := d.scopes[key]; ok {
		return sc
	}
	sc := newScope(key, ctx.String(), result.String(), fam, d.mode)
	d.scopes[key] = sc
	return sc
}

// scopeKey hashes the (context, base, result) type names into the key of
// one dispatch scope.
func scopeKey(ctx, base, result reflect.Type) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(ctx.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(base.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(result.String())
	return h.Sum64()
}

// Register binds op's handler h to operands of concrete type D within the
// scope (C, family of B, R). It constructs the type-erased entry point,
// assigns D's tag, installs the entry into the scope's table and the
// instance into its registry, and validates that both slots stay
// coherent. Registering the base type B itself as D fills the family's
// default/fallback slot. A second registration for the same tag wins and
// is reported through the logger and observers.
//
// Register must complete before the first Call that can observe the tag;
// after Freeze it fails with ErrFrozen.
func Register[C, B any, O Operation, D, R any](d *Dispatcher, op O, h func(O, D) (R, error)) error {
	ctxT, baseT, tgtT := typeOf[C](), typeOf[B](), typeOf[D]()
	resT := typeOf[R]()
	if baseT.Kind() != reflect.Interface {
		return newError(ErrorCodeInvalidFamily, "base family "+baseT.String()+" is not an interface type", ErrInvalidFamily)
	}
	if tgtT != baseT && !tgtT.Implements(baseT) {
		return newError(ErrorCodeNotOperand, "target "+tgtT.String()+" does not implement "+baseT.String(), ErrNotOperand)
	}
	entry := bind(h)

	d.mu.Lock()
	if d.frozen {
		d.mu.Unlock()
		return newError(ErrorCodeFrozen, "cannot register "+op.Name()+" after freeze", ErrFrozen)
	}
	fam := d.familyLocked(baseT)
	tag := fam.TagOf(tgtT)
	sc := d.scopeLocked(ctxT, fam, resT)
	prev, overridden := sc.install(tag, entry, op)
	err := sc.checkCoherence(tag)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	ev := RegistrationEvent{
		Context:   ctxT.String(),
		Family:    fam.Name(),
		Result:    resT.String(),
		Tag:       tag,
		Target:    tgtT.String(),
		Operation: op.Name(),
		Override:  overridden,
		Previous:  prev.operation,
		Default:   tgtT == baseT,
	}
	if overridden {
		d.logger.Warn("dispatch registration overridden",
			log.String("family", fam.Name()),
			log.String("target", tgtT.String()),
			log.String("operation", op.Name()),
			log.String("previous", prev.operation),
			log.Uint32("tag", uint32(tag)))
	} else {
		d.logger.Debug("dispatch registration",
			log.String("family", fam.Name()),
			log.String("target", tgtT.String()),
			log.String("operation", op.Name()),
			log.Uint32("tag", uint32(tag)))
	}
	d.notifyRegister(ev)
	return nil
}

// RegisterDefault binds op's handler to the family's own base type,
// filling the default/fallback slot consulted for tags with no direct
// registration.
func RegisterDefault[C, B any, O Operation, R any](d *Dispatcher, op O, h func(O, B) (R, error)) error {
	return Register[C, B, O, B, R](d, op, h)
}

// Call dispatches operand within the scope (C, family of B, R). It
// resolves the operand's dynamic tag, looks up the table entry and the
// operation instance for it, and invokes the entry point, which narrows
// both sides and runs the subtype handler. Tags with no direct
// registration fall back to the base default slot according to the
// dispatcher's fallback mode. A tag with neither yields an error wrapping
// ErrUnregisteredSubtype.
func Call[C, B, R any](d *Dispatcher, operand B) (R, error) {
	var zero R
	ctxT, baseT, resT := typeOf[C](), typeOf[B](), typeOf[R]()

	d.mu.RLock()
	sc := d.scopes[scopeKey(ctxT, baseT, resT)]
	d.mu.RUnlock()
	if sc == nil {
		return zero, newError(ErrorCodeUnregisteredSubtype,
			"no operations registered for scope ("+ctxT.String()+", "+baseT.String()+", "+resT.String()+")",
			ErrUnregisteredSubtype)
	}

	tag := sc.family.TagFor(operand)
	if tag == TagNone {
		return zero, newError(ErrorCodeNilOperand, "dispatch of nil operand in family "+sc.family.Name(), ErrNilOperand)
	}

	d.mu.RLock()
	entry, op, fellBack, err := sc.resolve(tag)
	d.mu.RUnlock()

	start := time.Now()
	var out any
	if err == nil {
		out, err = entry.invoke(op, operand)
	}

	if len(d.observers) > 0 {
		ev := DispatchEvent{
			Context:  ctxT.String(),
			Family:   sc.family.Name(),
			Result:   resT.String(),
			Tag:      tag,
			Operand:  reflect.TypeOf(operand).String(),
			Fallback: fellBack,
			Err:      err,
			Duration: time.Since(start),
		}
		if op != nil {
			ev.Operation = op.Name()
		}
		d.notifyDispatch(ev)
	}

	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	r, ok := out.(R)
	if !ok {
		return zero, newError(ErrorCodeResultMismatch,
			"operation returned "+reflect.TypeOf(out).String()+", scope expects "+resT.String(),
			ErrResultMismatch)
	}
	return r, nil
}

// Freeze ends the registration phase. Subsequent registrations fail with
// ErrFrozen; dispatch becomes safe for concurrent readers.
func (d *Dispatcher) Freeze() {
	d.mu.Lock()
	if d.frozen {
		d.mu.Unlock()
		return
	}
	d.frozen = true
	families, scopes := len(d.families), len(d.scopes)
	d.mu.Unlock()
	d.logger.Info("dispatch registry frozen",
		log.Int("families", families),
		log.Int("scopes", scopes))
}

// Frozen reports whether the registration phase has ended.
func (d *Dispatcher) Frozen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frozen
}

func (d *Dispatcher) notifyRegister(ev RegistrationEvent) {
	for _, obs := range d.observers {
		obs.OnRegister(ev)
	}
}

func (d *Dispatcher) notifyDispatch(ev DispatchEvent) {
	for _, obs := range d.observers {
		obs.OnDispatch(ev)
	}
}

// FamilyInfo is an introspection snapshot of one tag namespace.
type FamilyInfo struct {
	Name string         `json:"name"`
	Tags map[string]Tag `json:"tags"`
}

// BindingInfo is an introspection snapshot of one direct registration.
type BindingInfo struct {
	Tag       Tag    `json:"tag"`
	Target    string `json:"target"`
	Operation string `json:"operation"`
}

// ScopeInfo is an introspection snapshot of one dispatch scope.
type ScopeInfo struct {
	Context  string        `json:"context"`
	Family   string        `json:"family"`
	Result   string        `json:"result"`
	Bindings []BindingInfo `json:"bindings"`
}

// Families returns a snapshot of all tag namespaces, sorted by name.
func (d *Dispatcher) Families() []FamilyInfo {
	d.mu.RLock()
	fams := make([]*Family, 0, len(d.families))
	for _, f := range d.families {
		fams = append(fams, f)
	}
	d.mu.RUnlock()

	out := make([]FamilyInfo, 0, len(fams))
	for _, f := range fams {
		out = append(out, FamilyInfo{Name: f.Name(), Tags: f.Snapshot()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Scopes returns a snapshot of all dispatch scopes and their direct
// registrations, sorted for stable output.
func (d *Dispatcher) Scopes() []ScopeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ScopeInfo, 0, len(d.scopes))
	for _, sc := range d.scopes {
		info := ScopeInfo{
			Context:  sc.ctxName,
			Family:   sc.family.Name(),
			Result:   sc.resName,
			Bindings: make([]BindingInfo, 0, len(sc.bindings)),
		}
		for tag, b := range sc.bindings {
			info.Bindings = append(info.Bindings, BindingInfo{Tag: tag, Target: b.target, Operation: b.operation})
		}
		sort.Slice(info.Bindings, func(i, j int) bool { return info.Bindings[i].Tag < info.Bindings[j].Tag })
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		if out[i].Context != out[j].Context {
			return out[i].Context < out[j].Context
		}
		return out[i].Result < out[j].Result
	})
	return out
}
