package feed

import (
	"github.com/zeusync/dispatch/internal/events/bus"
	"github.com/zeusync/dispatch/internal/observability/log"
	"github.com/zeusync/dispatch/pkg/vtable"
)

// RegistrationRecord is the wire-friendly form of a registration event.
type RegistrationRecord struct {
	Context   string     `json:"context"`
	Family    string     `json:"family"`
	Result    string     `json:"result"`
	Tag       vtable.Tag `json:"tag"`
	Target    string     `json:"target"`
	Operation string     `json:"operation"`
	Override  bool       `json:"override,omitempty"`
	Previous  string     `json:"previous,omitempty"`
	Default   bool       `json:"default,omitempty"`
}

// DispatchRecord is the wire-friendly form of a dispatch event.
type DispatchRecord struct {
	Context    string     `json:"context"`
	Family     string     `json:"family"`
	Result     string     `json:"result"`
	Tag        vtable.Tag `json:"tag"`
	Operand    string     `json:"operand"`
	Operation  string     `json:"operation,omitempty"`
	Fallback   bool       `json:"fallback,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationUS int64      `json:"duration_us"`
}

var _ vtable.Observer = (*Feed)(nil)

// Feed forwards dispatcher events onto the event bus. Every event is
// published to the default topic and to a topic named after its base
// family, so consumers can follow one hierarchy or all of them.
type Feed struct {
	bus    bus.EventBus
	logger log.Log
	source string
}

// New creates a Feed publishing as the given source name.
func New(b bus.EventBus, logger log.Log, source string) *Feed {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Feed{bus: b, logger: logger, source: source}
}

func (f *Feed) OnRegister(e vtable.RegistrationEvent) {
	rec := RegistrationRecord{
		Context:   e.Context,
		Family:    e.Family,
		Result:    e.Result,
		Tag:       e.Tag,
		Target:    e.Target,
		Operation: e.Operation,
		Override:  e.Override,
		Previous:  e.Previous,
		Default:   e.Default,
	}
	f.publish(bus.TypeRegistration, e.Family, rec)
}

func (f *Feed) OnDispatch(e vtable.DispatchEvent) {
	rec := DispatchRecord{
		Context:    e.Context,
		Family:     e.Family,
		Result:     e.Result,
		Tag:        e.Tag,
		Operand:    e.Operand,
		Operation:  e.Operation,
		Fallback:   e.Fallback,
		DurationUS: e.Duration.Microseconds(),
	}
	if e.Err != nil {
		rec.Error = e.Err.Error()
	}
	f.publish(bus.TypeDispatch, e.Family, rec)
}

func (f *Feed) publish(typ, family string, data any) {
	ev := bus.NewEvent(typ, f.source, data, nil)
	if err := f.bus.Publish(ev); err != nil {
		f.logger.Warn("trace delivery failed", log.String("type", typ), log.Error(err))
	}
	if family == "" {
		return
	}
	if err := f.bus.PublishToTopic(family, ev); err != nil {
		f.logger.Warn("trace delivery failed", log.String("type", typ), log.String("topic", family), log.Error(err))
	}
}
