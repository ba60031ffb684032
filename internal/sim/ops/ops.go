package ops

import (
	"fmt"

	"github.com/zeusync/dispatch/internal/sim/entity"
	"github.com/zeusync/dispatch/internal/sim/plugins"
	"github.com/zeusync/dispatch/pkg/vtable"
)

// Context symbols. A context distinguishes operation sets that share a
// signature; the engine applying the operations is the natural choice.
type (
	// InitContext scopes the one-time setup operations.
	InitContext struct{}
	// DescribeContext scopes the human-readable reporting operations.
	DescribeContext struct{}
)

// InitRobot charges a robot's battery and aligns its heading.
type InitRobot struct{}

func (*InitRobot) Name() string { return "init-robot" }

func (o *InitRobot) Apply(r *entity.Robot) (struct{}, error) {
	r.Battery = 100
	r.Heading = 0
	return struct{}{}, nil
}

// InitLight turns a light on at full intensity if it was created dark.
type InitLight struct{}

func (*InitLight) Name() string { return "init-light" }

func (o *InitLight) Apply(l *entity.Light) (struct{}, error) {
	if l.Intensity <= 0 {
		l.Intensity = 1
	}
	return struct{}{}, nil
}

// DescribeRobot reports a robot with its battery level.
type DescribeRobot struct{}

func (*DescribeRobot) Name() string { return "describe-robot" }

func (o *DescribeRobot) Apply(r *entity.Robot) (string, error) {
	pos := r.Position()
	return fmt.Sprintf("robot %s at (%.1f, %.1f), battery %.0f%%", r.ID(), pos.X, pos.Y, r.Battery), nil
}

// DescribeLight reports a light with its intensity.
type DescribeLight struct{}

func (*DescribeLight) Name() string { return "describe-light" }

func (o *DescribeLight) Apply(l *entity.Light) (string, error) {
	pos := l.Position()
	return fmt.Sprintf("light %s at (%.1f, %.1f), intensity %.2f", l.ID(), pos.X, pos.Y, l.Intensity), nil
}

// DescribeAny is the catch-all reporter bound to the family's default
// slot. Kinds without a specific reporter fall back to it.
type DescribeAny struct{}

func (*DescribeAny) Name() string { return "describe-any" }

func (o *DescribeAny) Apply(e entity.Entity) (string, error) {
	pos := e.Position()
	return fmt.Sprintf("%s %s at (%.1f, %.1f)", e.Kind(), e.ID(), pos.X, pos.Y), nil
}

// Registrations returns every binding this package contributes, in the
// order they should be applied. The catch-all reporter comes first so
// that, even under snapshot fallback semantics, the default slot is
// populated before any subtype registration grows the table.
func Registrations() []plugins.Registration {
	return []plugins.Registration{
		{Name: "describe-any", Apply: func(d *vtable.Dispatcher) error {
			return vtable.RegisterDefault[DescribeContext, entity.Entity](d, &DescribeAny{}, (*DescribeAny).Apply)
		}},
		{Name: "describe-robot", Apply: func(d *vtable.Dispatcher) error {
			return vtable.Register[DescribeContext, entity.Entity](d, &DescribeRobot{}, (*DescribeRobot).Apply)
		}},
		{Name: "describe-light", Apply: func(d *vtable.Dispatcher) error {
			return vtable.Register[DescribeContext, entity.Entity](d, &DescribeLight{}, (*DescribeLight).Apply)
		}},
		{Name: "init-robot", Apply: func(d *vtable.Dispatcher) error {
			return vtable.Register[InitContext, entity.Entity](d, &InitRobot{}, (*InitRobot).Apply)
		}},
		{Name: "init-light", Apply: func(d *vtable.Dispatcher) error {
			return vtable.Register[InitContext, entity.Entity](d, &InitLight{}, (*InitLight).Apply)
		}},
	}
}
