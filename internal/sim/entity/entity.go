package entity

import (
	"github.com/google/uuid"

	"github.com/zeusync/dispatch/internal/sim/physics"
)

// Entity is the base of the simulation hierarchy. A concrete kind takes
// part in decoupled operations simply by implementing this interface;
// the kinds know nothing about the operations applied to them.
type Entity interface {
	ID() string
	Kind() string
	Position() physics.Vec2
}

// Base carries the state shared by every entity kind. Embed it by value;
// its methods use pointer receivers so only pointer types implement
// Entity.
type Base struct {
	id  string
	pos physics.Vec2
}

// NewBase creates entity state at the given position with a fresh ID.
func NewBase(pos physics.Vec2) Base {
	return Base{id: uuid.NewString(), pos: pos}
}

func (b *Base) ID() string              { return b.id }
func (b *Base) Position() physics.Vec2 { return b.pos }

// MoveTo repositions the entity.
func (b *Base) MoveTo(pos physics.Vec2) { b.pos = pos }

// Robot is a mobile entity with a battery.
type Robot struct {
	Base
	Battery float64
	Heading float64
}

// NewRobot creates a robot at pos with an empty battery.
func NewRobot(pos physics.Vec2) *Robot {
	return &Robot{Base: NewBase(pos)}
}

func (r *Robot) Kind() string { return "robot" }

// Light is a stationary light source.
type Light struct {
	Base
	Intensity float64
}

// NewLight creates a light at pos with the given intensity.
func NewLight(pos physics.Vec2, intensity float64) *Light {
	return &Light{Base: NewBase(pos), Intensity: intensity}
}

func (l *Light) Kind() string { return "light" }

// Obstacle is a stationary axis-aligned box.
type Obstacle struct {
	Base
	Width  float64
	Height float64
}

// NewObstacle creates an obstacle at pos with the given extent.
func NewObstacle(pos physics.Vec2, w, h float64) *Obstacle {
	return &Obstacle{Base: NewBase(pos), Width: w, Height: h}
}

func (o *Obstacle) Kind() string { return "obstacle" }
