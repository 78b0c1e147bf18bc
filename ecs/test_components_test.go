package ecs_test

import (
	"reflect"

	"github.com/plus3/ashecs/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current int
	Max     int
}

type Name struct {
	Value string
}

type Score int32

// Inventory carries a slice and deep-copies it on clone.
type Inventory struct {
	Items []string
}

func (i *Inventory) CloneComponent() any {
	return &Inventory{Items: append([]string(nil), i.Items...)}
}

// Shape is an interface key; both Circle and Square are stored under it.
type Shape interface {
	Area() float32
}

type Circle struct {
	R float32
}

func (c *Circle) Area() float32 { return 3 * c.R * c.R }

type Square struct {
	Side float32
}

func (s *Square) Area() float32 { return s.Side * s.Side }

// Node types

type PositionNode struct {
	ecs.Node
	Position *Position
}

type MoveNode struct {
	ecs.Node
	Position *Position
	Velocity *Velocity
}

// ReversedMoveNode declares the same components as MoveNode in another order.
type ReversedMoveNode struct {
	ecs.Node
	Velocity *Velocity
	Position *Position
}

type HealthNode struct {
	ecs.Node
	Health *Health
}

type ShapeNode struct {
	ecs.Node
	Shape    Shape
	Position *Position
}

type TaggedNode struct {
	ecs.Node
	Position *Position
	Cache    *Velocity `ecs:"-"`
	note     string
}

var (
	positionType = reflect.TypeFor[Position]()
	velocityType = reflect.TypeFor[Velocity]()
	healthType   = reflect.TypeFor[Health]()
	shapeType    = reflect.TypeFor[Shape]()
)

func newMover(x, y float32) *ecs.Entity {
	return ecs.NewEntity().
		Add(&Position{X: x, Y: y}).
		Add(&Velocity{DX: 1, DY: 1})
}

func entitiesOf(list *ecs.NodeList) []*ecs.Entity {
	var entities []*ecs.Entity
	for node := range list.All() {
		entities = append(entities, node.Entity)
	}
	return entities
}

// Tag clones itself by value.
type Tag struct {
	V int
}

func (t Tag) CloneComponent() any { return t }

// Broken returns a copy of the wrong type.
type Broken struct{}

func (b *Broken) CloneComponent() any { return &Tag{} }

type TagNode struct {
	ecs.Node
	Tag *Tag
}
