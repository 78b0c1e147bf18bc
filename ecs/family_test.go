package ecs_test

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/plus3/ashecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPositionFamily() *ecs.ComponentMatchingFamily {
	return ecs.NewComponentMatchingFamily(reflect.TypeFor[PositionNode](), nil)
}

func TestComponentMatchingFamily(t *testing.T) {
	t.Run("node list is initially empty", func(t *testing.T) {
		family := newPositionFamily()
		assert.Nil(t, family.NodeList().Head())
		assert.True(t, family.NodeList().Empty())
	})

	t.Run("matching entity is added", func(t *testing.T) {
		family := newPositionFamily()
		nodes := family.NodeList()
		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)

		require.NotNil(t, nodes.Head())
		assert.Same(t, entity, nodes.Head().Entity)
		assert.Same(t, nodes, family.NodeList())
	})

	t.Run("node exposes the entity's components", func(t *testing.T) {
		family := newPositionFamily()
		pos := &Position{X: 1, Y: 2}
		family.NewEntity(ecs.NewEntity().Add(pos))

		node, ok := family.NodeList().Head().Value().(*PositionNode)
		require.True(t, ok)
		assert.Same(t, pos, node.Position)
	})

	t.Run("matching entity is added when component added", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{})
		family.ComponentAddedToEntity(entity, positionType)
		assert.Same(t, entity, family.NodeList().Head().Entity)
	})

	t.Run("non matching entity is not added", func(t *testing.T) {
		family := newPositionFamily()
		family.NewEntity(ecs.NewEntity())

		entity := ecs.NewEntity().Add(&Velocity{})
		family.ComponentAddedToEntity(entity, velocityType)
		assert.Nil(t, family.NodeList().Head())
	})

	t.Run("entity is added once", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)
		family.NewEntity(entity)
		family.ComponentAddedToEntity(entity, positionType)
		assert.Equal(t, 1, family.NodeList().Len())
	})

	t.Run("entity is removed", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)
		family.RemoveEntity(entity)

		assert.Nil(t, family.NodeList().Head())
		assert.False(t, family.Contains(entity))
	})

	t.Run("entity is removed when component removed", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)
		entity.Remove(positionType)
		family.ComponentRemovedFromEntity(entity, positionType)

		assert.Nil(t, family.NodeList().Head())
	})

	t.Run("unrelated component removal is ignored", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{}).Add(&Velocity{})
		family.NewEntity(entity)
		family.ComponentRemovedFromEntity(entity, velocityType)

		assert.True(t, family.Contains(entity))
	})

	t.Run("list holds exactly the matching entities", func(t *testing.T) {
		family := newPositionFamily()
		var matching []*ecs.Entity
		for i := 0; i < 5; i++ {
			entity := ecs.NewEntity().Add(&Position{})
			matching = append(matching, entity)
			family.NewEntity(entity)
			family.NewEntity(ecs.NewEntity())
		}

		assert.Equal(t, matching, entitiesOf(family.NodeList()))
		assert.Equal(t, 5, family.Len())
	})

	t.Run("clean up empties the list", func(t *testing.T) {
		family := newPositionFamily()
		family.NewEntity(ecs.NewEntity().Add(&Position{}))
		nodes := family.NodeList()
		family.CleanUp()

		assert.Nil(t, nodes.Head())
		assert.Equal(t, 0, family.Len())
	})

	t.Run("clean up clears next links", func(t *testing.T) {
		family := newPositionFamily()
		for i := 0; i < 5; i++ {
			family.NewEntity(ecs.NewEntity().Add(&Position{}))
		}
		node := family.NodeList().Head().Next()
		family.CleanUp()

		assert.Nil(t, node.Next())
	})

	t.Run("clean up is idempotent", func(t *testing.T) {
		family := newPositionFamily()
		assert.NotPanics(t, family.CleanUp)
		assert.True(t, family.NodeList().Empty())

		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)
		family.CleanUp()
		family.CleanUp()

		assert.True(t, family.NodeList().Empty())
		assert.Zero(t, family.Len())
		assert.False(t, family.Contains(entity))

		family.NewEntity(entity)
		assert.Equal(t, 1, family.NodeList().Len())
	})

	t.Run("replaced component is visible through the node", func(t *testing.T) {
		family := newPositionFamily()
		entity := ecs.NewEntity().Add(&Position{X: 1})
		family.NewEntity(entity)

		replacement := &Position{X: 2}
		entity.Add(replacement)
		family.ComponentAddedToEntity(entity, positionType)

		node := family.NodeList().Head().Value().(*PositionNode)
		assert.Same(t, replacement, node.Position)
		assert.Equal(t, 1, family.Len())
	})

	t.Run("interface slots", func(t *testing.T) {
		family := ecs.NewComponentMatchingFamily(reflect.TypeFor[ShapeNode](), nil)
		circle := &Circle{R: 1}
		entity := ecs.NewEntity().Add(&Position{}).Add(circle, shapeType)
		family.NewEntity(entity)

		node := family.NodeList().Head().Value().(*ShapeNode)
		assert.Same(t, circle, node.Shape)

		square := &Square{Side: 3}
		entity.Add(square, shapeType)
		family.ComponentAddedToEntity(entity, shapeType)
		assert.Equal(t, float32(9), node.Shape.Area())
	})

	t.Run("tagged and unexported fields are ignored", func(t *testing.T) {
		family := ecs.NewComponentMatchingFamily(reflect.TypeFor[TaggedNode](), nil)
		assert.Equal(t, []reflect.Type{positionType}, family.Signature().Types())

		entity := ecs.NewEntity().Add(&Position{})
		family.NewEntity(entity)
		node := family.NodeList().Head().Value().(*TaggedNode)
		assert.Nil(t, node.Cache)
	})
}

func TestNodeTypeValidation(t *testing.T) {
	type noBase struct {
		Position *Position
	}
	type noSlots struct {
		ecs.Node
	}
	type badField struct {
		ecs.Node
		Position Position
	}
	type badTag struct {
		ecs.Node
		Position *Position `ecs:"optional"`
	}

	tests := []struct {
		name     string
		nodeType reflect.Type
		err      error
	}{
		{"not a struct", reflect.TypeFor[int](), ecs.ErrInvalidNodeType},
		{"missing node", reflect.TypeFor[noBase](), ecs.ErrInvalidNodeType},
		{"no slots", reflect.TypeFor[noSlots](), ecs.ErrEmptySignature},
		{"value field", reflect.TypeFor[badField](), ecs.ErrInvalidNodeType},
		{"unknown tag", reflect.TypeFor[badTag](), ecs.ErrInvalidNodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, tt.err)
			}()
			ecs.NewComponentMatchingFamily(tt.nodeType, nil)
		})
	}
}

func TestSignature(t *testing.T) {
	t.Run("field order does not matter", func(t *testing.T) {
		a := ecs.NewComponentMatchingFamily(reflect.TypeFor[MoveNode](), nil).Signature()
		b := ecs.NewComponentMatchingFamily(reflect.TypeFor[ReversedMoveNode](), nil).Signature()

		assert.Equal(t, a.Key(), b.Key())
		assert.Equal(t, a.Types(), b.Types())
		assert.Equal(t, a.String(), b.String())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		sig := ecs.NewSignature(positionType, velocityType, positionType)
		assert.Equal(t, 2, sig.Len())
		assert.Equal(t, ecs.NewSignature(velocityType, positionType).Key(), sig.Key())
	})

	t.Run("different sets differ", func(t *testing.T) {
		assert.NotEqual(t,
			ecs.NewSignature(positionType).Key(),
			ecs.NewSignature(positionType, velocityType).Key())
	})

	t.Run("matched by", func(t *testing.T) {
		sig := ecs.NewSignature(positionType, velocityType)
		assert.True(t, sig.MatchedBy(newMover(0, 0)))
		assert.False(t, sig.MatchedBy(ecs.NewEntity().Add(&Position{})))
		assert.True(t, sig.Contains(velocityType))
		assert.False(t, sig.Contains(healthType))
	})
}

// TestFamilyMembershipUnderRandomEdits checks after every edit that the list
// holds exactly the entities carrying both components, each once.
func TestFamilyMembershipUnderRandomEdits(t *testing.T) {
	engine := ecs.NewEngine()
	nodes := ecs.GetNodeList[MoveNode](engine)
	rng := rand.New(rand.NewSource(42))

	entities := make([]*ecs.Entity, 20)
	for i := range entities {
		entities[i] = ecs.NewEntity()
	}

	for step := 0; step < 2000; step++ {
		entity := entities[rng.Intn(len(entities))]
		switch rng.Intn(6) {
		case 0:
			engine.AddEntity(entity)
		case 1:
			engine.RemoveEntity(entity)
		case 2:
			entity.Add(&Position{X: float32(step)})
		case 3:
			ecs.Remove[Position](entity)
		case 4:
			entity.Add(&Velocity{DX: float32(step)})
		case 5:
			ecs.Remove[Velocity](entity)
		}

		seen := make(map[*ecs.Entity]int)
		for node := range nodes.All() {
			seen[node.Entity]++
			require.Same(t, ecs.Get[Position](node.Entity), node.Position)
			require.Same(t, ecs.Get[Velocity](node.Entity), node.Velocity)
		}
		for _, e := range entities {
			want := 0
			if engine.HasEntity(e) && ecs.Has[Position](e) && ecs.Has[Velocity](e) {
				want = 1
			}
			require.Equal(t, want, seen[e], "step %d entity %s", step, e)
		}
		require.Equal(t, len(seen), nodes.Len())
	}
}

func TestFamilyNodesSurviveUntilUpdateCompletes(t *testing.T) {
	engine := ecs.NewEngine()
	nodes := ecs.GetNodeList[PositionNode](engine)

	a := ecs.NewEntity().Add(&Position{X: 1})
	b := ecs.NewEntity().Add(&Position{X: 2})
	c := ecs.NewEntity().Add(&Position{X: 3})
	engine.AddEntity(a)
	engine.AddEntity(b)
	engine.AddEntity(c)

	var visited []float32
	var removedNode *PositionNode
	engine.AddSystem(ecs.NewFuncSystem(func(float64) {
		for node := range nodes.All() {
			visited = append(visited, node.Position.X)
			if node.Entity == a {
				removedNode = node
				engine.RemoveEntity(a)
				assert.Same(t, a, node.Entity, "node stays bound during update")
			}
		}
	}), 0)

	engine.Update(0.1)

	assert.Equal(t, []float32{1, 2, 3}, visited)
	assert.Equal(t, 2, nodes.Len())
	require.NotNil(t, removedNode)
	assert.Nil(t, removedNode.Entity, "node released after update")
	assert.Nil(t, removedNode.Position)
}
