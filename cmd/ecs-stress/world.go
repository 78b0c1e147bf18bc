package main

import (
	"fmt"
	"math/rand"

	"github.com/plus3/ashecs/ecs"
	"github.com/plus3/ashecs/internal/config"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Lifetime struct {
	Remaining float64
}

type MoveNode struct {
	ecs.Node
	Position *Position
	Velocity *Velocity
}

type AgeNode struct {
	ecs.Node
	Lifetime *Lifetime
}

var componentFactories = map[string]func(rng *rand.Rand) any{
	"position": func(rng *rand.Rand) any {
		return &Position{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}
	},
	"velocity": newVelocity,
	"lifetime": func(rng *rand.Rand) any {
		return &Lifetime{Remaining: 1 + rng.Float64()*4}
	},
}

func newVelocity(rng *rand.Rand) any {
	return &Velocity{DX: rng.Float64()*20 - 10, DY: rng.Float64()*20 - 10}
}

// spawner builds entities from weighted templates.
type spawner struct {
	rng         *rand.Rand
	templates   []config.Template
	totalWeight int
}

func newSpawner(rng *rand.Rand, templates []config.Template) (*spawner, error) {
	s := &spawner{rng: rng, templates: templates}
	for _, t := range templates {
		for _, name := range t.Components {
			if _, ok := componentFactories[name]; !ok {
				return nil, fmt.Errorf("template %q: unknown component %q", t.Name, name)
			}
		}
		s.totalWeight += t.Weight
	}
	if s.totalWeight <= 0 {
		return nil, fmt.Errorf("templates have no positive weight")
	}
	return s, nil
}

func (s *spawner) pick() config.Template {
	n := s.rng.Intn(s.totalWeight)
	for _, t := range s.templates {
		if n < t.Weight {
			return t
		}
		n -= t.Weight
	}
	return s.templates[len(s.templates)-1]
}

func (s *spawner) spawn() *ecs.Entity {
	t := s.pick()
	entity := ecs.NewEntity()
	for _, name := range t.Components {
		entity.Add(componentFactories[name](s.rng))
	}
	return entity
}

// newMovementSystem integrates velocity into position.
func newMovementSystem() ecs.System {
	return ecs.NewNodeSystem(func(node *MoveNode, dt float64) {
		node.Position.X += node.Velocity.DX * dt
		node.Position.Y += node.Velocity.DY * dt
	})
}

// newAgingSystem counts lifetimes down and replaces expired entities with
// fresh ones once the frame has finished.
func newAgingSystem(commands *ecs.Commands, spawn *spawner) ecs.System {
	return ecs.NewNodeSystem(func(node *AgeNode, dt float64) {
		node.Lifetime.Remaining -= dt
		if node.Lifetime.Remaining <= 0 {
			commands.Delete(node.Entity)
			commands.Spawn(spawn.spawn())
		}
	})
}

// newChurnSystem toggles the velocity of random entities so the mover
// family gains and loses members every frame.
func newChurnSystem(engine *ecs.Engine, rng *rand.Rand, edits int) ecs.System {
	return ecs.NewFuncSystem(func(float64) {
		entities := engine.Entities()
		if len(entities) == 0 {
			return
		}
		for i := 0; i < edits; i++ {
			entity := entities[rng.Intn(len(entities))]
			if ecs.Has[Velocity](entity) {
				ecs.Remove[Velocity](entity)
			} else {
				entity.Add(newVelocity(rng))
			}
		}
	})
}
