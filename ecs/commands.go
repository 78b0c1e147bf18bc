package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// Commands buffers structural edits and applies them to an engine when the
// engine's update completes. Engine operations are always immediate; Commands
// is for systems that want their edits to land after the whole pass.
type Commands struct {
	engine  *Engine
	spawns  []*Entity
	deletes []*Entity
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
	cancel  func()
}

type addComponentCommand struct {
	entity    *Entity
	component any
	asType    []reflect.Type
}

type removeComponentCommand struct {
	entity   *Entity
	compType reflect.Type
}

// NewCommands creates a buffer that flushes into engine after every Update.
func NewCommands(engine *Engine) *Commands {
	c := &Commands{engine: engine}
	c.cancel = engine.OnUpdateComplete(c.Flush)
	return c
}

// Spawn queues adding entity to the engine.
func (c *Commands) Spawn(entity *Entity) {
	c.spawns = append(c.spawns, entity)
}

// Delete queues removing entity from the engine.
func (c *Commands) Delete(entity *Entity) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues entity.Add(component, asType...).
func (c *Commands) AddComponent(entity *Entity, component any, asType ...reflect.Type) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
		asType:    asType,
	})
}

// RemoveComponent queues entity.Remove(compType).
func (c *Commands) RemoveComponent(entity *Entity, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Defer queues fn to run after every other queued command.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Pending returns the number of queued commands.
func (c *Commands) Pending() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies the queued commands in order: deletes, component removals,
// component additions, spawns, deferred funcs. Component edits for entities
// deleted in the same flush are dropped. Commands queued while flushing are
// kept for the next flush.
func (c *Commands) Flush() {
	spawns, deletes, adds, removes, defers := c.spawns, c.deletes, c.adds, c.removes, c.defers
	c.spawns, c.deletes, c.adds, c.removes, c.defers = nil, nil, nil, nil, nil

	deleted := intmap.NewSet[EntityId](len(deletes))
	for _, entity := range deletes {
		c.engine.RemoveEntity(entity)
		deleted.Add(entity.id)
	}

	for _, cmd := range removes {
		if !deleted.Has(cmd.entity.id) {
			cmd.entity.Remove(cmd.compType)
		}
	}

	for _, cmd := range adds {
		if !deleted.Has(cmd.entity.id) {
			cmd.entity.Add(cmd.component, cmd.asType...)
		}
	}

	for _, entity := range spawns {
		c.engine.AddEntity(entity)
	}

	for _, fn := range defers {
		fn()
	}
}

// Release stops automatic flushing. Queued commands are kept.
func (c *Commands) Release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
