package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// Family keeps the NodeList of one node type in step with the entities of
// an engine. The engine forwards every entity and component lifecycle event
// to every live family.
type Family interface {
	// NodeList returns the family's list. The same list is returned for the
	// whole life of the family.
	NodeList() *NodeList
	NewEntity(entity *Entity)
	RemoveEntity(entity *Entity)
	ComponentAddedToEntity(entity *Entity, componentType reflect.Type)
	ComponentRemovedFromEntity(entity *Entity, componentType reflect.Type)
	// CleanUp empties the list and releases every node.
	CleanUp()
}

// FamilyFactory creates the family serving nodeType for engine.
type FamilyFactory func(nodeType reflect.Type, engine *Engine) Family

// ComponentMatchingFamily is the default Family. An entity is in the list
// exactly while it holds a component for every slot of the node type.
type ComponentMatchingFamily struct {
	schema   *nodeSchema
	engine   *Engine
	nodes    *NodeList
	entities *intmap.Map[EntityId, *Node]
	pool     nodePool

	cancelRelease func()
}

var _ Family = (*ComponentMatchingFamily)(nil)

// NewComponentMatchingFamily builds a family for nodeType. engine may be nil,
// in which case removed nodes are always released immediately.
// It panics if nodeType is not a valid node struct.
func NewComponentMatchingFamily(nodeType reflect.Type, engine *Engine) *ComponentMatchingFamily {
	return &ComponentMatchingFamily{
		schema:   newNodeSchema(nodeType),
		engine:   engine,
		nodes:    NewNodeList(),
		entities: intmap.New[EntityId, *Node](64),
	}
}

// Signature returns the component types the family requires.
func (f *ComponentMatchingFamily) Signature() Signature {
	return f.schema.signature
}

// NodeType returns the node struct type the family builds.
func (f *ComponentMatchingFamily) NodeType() reflect.Type {
	return f.schema.nodeType
}

func (f *ComponentMatchingFamily) NodeList() *NodeList {
	return f.nodes
}

// Len returns the number of tracked entities.
func (f *ComponentMatchingFamily) Len() int {
	return f.entities.Len()
}

// Contains reports whether entity currently has a node in the family.
func (f *ComponentMatchingFamily) Contains(entity *Entity) bool {
	return f.entities.Has(entity.id)
}

func (f *ComponentMatchingFamily) NewEntity(entity *Entity) {
	f.addIfMatch(entity)
}

func (f *ComponentMatchingFamily) RemoveEntity(entity *Entity) {
	f.removeIfMatch(entity)
}

func (f *ComponentMatchingFamily) ComponentAddedToEntity(entity *Entity, componentType reflect.Type) {
	if node, ok := f.entities.Get(entity.id); ok {
		// Already matching: a replaced component must be visible through the node.
		f.schema.rebind(node, componentType)
		return
	}
	f.addIfMatch(entity)
}

func (f *ComponentMatchingFamily) ComponentRemovedFromEntity(entity *Entity, componentType reflect.Type) {
	if !f.schema.signature.Contains(componentType) {
		return
	}
	f.removeIfMatch(entity)
}

func (f *ComponentMatchingFamily) CleanUp() {
	released := make([]*Node, 0, f.nodes.Len())
	for node := range f.nodes.All() {
		f.entities.Del(node.Entity.id)
		released = append(released, node)
	}
	f.nodes.RemoveAll()
	f.entities.Clear()
	for _, node := range released {
		f.release(node)
	}
}

func (f *ComponentMatchingFamily) addIfMatch(entity *Entity) {
	if f.entities.Has(entity.id) {
		return
	}
	if !f.schema.signature.MatchedBy(entity) {
		return
	}
	node := f.pool.get(f.schema)
	f.schema.bind(node, entity)
	f.entities.Put(entity.id, node)
	f.nodes.Add(node)
}

func (f *ComponentMatchingFamily) removeIfMatch(entity *Entity) {
	node, ok := f.entities.Get(entity.id)
	if !ok {
		return
	}
	f.entities.Del(entity.id)
	f.nodes.Remove(node)
	f.release(node)
}

// release returns node to the pool. During an engine update the node stays
// bound and linked until the update completes, so systems iterating the
// list can still read it and step past it.
func (f *ComponentMatchingFamily) release(node *Node) {
	if f.engine == nil || !f.engine.updating {
		f.pool.dispose(f.schema, node)
		return
	}
	f.pool.cache(node)
	if f.cancelRelease == nil {
		f.cancelRelease = f.engine.updateComplete.add(f.releaseNodePoolCache)
	}
}

func (f *ComponentMatchingFamily) releaseNodePoolCache() {
	f.cancelRelease()
	f.cancelRelease = nil
	f.pool.releaseCache(f.schema)
}

// nodePool recycles node structs of one schema.
type nodePool struct {
	free   []*Node
	cached []*Node
}

func (p *nodePool) get(schema *nodeSchema) *Node {
	if n := len(p.free); n > 0 {
		node := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return node
	}
	return schema.newNode()
}

func (p *nodePool) dispose(schema *nodeSchema, node *Node) {
	schema.unbind(node)
	node.previous = nil
	node.next = nil
	p.free = append(p.free, node)
}

func (p *nodePool) cache(node *Node) {
	p.cached = append(p.cached, node)
}

func (p *nodePool) releaseCache(schema *nodeSchema) {
	for _, node := range p.cached {
		p.dispose(schema, node)
	}
	clear(p.cached)
	p.cached = p.cached[:0]
}
