package ecs

import (
	"fmt"
	"reflect"
	"time"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle events. The default
// discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithFamilyFactory replaces the family implementation the engine builds
// for each node type. The default is NewComponentMatchingFamily.
func WithFamilyFactory(factory FamilyFactory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.familyFactory = factory
		}
	}
}

func defaultFamilyFactory(nodeType reflect.Type, engine *Engine) Family {
	return NewComponentMatchingFamily(nodeType, engine)
}

type familyEntry struct {
	nodeType reflect.Type
	family   Family
	refs     int
}

// entityRecord links a live entity into the engine's insertion-ordered list
// and remembers how to unsubscribe from it.
type entityRecord struct {
	entity        *Entity
	previous      *entityRecord
	next          *entityRecord
	cancelAdded   func()
	cancelRemoved func()
}

// Engine owns the live entities, one family per requested node type and the
// priority-ordered system chain. It is not safe for concurrent use.
type Engine struct {
	log           *zap.Logger
	familyFactory FamilyFactory

	entities   *intmap.Map[EntityId, *entityRecord]
	entityHead *entityRecord
	entityTail *entityRecord
	names      map[string]*Entity

	families    map[reflect.Type]*familyEntry
	familyOrder []*familyEntry

	systems        systemList
	updating       bool
	pass           uint64
	updateComplete signal[func()]

	closed bool
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:           zap.NewNop(),
		familyFactory: defaultFamilyFactory,
		entities:      intmap.New[EntityId, *entityRecord](256),
		names:         make(map[string]*Entity),
		families:      make(map[reflect.Type]*familyEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) checkOpen() {
	if e.closed {
		panic(ErrEngineClosed)
	}
}

// AddEntity makes entity live: every family is offered the entity and
// subscribes to its component changes. Adding an entity twice is a no-op.
func (e *Engine) AddEntity(entity *Entity) {
	e.checkOpen()
	if entity.engine == e {
		return
	}
	if entity.engine != nil {
		panic(fmt.Errorf("%w: %s", ErrEntityInOtherEngine, entity))
	}
	if other, ok := e.names[entity.name]; ok && other != entity {
		panic(fmt.Errorf("%w: %q", ErrNameInUse, entity.name))
	}

	record := &entityRecord{entity: entity, previous: e.entityTail}
	if e.entityTail != nil {
		e.entityTail.next = record
	} else {
		e.entityHead = record
	}
	e.entityTail = record
	e.entities.Put(entity.id, record)
	e.names[entity.name] = entity
	entity.engine = e

	record.cancelAdded = entity.OnComponentAdded(e.componentAdded)
	record.cancelRemoved = entity.OnComponentRemoved(e.componentRemoved)

	for _, entry := range e.familyOrder {
		entry.family.NewEntity(entity)
	}

	e.log.Debug("entity added",
		zap.String("name", entity.name),
		zap.Uint64("id", uint64(entity.id)),
	)
}

// RemoveEntity takes entity out of every family and unsubscribes from it.
// Entities that are not live are ignored.
func (e *Engine) RemoveEntity(entity *Entity) {
	e.checkOpen()
	record, ok := e.entities.Get(entity.id)
	if !ok {
		return
	}

	for _, entry := range e.familyOrder {
		entry.family.RemoveEntity(entity)
	}

	record.cancelAdded()
	record.cancelRemoved()

	if record.previous != nil {
		record.previous.next = record.next
	} else {
		e.entityHead = record.next
	}
	if record.next != nil {
		record.next.previous = record.previous
	} else {
		e.entityTail = record.previous
	}
	record.previous = nil
	record.next = nil

	e.entities.Del(entity.id)
	if e.names[entity.name] == entity {
		delete(e.names, entity.name)
	}
	entity.engine = nil

	e.log.Debug("entity removed",
		zap.String("name", entity.name),
		zap.Uint64("id", uint64(entity.id)),
	)
}

// RemoveAllEntities removes every live entity one at a time.
func (e *Engine) RemoveAllEntities() {
	e.checkOpen()
	for e.entityHead != nil {
		e.RemoveEntity(e.entityHead.entity)
	}
}

// Entities returns a snapshot of the live entities in the order they were added.
func (e *Engine) Entities() []*Entity {
	entities := make([]*Entity, 0, e.entities.Len())
	for record := e.entityHead; record != nil; record = record.next {
		entities = append(entities, record.entity)
	}
	return entities
}

// EntityCount returns the number of live entities.
func (e *Engine) EntityCount() int {
	return e.entities.Len()
}

// HasEntity reports whether entity is live in this engine.
func (e *Engine) HasEntity(entity *Entity) bool {
	return e.entities.Has(entity.id)
}

// GetEntityByName returns the live entity with the given name, or nil.
func (e *Engine) GetEntityByName(name string) *Entity {
	return e.names[name]
}

func (e *Engine) renameEntity(entity *Entity, oldName, newName string) {
	if other, ok := e.names[newName]; ok && other != entity {
		panic(fmt.Errorf("%w: %q", ErrNameInUse, newName))
	}
	if e.names[oldName] == entity {
		delete(e.names, oldName)
	}
	e.names[newName] = entity
}

func (e *Engine) componentAdded(entity *Entity, componentType reflect.Type) {
	for _, entry := range e.familyOrder {
		entry.family.ComponentAddedToEntity(entity, componentType)
	}
}

func (e *Engine) componentRemoved(entity *Entity, componentType reflect.Type) {
	for _, entry := range e.familyOrder {
		entry.family.ComponentRemovedFromEntity(entity, componentType)
	}
}

// NodeList returns the list of nodes of nodeType, creating and backfilling
// the family on first request. Every call must be paired with a call to
// ReleaseNodeList once the caller no longer needs the list.
func (e *Engine) NodeList(nodeType reflect.Type) *NodeList {
	e.checkOpen()
	nodeType = normalizeNodeType(nodeType)

	entry, ok := e.families[nodeType]
	if !ok {
		family := e.familyFactory(nodeType, e)
		entry = &familyEntry{nodeType: nodeType, family: family}
		e.families[nodeType] = entry
		e.familyOrder = append(e.familyOrder, entry)

		live := e.Entities()
		for _, entity := range live {
			family.NewEntity(entity)
		}

		fields := []zap.Field{
			zap.Stringer("node_type", nodeType),
			zap.Int("entities_checked", len(live)),
		}
		if sf, ok := family.(interface{ Signature() Signature }); ok {
			fields = append(fields,
				zap.Stringer("signature", sf.Signature()),
				zap.Uint64("signature_key", sf.Signature().Key()),
			)
		}
		e.log.Debug("family created", fields...)
	}

	entry.refs++
	return entry.family.NodeList()
}

// ReleaseNodeList drops one reference to the family of nodeType. The last
// release cleans the family up; a later NodeList call builds a new one.
func (e *Engine) ReleaseNodeList(nodeType reflect.Type) {
	e.checkOpen()
	nodeType = normalizeNodeType(nodeType)

	entry, ok := e.families[nodeType]
	if !ok {
		e.log.Warn("release of node list without family", zap.Stringer("node_type", nodeType))
		return
	}

	entry.refs--
	if entry.refs > 0 {
		return
	}
	e.destroyFamily(entry)
}

func (e *Engine) destroyFamily(entry *familyEntry) {
	entry.family.CleanUp()
	delete(e.families, entry.nodeType)

	// Build a new slice so a family walk in progress keeps its view.
	order := make([]*familyEntry, 0, len(e.familyOrder))
	for _, other := range e.familyOrder {
		if other != entry {
			order = append(order, other)
		}
	}
	e.familyOrder = order

	e.log.Debug("family destroyed", zap.Stringer("node_type", entry.nodeType))
}

// AddSystem attaches system with the given priority. Lower priorities
// update first and equal priorities update in the order they were added.
// Adding a system that is already attached moves it to the new priority.
func (e *Engine) AddSystem(system System, priority int) {
	e.checkOpen()
	base := system.systemBase()
	if base.engine == e {
		e.RemoveSystem(system)
	} else if base.engine != nil {
		panic(ErrSystemAttached)
	}

	base.priority = priority
	base.engine = e
	base.addedPass = 0
	if e.updating {
		base.addedPass = e.pass
	}
	e.systems.add(system)
	system.AddToEngine(e)

	e.log.Debug("system added",
		zap.String("system", systemName(system)),
		zap.Int("priority", priority),
	)
}

// RemoveSystem detaches system and clears its chain links. Systems not
// attached to this engine are ignored.
func (e *Engine) RemoveSystem(system System) {
	e.checkOpen()
	base := system.systemBase()
	if base.engine != e {
		return
	}
	e.systems.remove(system)
	base.engine = nil
	system.RemoveFromEngine(e)

	e.log.Debug("system removed", zap.String("system", systemName(system)))
}

// RemoveAllSystems detaches every system, head first.
func (e *Engine) RemoveAllSystems() {
	e.checkOpen()
	for e.systems.head != nil {
		e.RemoveSystem(e.systems.head)
	}
}

// GetSystem returns the first attached system whose dynamic type is
// systemType, or nil.
func (e *Engine) GetSystem(systemType reflect.Type) System {
	e.checkOpen()
	return e.systems.get(systemType)
}

// Systems returns the attached systems in update order.
func (e *Engine) Systems() []System {
	return e.systems.all()
}

// Updating reports whether an Update call is in progress.
func (e *Engine) Updating() bool {
	return e.updating
}

// OnUpdateComplete registers fn to run after every completed Update.
func (e *Engine) OnUpdateComplete(fn func()) (cancel func()) {
	return e.updateComplete.add(fn)
}

// Update runs every system once, in priority order, then signals update
// complete. Systems may add and remove systems and entities while the pass
// runs: removed systems that have not run yet are skipped, and systems added
// during the pass first run on the next Update.
func (e *Engine) Update(deltaTime float64) {
	e.checkOpen()
	if e.updating {
		panic(ErrReentrantUpdate)
	}

	e.updating = true
	e.pass++
	func() {
		defer func() {
			e.systems.cursor = nil
			e.updating = false
		}()

		for system := e.systems.head; system != nil; system = e.systems.cursor {
			base := system.systemBase()
			e.systems.cursor = base.next
			if base.addedPass == e.pass {
				continue
			}

			start := time.Now()
			system.Update(deltaTime)
			base.stats.record(time.Since(start))
		}
	}()

	for _, l := range e.updateComplete.snapshot() {
		l.fn()
	}
}

// Close removes every system and entity and cleans up every family. Any
// later use of the engine panics with ErrEngineClosed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.RemoveAllSystems()
	e.RemoveAllEntities()
	for _, entry := range e.familyOrder {
		entry.family.CleanUp()
	}
	clear(e.families)
	e.familyOrder = nil
	e.closed = true

	e.log.Debug("engine closed")
}

func normalizeNodeType(nodeType reflect.Type) reflect.Type {
	if nodeType != nil && nodeType.Kind() == reflect.Ptr {
		return nodeType.Elem()
	}
	return nodeType
}

// GetNodeList returns the typed node list for node struct T.
func GetNodeList[T any](e *Engine) *Nodes[T] {
	return &Nodes[T]{list: e.NodeList(reflect.TypeFor[T]())}
}

// ReleaseNodeList releases one reference to the node list for T.
func ReleaseNodeList[T any](e *Engine) {
	e.ReleaseNodeList(reflect.TypeFor[T]())
}

// GetSystem returns the first attached system of type T, or the zero value.
func GetSystem[T System](e *Engine) T {
	e.checkOpen()
	for system := e.systems.head; system != nil; system = system.systemBase().next {
		if typed, ok := system.(T); ok {
			return typed
		}
	}
	var zero T
	return zero
}
