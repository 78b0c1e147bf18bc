package ecs

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
)

// EntityId uniquely identifies an entity for the lifetime of the process.
// Ids are never reused, so they are safe keys for per-family lookups.
type EntityId uint64

var lastEntityId atomic.Uint64

// Cloner is implemented by components that need a deep copy when their
// entity is cloned. Components without it are copied shallowly.
type Cloner interface {
	CloneComponent() any
}

// Entity is a bag of components keyed by component type. It can be created
// and populated before it is handed to an Engine; adding and removing
// components notifies any registered listeners synchronously.
type Entity struct {
	id         EntityId
	name       string
	components map[reflect.Type]any
	engine     *Engine

	componentAdded   signal[ComponentListener]
	componentRemoved signal[ComponentListener]
	nameChanged      signal[NameListener]
}

// NewEntity creates an empty entity with a generated name.
func NewEntity() *Entity {
	return NewNamedEntity("")
}

// NewNamedEntity creates an empty entity with the given name. An empty name
// is replaced with a generated one.
func NewNamedEntity(name string) *Entity {
	if name == "" {
		name = "entity-" + uuid.NewString()
	}
	return &Entity{
		id:         EntityId(lastEntityId.Add(1)),
		name:       name,
		components: make(map[reflect.Type]any),
	}
}

// ID returns the process-unique id of the entity.
func (e *Entity) ID() EntityId {
	return e.id
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// SetName renames the entity. If the entity is in an engine the new name
// must not be used by another entity of that engine.
func (e *Entity) SetName(name string) {
	if name == e.name {
		return
	}
	old := e.name
	if e.engine != nil {
		e.engine.renameEntity(e, old, name)
	}
	e.name = name
	for _, l := range e.nameChanged.snapshot() {
		l.fn(e, old)
	}
}

// Add stores a component and returns the entity so calls can be chained.
//
// Pointer components are keyed by their element type; non-pointer values are
// copied into a new allocation first. An explicit asType key stores the
// component under an interface it implements, or under its own element type.
// Any component already stored under the key is replaced, and listeners are
// told about the addition either way.
func (e *Entity) Add(component any, asType ...reflect.Type) *Entity {
	key, stored := resolveComponent(component, asType)
	e.components[key] = stored
	for _, l := range e.componentAdded.snapshot() {
		l.fn(e, key)
	}
	return e
}

// Get returns the component stored under the key, or nil.
func (e *Entity) Get(componentType reflect.Type) any {
	return e.components[componentType]
}

// Has reports whether a component is stored under the key.
func (e *Entity) Has(componentType reflect.Type) bool {
	_, ok := e.components[componentType]
	return ok
}

// Remove detaches the component stored under the key and returns it.
// Listeners run before the component is detached, so they can still read it.
// If a listener adds a new component under the same key, the new one is kept
// and announced to the added listeners once the removal has been dispatched.
func (e *Entity) Remove(componentType reflect.Type) any {
	component, ok := e.components[componentType]
	if !ok {
		return nil
	}
	for _, l := range e.componentRemoved.snapshot() {
		l.fn(e, componentType)
	}
	current, still := e.components[componentType]
	switch {
	case !still:
	case current == component:
		delete(e.components, componentType)
	default:
		// A listener stored a replacement. Observers that already dropped the
		// entity for this key are told about it again.
		for _, l := range e.componentAdded.snapshot() {
			l.fn(e, componentType)
		}
	}
	return component
}

// GetAll returns every stored component in no particular order.
func (e *Entity) GetAll() []any {
	all := make([]any, 0, len(e.components))
	for _, c := range e.components {
		all = append(all, c)
	}
	return all
}

// Types returns the keys of every stored component in no particular order.
func (e *Entity) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(e.components))
	for t := range e.components {
		types = append(types, t)
	}
	return types
}

// Clone returns a new entity holding a copy of every component under the
// same keys. The clone gets a fresh id and name and has no listeners.
// It panics with ErrInvalidComponent if a Cloner returns a value that cannot
// be stored under the key of the component it copies.
func (e *Entity) Clone() *Entity {
	clone := NewEntity()
	for key, component := range e.components {
		clone.components[key] = cloneComponent(key, component)
	}
	return clone
}

// OnComponentAdded registers fn to run after every Add. The returned func
// unregisters it.
func (e *Entity) OnComponentAdded(fn ComponentListener) (cancel func()) {
	return e.componentAdded.add(fn)
}

// OnComponentRemoved registers fn to run before every effective Remove.
func (e *Entity) OnComponentRemoved(fn ComponentListener) (cancel func()) {
	return e.componentRemoved.add(fn)
}

// OnNameChanged registers fn to run after the entity is renamed.
func (e *Entity) OnNameChanged(fn NameListener) (cancel func()) {
	return e.nameChanged.add(fn)
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.name, e.id)
}

// Get returns the *T component of the entity, or nil.
func Get[T any](e *Entity) *T {
	c, _ := e.components[reflect.TypeFor[T]()].(*T)
	return c
}

// Has reports whether the entity holds a component keyed by T.
func Has[T any](e *Entity) bool {
	return e.Has(reflect.TypeFor[T]())
}

// Remove detaches the component keyed by T.
func Remove[T any](e *Entity) {
	e.Remove(reflect.TypeFor[T]())
}

func resolveComponent(component any, asType []reflect.Type) (reflect.Type, any) {
	if component == nil {
		panic(fmt.Errorf("%w: nil component", ErrInvalidComponent))
	}

	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			panic(fmt.Errorf("%w: nil %s", ErrInvalidComponent, value.Type()))
		}
	} else {
		checkComponentKind(value.Type())
		boxed := reflect.New(value.Type())
		boxed.Elem().Set(value)
		value = boxed
		component = boxed.Interface()
	}

	ptrType := value.Type()
	if len(asType) == 0 || asType[0] == nil {
		key := ptrType.Elem()
		checkComponentKind(key)
		return key, component
	}

	key := asType[0]
	switch {
	case key.Kind() == reflect.Interface:
		if !ptrType.Implements(key) {
			panic(fmt.Errorf("%w: %s does not implement %s", ErrInvalidComponent, ptrType, key))
		}
	case ptrType.Elem() != key:
		panic(fmt.Errorf("%w: %s cannot be stored as %s", ErrInvalidComponent, ptrType, key))
	}
	return key, component
}

func checkComponentKind(t reflect.Type) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		panic(fmt.Errorf("%w: components cannot be pointers, maps, channels, or functions (got %s)", ErrInvalidComponent, t))
	}
}

func cloneComponent(key reflect.Type, component any) any {
	if c, ok := component.(Cloner); ok {
		// The copy is stored under the original key, so it must satisfy it.
		_, stored := resolveComponent(c.CloneComponent(), []reflect.Type{key})
		return stored
	}
	value := reflect.ValueOf(component)
	if value.Kind() != reflect.Ptr {
		return component
	}
	cp := reflect.New(value.Elem().Type())
	cp.Elem().Set(value.Elem())
	return cp.Interface()
}
