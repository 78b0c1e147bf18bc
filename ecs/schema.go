package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

var nodeBaseType = reflect.TypeFor[Node]()

// Signature is the sorted set of component types a family requires.
type Signature struct {
	types []reflect.Type
	key   uint64
}

// NewSignature builds a signature from component types. Duplicates are
// ignored and order does not matter.
func NewSignature(types ...reflect.Type) Signature {
	sorted := make([]reflect.Type, 0, len(types))
	for _, t := range types {
		if !slices.Contains(sorted, t) {
			sorted = append(sorted, t)
		}
	}
	slices.SortFunc(sorted, func(a, b reflect.Type) int {
		return strings.Compare(qualifiedTypeName(a), qualifiedTypeName(b))
	})

	digest := xxhash.New()
	for _, t := range sorted {
		_, _ = digest.WriteString(qualifiedTypeName(t))
		_, _ = digest.WriteString("\x00")
	}

	return Signature{types: sorted, key: digest.Sum64()}
}

// Types returns a copy of the required component types.
func (s Signature) Types() []reflect.Type {
	return slices.Clone(s.types)
}

// Key is a stable hash of the signature, identical for equal signatures.
func (s Signature) Key() uint64 {
	return s.key
}

func (s Signature) Len() int {
	return len(s.types)
}

// Contains reports whether componentType is required by the signature.
func (s Signature) Contains(componentType reflect.Type) bool {
	return slices.Contains(s.types, componentType)
}

// MatchedBy reports whether entity currently holds every required component.
func (s Signature) MatchedBy(entity *Entity) bool {
	for _, t := range s.types {
		if !entity.Has(t) {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	names := make([]string, len(s.types))
	for i, t := range s.types {
		names[i] = t.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func qualifiedTypeName(t reflect.Type) string {
	if t.PkgPath() != "" && t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// slot binds one field of a node struct to a component key.
type slot struct {
	name   string
	index  int
	offset uintptr
	key    reflect.Type
	// direct slots are pointer fields and are written without reflection.
	direct bool
}

// nodeSchema describes a node struct type: where its embedded Node lives
// and which fields receive which components. It is computed once per family.
type nodeSchema struct {
	nodeType   reflect.Type
	baseOffset uintptr
	slots      []slot
	signature  Signature
}

// newNodeSchema inspects nodeType, which must be a struct (or pointer to
// one) embedding Node. Exported pointer fields are keyed by their element
// type and exported interface fields by the interface. Fields tagged
// `ecs:"-"` and unexported fields are ignored.
func newNodeSchema(nodeType reflect.Type) *nodeSchema {
	if nodeType == nil {
		panic(fmt.Errorf("%w: nil type", ErrInvalidNodeType))
	}
	if nodeType.Kind() == reflect.Ptr {
		nodeType = nodeType.Elem()
	}
	if nodeType.Kind() != reflect.Struct {
		panic(fmt.Errorf("%w: %s is not a struct", ErrInvalidNodeType, nodeType))
	}

	schema := &nodeSchema{nodeType: nodeType}
	foundBase := false
	keys := make([]reflect.Type, 0, nodeType.NumField())

	for i := 0; i < nodeType.NumField(); i++ {
		field := nodeType.Field(i)

		if field.Anonymous && field.Type == nodeBaseType {
			schema.baseOffset = field.Offset
			foundBase = true
			continue
		}
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("ecs")
		if tag == "-" {
			continue
		}
		if tag != "" {
			panic(fmt.Errorf("%w: invalid ecs tag value %q on %s.%s (only \"-\" is supported)",
				ErrInvalidNodeType, tag, nodeType, field.Name))
		}

		s := slot{name: field.Name, index: i, offset: field.Offset}
		switch field.Type.Kind() {
		case reflect.Ptr:
			switch field.Type.Elem().Kind() {
			case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
				panic(fmt.Errorf("%w: field %s.%s points to a non-component type",
					ErrInvalidNodeType, nodeType, field.Name))
			}
			s.key = field.Type.Elem()
			s.direct = true
		case reflect.Interface:
			s.key = field.Type
		default:
			panic(fmt.Errorf("%w: field %s.%s must be a component pointer or interface",
				ErrInvalidNodeType, nodeType, field.Name))
		}
		schema.slots = append(schema.slots, s)
		keys = append(keys, s.key)
	}

	if !foundBase {
		panic(fmt.Errorf("%w: %s does not embed ecs.Node", ErrInvalidNodeType, nodeType))
	}
	if len(schema.slots) == 0 {
		panic(fmt.Errorf("%w: %s", ErrEmptySignature, nodeType))
	}

	schema.signature = NewSignature(keys...)
	return schema
}

// newNode allocates a node struct and returns its embedded Node.
func (s *nodeSchema) newNode() *Node {
	value := reflect.New(s.nodeType)
	ptr := value.UnsafePointer()
	node := (*Node)(unsafe.Add(ptr, s.baseOffset))
	node.outer = value.Interface()
	node.ptr = ptr
	return node
}

// bind points every slot of node at the matching component of entity.
func (s *nodeSchema) bind(node *Node, entity *Entity) {
	node.Entity = entity
	for i := range s.slots {
		s.set(node, &s.slots[i], entity.components[s.slots[i].key])
	}
}

// rebind refreshes the slots keyed by componentType.
func (s *nodeSchema) rebind(node *Node, componentType reflect.Type) {
	for i := range s.slots {
		if s.slots[i].key == componentType {
			s.set(node, &s.slots[i], node.Entity.components[componentType])
		}
	}
}

// unbind clears every slot and the entity reference.
func (s *nodeSchema) unbind(node *Node) {
	node.Entity = nil
	for i := range s.slots {
		s.set(node, &s.slots[i], nil)
	}
}

func (s *nodeSchema) set(node *Node, sl *slot, component any) {
	if sl.direct {
		fieldPtr := unsafe.Add(node.ptr, sl.offset)
		if component == nil {
			*(*unsafe.Pointer)(fieldPtr) = nil
			return
		}
		// Stored components keyed by a concrete type are always *key, which is
		// exactly the field type, so the interface data word can be copied.
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
		return
	}

	field := reflect.NewAt(s.nodeType, node.ptr).Elem().Field(sl.index)
	if component == nil {
		field.SetZero()
		return
	}
	field.Set(reflect.ValueOf(component))
}
