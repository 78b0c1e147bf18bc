package ecs

import "reflect"

// listener pairs a callback with the id used to cancel it.
type listener[F any] struct {
	id uint64
	fn F
}

// signal is an ordered list of callbacks. Dispatch walks a snapshot, so
// listeners may be added or cancelled from inside a callback.
type signal[F any] struct {
	listeners []listener[F]
	nextId    uint64
}

func (s *signal[F]) add(fn F) func() {
	s.nextId++
	id := s.nextId
	s.listeners = append(s.listeners, listener[F]{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *signal[F]) remove(id uint64) {
	for i, l := range s.listeners {
		if l.id == id {
			// Copy instead of in-place shifting so a running snapshot is untouched.
			next := make([]listener[F], 0, len(s.listeners)-1)
			next = append(next, s.listeners[:i]...)
			next = append(next, s.listeners[i+1:]...)
			s.listeners = next
			return
		}
	}
}

func (s *signal[F]) snapshot() []listener[F] {
	return s.listeners
}

func (s *signal[F]) len() int {
	return len(s.listeners)
}

// ComponentListener receives the entity and the key a component was added or removed under.
type ComponentListener func(entity *Entity, componentType reflect.Type)

// NameListener receives the entity and its previous name.
type NameListener func(entity *Entity, oldName string)
