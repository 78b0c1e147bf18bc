package ecs

import "reflect"

// NodeSystem is a System that iterates every node of type T on each update.
// It acquires the node list when added to an engine and releases it when
// removed.
type NodeSystem[T any] struct {
	SystemBase

	// OnNodeAdded and OnNodeRemoved, when set, run as nodes join and leave
	// the list while the system is attached.
	OnNodeAdded   func(node *T)
	OnNodeRemoved func(node *T)

	update  func(node *T, deltaTime float64)
	nodes   *Nodes[T]
	cancels []func()
}

// NewNodeSystem returns a NodeSystem calling update for every node.
func NewNodeSystem[T any](update func(node *T, deltaTime float64)) *NodeSystem[T] {
	return &NodeSystem[T]{update: update}
}

// Nodes returns the node list while the system is attached, or nil.
func (s *NodeSystem[T]) Nodes() *Nodes[T] {
	return s.nodes
}

func (s *NodeSystem[T]) AddToEngine(engine *Engine) {
	s.nodes = GetNodeList[T](engine)
	if s.OnNodeAdded != nil {
		for node := range s.nodes.All() {
			s.OnNodeAdded(node)
		}
		s.cancels = append(s.cancels, s.nodes.list.OnNodeAdded(func(node *Node) {
			if item := outerOf[T](node); item != nil {
				s.OnNodeAdded(item)
			}
		}))
	}
	if s.OnNodeRemoved != nil {
		s.cancels = append(s.cancels, s.nodes.list.OnNodeRemoved(func(node *Node) {
			if item := outerOf[T](node); item != nil {
				s.OnNodeRemoved(item)
			}
		}))
	}
}

func (s *NodeSystem[T]) RemoveFromEngine(engine *Engine) {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.nodes = nil
	engine.ReleaseNodeList(reflect.TypeFor[T]())
}

func (s *NodeSystem[T]) Update(deltaTime float64) {
	if s.update == nil || s.nodes == nil {
		return
	}
	for node := range s.nodes.All() {
		s.update(node, deltaTime)
	}
}
