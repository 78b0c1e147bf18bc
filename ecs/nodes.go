package ecs

import "iter"

// Nodes is a typed view of a NodeList whose nodes are *T. It shares the
// underlying list with every other consumer of the same node type.
type Nodes[T any] struct {
	list *NodeList
}

// NewNodes wraps list in a typed view.
func NewNodes[T any](list *NodeList) *Nodes[T] {
	return &Nodes[T]{list: list}
}

// List returns the underlying untyped list.
func (n *Nodes[T]) List() *NodeList {
	return n.list
}

// Head returns the first node, or nil.
func (n *Nodes[T]) Head() *T {
	return outerOf[T](n.list.head)
}

// Next returns the node following item, or nil.
func (n *Nodes[T]) Next(item *T) *T {
	holder, ok := any(item).(nodeHolder)
	if !ok || item == nil {
		return nil
	}
	return outerOf[T](holder.nodeBase().next)
}

func (n *Nodes[T]) Len() int {
	return n.list.Len()
}

func (n *Nodes[T]) Empty() bool {
	return n.list.Empty()
}

// All iterates the nodes in list order. It follows NodeList.All: removing
// the current node only keeps the iteration going inside Engine.Update.
func (n *Nodes[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for node := n.list.head; node != nil; node = node.next {
			item := outerOf[T](node)
			if item == nil {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Sort orders the underlying list with less.
func (n *Nodes[T]) Sort(less func(a, b *T) bool) {
	n.list.Sort(func(a, b *Node) bool {
		return less(outerOf[T](a), outerOf[T](b))
	})
}

func outerOf[T any](node *Node) *T {
	if node == nil {
		return nil
	}
	item, _ := node.outer.(*T)
	return item
}
