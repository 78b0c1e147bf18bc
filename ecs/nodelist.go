package ecs

import (
	"iter"
	"unsafe"
)

// Node is embedded in user-defined node structs. The rest of the struct
// declares the components the node exposes, for example:
//
//	type MoveNode struct {
//		ecs.Node
//		Position *Position
//		Velocity *Velocity
//	}
//
// The embedded Node carries the owning entity and the list links.
type Node struct {
	Entity *Entity

	previous *Node
	next     *Node

	// outer is the *T that embeds this Node, and ptr its address.
	outer any
	ptr   unsafe.Pointer
}

// Next returns the following node in the list, or nil.
func (n *Node) Next() *Node {
	return n.next
}

// Previous returns the preceding node in the list, or nil.
func (n *Node) Previous() *Node {
	return n.previous
}

// Value returns the node struct embedding n, or nil for a bare Node.
func (n *Node) Value() any {
	return n.outer
}

func (n *Node) nodeBase() *Node {
	return n
}

// nodeHolder is satisfied by any pointer to a struct embedding Node.
type nodeHolder interface {
	nodeBase() *Node
}

// NodeListener receives a node added to or removed from a NodeList.
type NodeListener func(node *Node)

// NodeList is a doubly linked list of nodes. It is owned by a Family;
// consumers read it but never change its topology.
type NodeList struct {
	head   *Node
	tail   *Node
	length int

	nodeAdded   signal[NodeListener]
	nodeRemoved signal[NodeListener]
}

// NewNodeList returns an empty list.
func NewNodeList() *NodeList {
	return &NodeList{}
}

// Head returns the first node, or nil when the list is empty.
func (l *NodeList) Head() *Node {
	return l.head
}

// Tail returns the last node, or nil when the list is empty.
func (l *NodeList) Tail() *Node {
	return l.tail
}

func (l *NodeList) Len() int {
	return l.length
}

func (l *NodeList) Empty() bool {
	return l.head == nil
}

// All iterates the list. The next link is read after each yield. During
// Engine.Update a node removed while it is being visited keeps its links
// until the update completes, so the iteration carries on. Outside an update
// a removed node is released at once and the iteration stops at it.
func (l *NodeList) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for node := l.head; node != nil; node = node.next {
			if !yield(node) {
				return
			}
		}
	}
}

// Add appends node to the end of the list.
func (l *NodeList) Add(node *Node) {
	if l.head == nil {
		l.head = node
		l.tail = node
		node.next = nil
		node.previous = nil
	} else {
		l.tail.next = node
		node.previous = l.tail
		node.next = nil
		l.tail = node
	}
	l.length++
	for _, lst := range l.nodeAdded.snapshot() {
		lst.fn(node)
	}
}

// Remove unlinks node from the list. The removed node keeps its own links
// until its family releases it, so an iteration positioned on it can still
// advance.
func (l *NodeList) Remove(node *Node) {
	if l.head == node {
		l.head = l.head.next
	}
	if l.tail == node {
		l.tail = l.tail.previous
	}
	if node.previous != nil {
		node.previous.next = node.next
	}
	if node.next != nil {
		node.next.previous = node.previous
	}
	l.length--
	for _, lst := range l.nodeRemoved.snapshot() {
		lst.fn(node)
	}
}

// RemoveAll empties the list and clears the links of every node, so stale
// iterators stop instead of walking into released nodes.
func (l *NodeList) RemoveAll() {
	for l.head != nil {
		node := l.head
		l.head = node.next
		node.previous = nil
		node.next = nil
		l.length--
		for _, lst := range l.nodeRemoved.snapshot() {
			lst.fn(node)
		}
	}
	l.tail = nil
	l.length = 0
}

// Swap exchanges the positions of two nodes of the list.
func (l *NodeList) Swap(node1, node2 *Node) {
	if node1 == node2 {
		return
	}
	switch {
	case node1.previous == node2:
		node1.previous = node2.previous
		node2.previous = node1
		node2.next = node1.next
		node1.next = node2
	case node2.previous == node1:
		node2.previous = node1.previous
		node1.previous = node2
		node1.next = node2.next
		node2.next = node1
	default:
		node1.previous, node2.previous = node2.previous, node1.previous
		node1.next, node2.next = node2.next, node1.next
	}

	if l.head == node1 {
		l.head = node2
	} else if l.head == node2 {
		l.head = node1
	}
	if l.tail == node1 {
		l.tail = node2
	} else if l.tail == node2 {
		l.tail = node1
	}

	if node1.previous != nil {
		node1.previous.next = node1
	}
	if node2.previous != nil {
		node2.previous.next = node2
	}
	if node1.next != nil {
		node1.next.previous = node1
	}
	if node2.next != nil {
		node2.next.previous = node2
	}
}

// Sort orders the list with a stable insertion sort. It is cheap for lists
// that are already nearly sorted, which is the usual case frame to frame.
func (l *NodeList) Sort(less func(a, b *Node) bool) {
	if l.head == l.tail {
		return
	}
	remains := l.head.next
	for node := remains; node != nil; node = remains {
		remains = node.next

		var other *Node
		for other = node.previous; other != nil; other = other.previous {
			if less(node, other) {
				continue
			}
			if node != other.next {
				if l.tail == node {
					l.tail = node.previous
				}
				node.previous.next = node.next
				if node.next != nil {
					node.next.previous = node.previous
				}
				node.next = other.next
				node.previous = other
				node.next.previous = node
				other.next = node
			}
			break
		}

		if other == nil {
			if l.tail == node {
				l.tail = node.previous
			}
			node.previous.next = node.next
			if node.next != nil {
				node.next.previous = node.previous
			}
			node.next = l.head
			l.head.previous = node
			node.previous = nil
			l.head = node
		}
	}
}

// OnNodeAdded registers fn to run after a node is appended.
func (l *NodeList) OnNodeAdded(fn NodeListener) (cancel func()) {
	return l.nodeAdded.add(fn)
}

// OnNodeRemoved registers fn to run after a node is unlinked.
func (l *NodeList) OnNodeRemoved(fn NodeListener) (cancel func()) {
	return l.nodeRemoved.add(fn)
}
