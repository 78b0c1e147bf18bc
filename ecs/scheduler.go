package ecs

import (
	"reflect"
	"time"
)

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(duration time.Duration) {
	if s.executionCount == 0 || duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
	s.executionCount++
	s.lastDuration = duration
	s.totalDuration += duration
}

func (s *systemStatsInternal) snapshot(system System) SystemStats {
	stats := SystemStats{
		Name:           systemName(system),
		Priority:       system.systemBase().priority,
		ExecutionCount: s.executionCount,
		MinDuration:    s.minDuration,
		MaxDuration:    s.maxDuration,
		LastDuration:   s.lastDuration,
		TotalDuration:  s.totalDuration,
	}
	if s.executionCount > 0 {
		stats.AvgDuration = s.totalDuration / time.Duration(s.executionCount)
	}
	return stats
}

func systemName(system System) string {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// systemList is the engine's priority-ordered chain of systems.
type systemList struct {
	head System
	tail System
	// cursor is the next system the running update pass will visit.
	cursor System
}

// add inserts system after every system with a priority lower than or equal
// to its own, so equal priorities keep insertion order.
func (l *systemList) add(system System) {
	base := system.systemBase()
	if l.head == nil {
		l.head = system
		l.tail = system
		base.previous = nil
		base.next = nil
		return
	}

	var after System
	for node := l.tail; node != nil; node = node.systemBase().previous {
		if node.systemBase().priority <= base.priority {
			after = node
			break
		}
	}

	switch {
	case after == l.tail:
		l.tail.systemBase().next = system
		base.previous = l.tail
		base.next = nil
		l.tail = system
	case after == nil:
		base.next = l.head
		base.previous = nil
		l.head.systemBase().previous = system
		l.head = system
	default:
		afterBase := after.systemBase()
		base.next = afterBase.next
		base.previous = after
		afterBase.next.systemBase().previous = system
		afterBase.next = system
	}
}

// remove unlinks system and clears its links. If the running pass was about
// to visit it, the pass moves on to its successor instead.
func (l *systemList) remove(system System) {
	base := system.systemBase()
	if l.cursor == system {
		l.cursor = base.next
	}
	if l.head == system {
		l.head = base.next
	}
	if l.tail == system {
		l.tail = base.previous
	}
	if base.previous != nil {
		base.previous.systemBase().next = base.next
	}
	if base.next != nil {
		base.next.systemBase().previous = base.previous
	}
	base.previous = nil
	base.next = nil
}

// get returns the first system whose dynamic type is systemType.
func (l *systemList) get(systemType reflect.Type) System {
	for system := l.head; system != nil; system = system.systemBase().next {
		if reflect.TypeOf(system) == systemType {
			return system
		}
	}
	return nil
}

func (l *systemList) all() []System {
	var systems []System
	for system := l.head; system != nil; system = system.systemBase().next {
		systems = append(systems, system)
	}
	return systems
}
