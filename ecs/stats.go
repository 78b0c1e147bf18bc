package ecs

// EngineStats is a point-in-time summary of an engine.
type EngineStats struct {
	EntityCount     int
	FamilyCount     int
	SystemCount     int
	TotalExecutions int64
	Families        []FamilyStats
	Systems         []SystemStats
}

// FamilyStats describes one live family. Signature fields are empty for
// families that do not expose a Signature.
type FamilyStats struct {
	NodeType     string
	Signature    string
	SignatureKey uint64
	References   int
	NodeCount    int
}

// Stats collects counts for entities and families and the execution
// statistics of every attached system, in update order.
func (e *Engine) Stats() *EngineStats {
	stats := &EngineStats{
		EntityCount: e.entities.Len(),
		FamilyCount: len(e.familyOrder),
		Families:    make([]FamilyStats, 0, len(e.familyOrder)),
	}

	for _, entry := range e.familyOrder {
		fs := FamilyStats{
			NodeType:   entry.nodeType.String(),
			References: entry.refs,
			NodeCount:  entry.family.NodeList().Len(),
		}
		if sf, ok := entry.family.(interface{ Signature() Signature }); ok {
			sig := sf.Signature()
			fs.Signature = sig.String()
			fs.SignatureKey = sig.Key()
		}
		stats.Families = append(stats.Families, fs)
	}

	for system := e.systems.head; system != nil; system = system.systemBase().next {
		base := system.systemBase()
		stats.Systems = append(stats.Systems, base.stats.snapshot(system))
		stats.TotalExecutions += base.stats.executionCount
	}
	stats.SystemCount = len(stats.Systems)

	return stats
}
