package ecs

// System is per-frame logic attached to an Engine with a priority. Systems
// embed SystemBase, which holds the chain links and supplies no-op hooks,
// and override the hooks they need.
type System interface {
	// AddToEngine is called after the system joins the engine's chain.
	AddToEngine(engine *Engine)
	// RemoveFromEngine is called after the system leaves the chain.
	RemoveFromEngine(engine *Engine)
	// Update runs once per Engine.Update with the elapsed time.
	Update(deltaTime float64)

	systemBase() *SystemBase
}

// SystemBase carries the engine-owned state of a System.
type SystemBase struct {
	priority int
	previous System
	next     System
	engine   *Engine

	// addedPass is the update pass during which the system was attached;
	// zero when it was attached outside an update.
	addedPass uint64
	stats     systemStatsInternal
}

// Priority returns the priority given when the system was added. Lower
// priorities update first. It is zero for a system never added.
func (s *SystemBase) Priority() int {
	return s.priority
}

// Previous returns the system updated before this one, or nil.
func (s *SystemBase) Previous() System {
	return s.previous
}

// Next returns the system updated after this one, or nil.
func (s *SystemBase) Next() System {
	return s.next
}

// Engine returns the engine the system is attached to, or nil.
func (s *SystemBase) Engine() *Engine {
	return s.engine
}

func (s *SystemBase) AddToEngine(*Engine)      {}
func (s *SystemBase) RemoveFromEngine(*Engine) {}
func (s *SystemBase) Update(float64)           {}

func (s *SystemBase) systemBase() *SystemBase {
	return s
}

// FuncSystem adapts a plain function to a System.
type FuncSystem struct {
	SystemBase
	fn func(deltaTime float64)
}

// NewFuncSystem returns a System whose Update calls fn.
func NewFuncSystem(fn func(deltaTime float64)) *FuncSystem {
	return &FuncSystem{fn: fn}
}

func (s *FuncSystem) Update(deltaTime float64) {
	s.fn(deltaTime)
}
