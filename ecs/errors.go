package ecs

import "errors"

// Contract violations are reported by panicking with one of these values
// (usually wrapped with context). Expected absences are never errors.
var (
	ErrInvalidNodeType     = errors.New("ecs: invalid node type")
	ErrEmptySignature      = errors.New("ecs: node type declares no component slots")
	ErrInvalidComponent    = errors.New("ecs: invalid component")
	ErrEngineClosed        = errors.New("ecs: engine is closed")
	ErrEntityInOtherEngine = errors.New("ecs: entity belongs to another engine")
	ErrNameInUse           = errors.New("ecs: entity name already in use")
	ErrReentrantUpdate     = errors.New("ecs: Update called while updating")
	ErrSystemAttached      = errors.New("ecs: system is attached to another engine")
)
