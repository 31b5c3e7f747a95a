// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

// Axis is one of the four independent permission axes on an object.
type Axis string

const (
	AxisRead    Axis = "read"
	AxisWrite   Axis = "write"
	AxisCarry   Axis = "carry"
	AxisExecute Axis = "execute"
)

// Level is the permission level granted on an axis. The model is a fixed
// two-level enumeration; there are no arbitrary ACLs.
type Level string

const (
	// LevelOwner grants the axis to the owning account only.
	LevelOwner Level = "owner"
	// LevelWorld grants the axis to everyone.
	LevelWorld Level = "world"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == LevelOwner || l == LevelWorld
}

// Access is an object's per-axis permission record. Every object has exactly
// one, created atomically with it.
type Access struct {
	Read    Level
	Write   Level
	Carry   Level
	Execute Level
}

// DefaultAccess returns the access record new objects are created with.
func DefaultAccess() Access {
	return Access{
		Read:    LevelWorld,
		Write:   LevelOwner,
		Carry:   LevelWorld,
		Execute: LevelWorld,
	}
}

// LevelFor returns the level granted on the given axis.
func (a Access) LevelFor(axis Axis) Level {
	switch axis {
	case AxisRead:
		return a.Read
	case AxisWrite:
		return a.Write
	case AxisCarry:
		return a.Carry
	case AxisExecute:
		return a.Execute
	}
	return LevelOwner
}

// Validate checks that every axis holds a known level.
func (a Access) Validate() error {
	for axis, level := range map[Axis]Level{
		AxisRead:    a.Read,
		AxisWrite:   a.Write,
		AxisCarry:   a.Carry,
		AxisExecute: a.Execute,
	} {
		if !level.Valid() {
			return &ValidationError{Field: string(axis), Message: "unknown permission level"}
		}
	}
	return nil
}

// CanPerform reports whether actor may perform the given axis on target. The
// owning account always may; everyone else may iff the target grants the axis
// at world level. Pure predicate: no side effects, no I/O. Denial is a
// boolean result here, never an error — higher layers decide what a denial
// means.
func CanPerform(axis Axis, actor, target *Object) bool {
	if actor.OwnerID == target.OwnerID {
		return true
	}
	return target.Access.LevelFor(axis) == LevelWorld
}
