// Package model defines the shared identifier types used across the
// animation resource arena: generation-tagged resource ids, resource
// lifecycle states, and destruction labels.
package model

import "fmt"

// ResourceType distinguishes the slot pool an ID belongs to.
type ResourceType uint16

const (
	// TypeInvalid is the type of the zero ID.
	TypeInvalid ResourceType = iota
	// TypeLibrary identifies animation library resources.
	TypeLibrary
	// TypeSkeleton identifies skeleton resources.
	TypeSkeleton
	// TypeInstance identifies playback instance resources.
	TypeInstance
)

func (t ResourceType) String() string {
	switch t {
	case TypeLibrary:
		return "library"
	case TypeSkeleton:
		return "skeleton"
	case TypeInstance:
		return "instance"
	default:
		return "invalid"
	}
}

// ID is a generation-tagged resource handle, packed as
// type(16) | generation(16) | slot(32). The zero value is invalid.
type ID uint64

// InvalidID is the zero, never-valid handle.
const InvalidID ID = 0

// MakeID packs a resource type, slot index and generation into an ID.
func MakeID(t ResourceType, slot uint32, gen uint16) ID {
	return ID(uint64(t)<<48 | uint64(gen)<<32 | uint64(slot))
}

// Type returns the resource type encoded in the id.
func (id ID) Type() ResourceType { return ResourceType(id >> 48) }

// Slot returns the slot index encoded in the id.
func (id ID) Slot() uint32 { return uint32(id) }

// Gen returns the generation encoded in the id.
func (id ID) Gen() uint16 { return uint16(id >> 32) }

// IsValid reports whether the id refers to a resource type at all.
// A valid id may still be stale; pools detect that via the generation.
func (id ID) IsValid() bool { return id.Type() != TypeInvalid }

func (id ID) String() string {
	return fmt.Sprintf("%s:%d@%d", id.Type(), id.Slot(), id.Gen())
}

// State is the lifecycle state of a pool slot.
type State uint8

const (
	// StateInitial marks an unassigned slot.
	StateInitial State = iota
	// StateSetup marks a slot that is allocated but not yet usable.
	StateSetup
	// StateValid marks a fully committed, usable resource.
	StateValid
)

// Label groups resources for bulk destruction. Labels are handed out by the
// registry's label stack; resources registered under a label die together
// when the label is invalidated.
type Label uint32

// LabelAll matches every label on bulk destruction.
const LabelAll Label = 0xFFFFFFFF
