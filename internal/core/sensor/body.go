// Package sensor models what a body perceives of the others: contacts built
// by individual sensors, the per-body SensorPack that schedules and fuses
// them, and the relay Board through which data links and voice channels
// share contacts between bodies.
package sensor

import (
	"slices"

	"github.com/google/uuid"
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Family is a broad class of bodies, such as "plane" or "vehicle".
type Family string

// Side is an allegiance label. The empty side is unknown.
type Side string

// Emission classifies what a sensor radiates while active.
type Emission string

const (
	EmissionNone  Emission = ""
	EmissionRadio Emission = "radio"
)

// SizeRef selects how optical sensors measure target size.
type SizeRef string

const (
	SizeDiag     SizeRef = "diag"
	SizeProjArea SizeRef = "projarea"
)

// Clock is the world time source, in seconds.
type Clock interface {
	Time() float64
}

// Sky carries the ambient visibility conditions.
type Sky interface {
	RelativeVisibility() float64
	SunDir() r3.Vec
	SunStrength() float64
}

// World is what sensors and packs need from the simulation.
type World interface {
	Clock
	DeltaTime() float64
	// SelectBodies returns the bodies of the given families in a stable
	// order. An empty set selects nothing.
	SelectBodies(families FamilySet) []Body
	Sky() Sky
}

// Body is anything that can be sensed or carry a SensorPack.
type Body interface {
	ID() uuid.UUID
	Name() string
	Alive() bool
	Family() Family
	Species() string
	Side() Side

	Pos() r3.Vec
	Vel() r3.Vec
	Acc() r3.Vec
	Frame() physics.Frame

	BBoxDiag() float64
	// ProjectBBoxArea is the bounding box area seen along the world
	// direction dir.
	ProjectBBoxArea(dir r3.Vec) float64
	RCS() float64
	IREqPower() float64
	IRAspect() float64

	// Target is the body this one is attacking, or nil.
	Target() Body
	SensorPack() *Pack
	Jammed() bool
}

// FamilySet is a set of families. Sensors detect only bodies whose family is
// in their set.
type FamilySet map[Family]struct{}

func NewFamilySet(families ...Family) FamilySet {
	s := make(FamilySet, len(families))
	for _, f := range families {
		s[f] = struct{}{}
	}
	return s
}

func (s FamilySet) Has(f Family) bool {
	_, ok := s[f]
	return ok
}

func (s FamilySet) Add(families ...Family) {
	for _, f := range families {
		s[f] = struct{}{}
	}
}

// Intersect returns the families present in both sets.
func (s FamilySet) Intersect(o FamilySet) FamilySet {
	out := make(FamilySet)
	for f := range s {
		if o.Has(f) {
			out[f] = struct{}{}
		}
	}
	return out
}

func (s FamilySet) Clone() FamilySet {
	if s == nil {
		return nil
	}
	return NewFamilySet(s.Sorted()...)
}

// Sorted lists the families in lexical order.
func (s FamilySet) Sorted() []Family {
	out := make([]Family, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
