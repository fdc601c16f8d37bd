package telemetry

import (
	"slices"
	"strings"

	"github.com/zeusync/flightcore/internal/core/sensor"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a position or velocity on the wire, as [x, y, z].
type Vec [3]float64

func vecOf(v r3.Vec) Vec { return Vec{v.X, v.Y, v.Z} }

func vecPtr(v *r3.Vec) *Vec {
	if v == nil {
		return nil
	}
	out := vecOf(*v)
	return &out
}

// Frame is one broadcast snapshot of every sensor pack in a simulation.
type Frame struct {
	Scenario string      `json:"scenario"`
	Time     float64     `json:"time"`
	Packs    []PackFrame `json:"packs"`
}

type PackFrame struct {
	Body     string         `json:"body"`
	Side     string         `json:"side"`
	Pos      Vec            `json:"pos"`
	Vel      Vec            `json:"vel"`
	Contacts []ContactFrame `json:"contacts"`
}

type ContactFrame struct {
	Body      string   `json:"body"`
	Family    string   `json:"family,omitempty"`
	Species   string   `json:"species,omitempty"`
	Side      string   `json:"side,omitempty"`
	Pos       *Vec     `json:"pos,omitempty"`
	Vel       *Vec     `json:"vel,omitempty"`
	Firsthand bool     `json:"firsthand"`
	Tracked   bool     `json:"tracked"`
	Sensors   []string `json:"sensors"`
}

// SnapshotPack captures the current contacts of a pack, sorted by body
// name.
func SnapshotPack(p *sensor.Pack) PackFrame {
	owner := p.Owner()
	frame := PackFrame{
		Body: owner.Name(),
		Side: string(owner.Side()),
		Pos:  vecOf(owner.Pos()),
		Vel:  vecOf(owner.Vel()),
	}
	tracked := make(map[*sensor.Contact]bool)
	for _, c := range p.Tracked() {
		tracked[c] = true
	}
	seenBy := p.SensorsByContact()
	for _, c := range p.Contacts() {
		names := slices.Clone(seenBy[c])
		slices.Sort(names)
		frame.Contacts = append(frame.Contacts, ContactFrame{
			Body:      c.Body.Name(),
			Family:    string(c.Family),
			Species:   c.Species,
			Side:      string(c.Side),
			Pos:       vecPtr(c.Pos),
			Vel:       vecPtr(c.Vel),
			Firsthand: c.Firsthand,
			Tracked:   tracked[c],
			Sensors:   names,
		})
	}
	slices.SortFunc(frame.Contacts, func(a, b ContactFrame) int {
		return strings.Compare(a.Body, b.Body)
	})
	return frame
}
