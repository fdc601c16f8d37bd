package world

import (
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sky holds the ambient visibility conditions seen by optical sensors.
type Sky struct {
	// Visibility scales optical detection ranges, 1 is a clear day.
	Visibility float64 `yaml:"visibility" json:"visibility"`
	// SunDirection points from the world toward the sun.
	SunDirection r3.Vec  `yaml:"sun_direction" json:"sun_direction"`
	Strength     float64 `yaml:"sun_strength" json:"sun_strength"`
}

// ClearSky is full visibility with the sun high in the south.
func ClearSky() Sky {
	return Sky{
		Visibility:   1,
		SunDirection: physics.Unit(r3.Vec{Y: -0.5, Z: 1}),
		Strength:     1,
	}
}

func (s Sky) RelativeVisibility() float64 { return physics.Unit01(s.Visibility) }
func (s Sky) SunDir() r3.Vec              { return physics.UnitOrZero(s.SunDirection) }
func (s Sky) SunStrength() float64        { return physics.Unit01(s.Strength) }
