package scenario

import (
	"errors"
	"fmt"

	"github.com/zeusync/flightcore/internal/core/curve"
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

type RouteKind string

const (
	RouteSegment    RouteKind = "segment"
	RouteArc        RouteKind = "arc"
	RouteHelix      RouteKind = "helix"
	RouteArcedHelix RouteKind = "arced_helix"
	RouteBezier     RouteKind = "bezier"
)

// RouteSpec is a curve starting at the body's position and, where the kind
// needs one, leaving along its velocity. Angles are in degrees.
type RouteSpec struct {
	Kind RouteKind `yaml:"kind"`
	// Speed along the route; zero keeps the body's initial speed.
	Speed float64 `yaml:"speed"`

	To     *r3.Vec `yaml:"to"`
	Normal *r3.Vec `yaml:"normal"`

	Radius      float64 `yaml:"radius"`
	Angle       float64 `yaml:"angle"`
	PitchRadius float64 `yaml:"pitch_radius"`

	Controls    []r3.Vec `yaml:"controls"`
	MaxAngle    float64  `yaml:"max_angle"`
	InitialStep float64  `yaml:"initial_step"`
}

func (r *RouteSpec) validate() error {
	if r.Speed < 0 {
		return fmt.Errorf("negative speed %v", r.Speed)
	}
	switch r.Kind {
	case RouteSegment:
		if r.To == nil {
			return errors.New("segment needs an end point")
		}
	case RouteArc, RouteHelix:
		if r.Radius <= 0 || r.Angle == 0 {
			return fmt.Errorf("%s needs a positive radius and a non-zero angle", r.Kind)
		}
	case RouteArcedHelix:
		if r.Radius <= 0 || r.Angle == 0 || r.PitchRadius == 0 {
			return errors.New("arced_helix needs radius, angle and pitch_radius")
		}
	case RouteBezier:
		if len(r.Controls) != 3 {
			return fmt.Errorf("bezier needs 3 control points, got %d", len(r.Controls))
		}
	default:
		return fmt.Errorf("unknown route kind %q", r.Kind)
	}
	return nil
}

// Build turns the spec into a curve from pos along vel. Degenerate geometry
// is reported as an error wrapping curve.ErrDegenerate.
func (r *RouteSpec) Build(pos, vel r3.Vec) (c curve.Curve, speed float64, err error) {
	speed = r.Speed
	if speed == 0 {
		speed = r3.Norm(vel)
	}
	if speed == 0 {
		return nil, 0, errors.New("route needs a speed or an initial velocity")
	}
	needsTangent := r.Kind != RouteSegment && r.Kind != RouteBezier
	if needsTangent && r3.Norm(vel) == 0 {
		return nil, 0, fmt.Errorf("%s route needs an initial velocity", r.Kind)
	}

	defer func() {
		if p := recover(); p != nil {
			e, ok := p.(error)
			if !ok || !errors.Is(e, curve.ErrDegenerate) {
				panic(p)
			}
			c, speed, err = nil, 0, e
		}
	}()

	angle := physics.Radians(r.Angle)
	switch r.Kind {
	case RouteSegment:
		n := physics.AxisZ
		if r.Normal != nil {
			n = *r.Normal
		}
		return curve.NewSegment(pos, *r.To, n), speed, nil
	case RouteArc:
		// Without a normal the arc turns left in the horizontal plane.
		n := r3.Cross(physics.AxisZ, vel)
		if r.Normal != nil {
			n = *r.Normal
		}
		return curve.NewArc(r.Radius, angle, pos, vel, n), speed, nil
	case RouteHelix:
		return curve.NewHelixZ(r.Radius, angle, pos, vel), speed, nil
	case RouteArcedHelix:
		return curve.NewArcedHelixZ(r.Radius, angle, r.PitchRadius, pos, vel), speed, nil
	case RouteBezier:
		var opts []curve.BezierOption
		if r.MaxAngle > 0 {
			opts = append(opts, curve.WithMaxAngle(physics.Radians(r.MaxAngle)))
		}
		if r.InitialStep > 0 {
			opts = append(opts, curve.WithInitialStep(r.InitialStep))
		}
		return curve.NewBezier3(pos, r.Controls[0], r.Controls[1], r.Controls[2], opts...), speed, nil
	}
	return nil, 0, fmt.Errorf("unknown route kind %q", r.Kind)
}
