// Package curve implements arclength-parametrized space curves used to
// synthesize flyable paths: straight segments, circular arcs, helices about
// the world Z axis, helices with a varying climb angle, and cubic Bezier
// splines resampled by arclength.
//
// All curves are queried by arclength s in [0, Length()]. Tangent and Normal
// are unit vectors and mutually orthogonal; Radius is InfRadius where the
// curve is straight and never below CuspRadius.
package curve

import (
	"errors"
	"fmt"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// InfRadius stands in for the radius of a straight curve.
const InfRadius = 1e30

// CuspRadius is the smallest radius a curve reports, at cusps included.
const CuspRadius = 1e-6

// ErrDegenerate wraps the panic value of constructors given geometry they
// cannot build a curve from.
var ErrDegenerate = errors.New("curve: degenerate geometry")

type Curve interface {
	Point(s float64) r3.Vec
	Tangent(s float64) r3.Vec
	Normal(s float64) r3.Vec
	Radius(s float64) float64
	Length() float64
}

var (
	_ Curve = (*Segment)(nil)
	_ Curve = (*Arc)(nil)
	_ Curve = (*HelixZ)(nil)
	_ Curve = (*ArcedHelixZ)(nil)
	_ Curve = (*Bezier3)(nil)
)

func degenerate(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrDegenerate, fmt.Sprintf(format, args...)))
}

// derivatives is implemented by curves whose frame comes from the first and
// second derivative with respect to an internal parameter.
type derivatives interface {
	param(s float64) float64
	deriv1(u float64) r3.Vec
	deriv2(u float64) r3.Vec
}

func tangentFrom(d1 r3.Vec) r3.Vec {
	return physics.UnitOrZero(d1)
}

// normalFrom is the principal normal: d2 with its d1 component rejected.
// A straight stretch has none, so any perpendicular is returned.
func normalFrom(d1, d2 r3.Vec) r3.Vec {
	n := r3.Sub(r3.Scale(r3.Dot(d1, d1), d2), r3.Scale(r3.Dot(d1, d2), d1))
	if r3.Norm(n) == 0 {
		if r3.Norm(d1) == 0 {
			return physics.AxisZ
		}
		return physics.Perpendicular(physics.Unit(d1))
	}
	return physics.Unit(n)
}

// radiusFrom is |d1|³/|d1×d2|, never below CuspRadius. A vanishing d1 is a
// cusp and reports CuspRadius.
func radiusFrom(d1, d2 r3.Vec) float64 {
	l := r3.Norm(d1)
	if l == 0 {
		return CuspRadius
	}
	k := r3.Norm(r3.Cross(d1, d2)) / (l * l * l)
	if k > 0 {
		return max(1/k, CuspRadius)
	}
	return InfRadius
}

func xtangent(c derivatives, s float64) r3.Vec {
	return tangentFrom(c.deriv1(c.param(s)))
}

func xnormal(c derivatives, s float64) r3.Vec {
	u := c.param(s)
	return normalFrom(c.deriv1(u), c.deriv2(u))
}

func xradius(c derivatives, s float64) float64 {
	u := c.param(s)
	return radiusFrom(c.deriv1(u), c.deriv2(u))
}
