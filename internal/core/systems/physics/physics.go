package physics

// Vector helpers shared by curves, sensors and bodies.
// Points and directions are both r3.Vec; world frame is X right, Y forward, Z up.

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrZeroVector is the panic value of Unit for a zero-length input.
var ErrZeroVector = errors.New("physics: zero-length vector has no direction")

var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// Unit returns the direction of v and panics when v has no length.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		panic(ErrZeroVector)
	}
	return r3.Scale(1/n, v)
}

// UnitOrZero returns the direction of v, or v itself when it is zero.
func UnitOrZero(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}

// Perpendicular returns some unit vector orthogonal to the unit vector t.
func Perpendicular(t r3.Vec) r3.Vec {
	ref := AxisZ
	if math.Abs(t.Z) > 0.9 {
		ref = AxisX
	}
	return Unit(r3.Cross(r3.Cross(t, ref), t))
}

// Reject removes from v its component along the unit vector t.
func Reject(v, t r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, t), t))
}

// Distance returns |b - a|.
func Distance(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(b, a)) }

// HorizontalNorm returns the length of the XY projection of v.
func HorizontalNorm(v r3.Vec) float64 { return math.Hypot(v.X, v.Y) }

// Clamp limits x to the interval spanned by a and b, in either order.
func Clamp(x, a, b float64) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	switch {
	case x < lo:
		return lo
	case x > hi:
		return hi
	default:
		return x
	}
}

// Sign returns -1, 0 or 1.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Unit01 clamps x into [0, 1].
func Unit01(x float64) float64 { return Clamp(x, 0, 1) }

// Ratio01 maps x from [x0, x1] onto [0, 1], clamped.
func Ratio01(x, x0, x1 float64) float64 { return Unit01((x - x0) / (x1 - x0)) }

// Blend01 interpolates from y0 to y1 by u in [0, 1].
func Blend01(u, y0, y1 float64) float64 { return y0 + (y1-y0)*u }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
