package curve

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// turnSign is the turn direction of a signed sweep; a zero sweep turns left.
func turnSign(a float64) float64 {
	if a < 0 {
		return -1
	}
	return 1
}

// startAngle is the helix angle at which a circle about Z has tangent
// direction t0 in the horizontal plane.
func startAngle(t0 r3.Vec, ka float64) float64 {
	return math.Atan2(-t0.X, t0.Y*ka)
}

// HelixZ is a helix of constant pitch about a vertical axis, entered with
// the given start tangent. A positive sweep turns left.
type HelixZ struct {
	r  float64
	a  float64
	ka float64
	p  float64
	q  float64
	s0 float64
	pc r3.Vec
}

// NewHelixZ builds the helix of horizontal radius r sweeping angle a from p0
// along t0. The climb angle of t0 fixes the pitch.
func NewHelixZ(r, a float64, p0, t0 r3.Vec) *HelixZ {
	if r == 0 {
		degenerate("helix radius is zero")
	}
	txy := physics.HorizontalNorm(t0)
	if txy == 0 {
		degenerate("helix start tangent %v has no horizontal component", t0)
	}
	h := &HelixZ{r: math.Abs(r), a: math.Abs(a), ka: turnSign(a)}
	h.p = h.r * t0.Z / txy
	h.q = math.Hypot(h.r, h.p)
	a0 := startAngle(t0, h.ka)
	h.s0 = h.q * a0
	dp0 := r3.Vec{
		X: h.r * math.Cos(a0*h.ka),
		Y: h.r * math.Sin(a0*h.ka),
		Z: h.p * a0,
	}
	h.pc = r3.Sub(p0, dp0)
	return h
}

func (c *HelixZ) param(s float64) float64 { return (c.s0 + s) / c.q }

func (c *HelixZ) deriv1(a float64) r3.Vec {
	sa, ca := math.Sincos(a * c.ka)
	return r3.Vec{X: -c.r * sa * c.ka, Y: c.r * ca * c.ka, Z: c.p}
}

func (c *HelixZ) deriv2(a float64) r3.Vec {
	sa, ca := math.Sincos(a * c.ka)
	k2 := c.ka * c.ka
	return r3.Vec{X: -c.r * ca * k2, Y: -c.r * sa * k2}
}

func (c *HelixZ) Point(s float64) r3.Vec {
	a := c.param(s)
	sa, ca := math.Sincos(a * c.ka)
	return r3.Add(c.pc, r3.Vec{X: c.r * ca, Y: c.r * sa, Z: c.p * a})
}

func (c *HelixZ) Tangent(s float64) r3.Vec { return xtangent(c, s) }
func (c *HelixZ) Normal(s float64) r3.Vec  { return xnormal(c, s) }
func (c *HelixZ) Radius(float64) float64   { return c.q * c.q / c.r }
func (c *HelixZ) Length() float64          { return c.q * c.a }

// ArcedHelixZ turns about a vertical axis while its climb angle changes
// along a vertical arc of radius rp, coupling a turn with a pull-up or
// push-over. The horizontal radius r and sweep a match HelixZ.
type ArcedHelixZ struct {
	r   float64
	a   float64
	ka  float64
	rp  float64
	a0  float64
	b0  float64
	sb0 float64
	cb0 float64
	pc  r3.Vec
}

// NewArcedHelixZ builds the curve from p0 along t0. A positive rp raises the
// climb angle along the path, a negative one lowers it. The climb angle must
// stay strictly inside (-90°, 90°) over the whole sweep.
func NewArcedHelixZ(r, a, rp float64, p0, t0 r3.Vec) *ArcedHelixZ {
	if r == 0 || rp == 0 {
		degenerate("arced helix radii must be non-zero, got r=%g rp=%g", r, rp)
	}
	txy := physics.HorizontalNorm(t0)
	if txy == 0 {
		degenerate("arced helix start tangent %v has no horizontal component", t0)
	}
	c := &ArcedHelixZ{r: math.Abs(r), a: math.Abs(a), ka: turnSign(a), rp: rp}
	c.a0 = startAngle(t0, c.ka)
	c.b0 = math.Atan2(t0.Z, txy)
	c.sb0, c.cb0 = math.Sincos(c.b0)
	if sb := c.sinClimb(c.a); sb <= -1 || sb >= 1 {
		degenerate("arced helix sweep %g overturns the climb angle (sin=%g)", a, sb)
	}
	dp0 := r3.Vec{
		X: c.r * math.Cos(c.a0),
		Y: c.r * math.Sin(c.a0) * c.ka,
	}
	c.pc = r3.Sub(p0, dp0)
	return c
}

// sinClimb is the sine of the climb angle after turning by a.
func (c *ArcedHelixZ) sinClimb(a float64) float64 {
	return (c.r/c.rp)*a + c.sb0
}

func (c *ArcedHelixZ) param(s float64) float64 {
	return (c.rp / c.r) * (math.Sin(s/c.rp+c.b0) - c.sb0)
}

func (c *ArcedHelixZ) deriv1(a float64) r3.Vec {
	sb := c.sinClimb(a)
	sa, ca := math.Sincos((c.a0 + a) * c.ka)
	return r3.Vec{
		X: -c.r * sa * c.ka,
		Y: c.r * ca * c.ka,
		Z: c.r * sb / math.Sqrt(1-sb*sb),
	}
}

func (c *ArcedHelixZ) deriv2(a float64) r3.Vec {
	sb := c.sinClimb(a)
	sa, ca := math.Sincos((c.a0 + a) * c.ka)
	k2 := c.ka * c.ka
	return r3.Vec{
		X: -c.r * ca * k2,
		Y: -c.r * sa * k2,
		Z: (c.r * c.r / c.rp) / math.Pow(1-sb*sb, 1.5),
	}
}

func (c *ArcedHelixZ) Point(s float64) r3.Vec {
	a := c.param(s)
	sb := c.sinClimb(a)
	sa, ca := math.Sincos((c.a0 + a) * c.ka)
	return r3.Add(c.pc, r3.Vec{
		X: c.r * ca,
		Y: c.r * sa,
		Z: c.rp * (c.cb0 - math.Sqrt(1-sb*sb)),
	})
}

func (c *ArcedHelixZ) Tangent(s float64) r3.Vec { return xtangent(c, s) }
func (c *ArcedHelixZ) Normal(s float64) r3.Vec  { return xnormal(c, s) }
func (c *ArcedHelixZ) Radius(s float64) float64 { return xradius(c, s) }

func (c *ArcedHelixZ) Length() float64 {
	return math.Abs(c.rp * (math.Asin(c.sinClimb(c.a)) - c.b0))
}
