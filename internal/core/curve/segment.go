package curve

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is a straight line from P0 to P1.
type Segment struct {
	p0 r3.Vec
	t  r3.Vec
	n  r3.Vec
	l  float64
}

// NewSegment builds the segment from p0 to p1. The reference normal n need
// not be orthogonal to the segment; only its perpendicular part is kept.
func NewSegment(p0, p1, n r3.Vec) *Segment {
	d := r3.Sub(p1, p0)
	l := r3.Norm(d)
	if l == 0 {
		degenerate("segment endpoints coincide at %v", p0)
	}
	t := r3.Scale(1/l, d)
	nn := r3.Cross(r3.Cross(t, n), t)
	if r3.Norm(nn) == 0 {
		degenerate("segment normal %v is parallel to tangent %v", n, t)
	}
	return &Segment{p0: p0, t: t, n: physics.Unit(nn), l: l}
}

func (c *Segment) Point(s float64) r3.Vec { return r3.Add(c.p0, r3.Scale(s, c.t)) }
func (c *Segment) Tangent(float64) r3.Vec { return c.t }
func (c *Segment) Normal(float64) r3.Vec  { return c.n }
func (c *Segment) Radius(float64) float64 { return InfRadius }
func (c *Segment) Length() float64        { return c.l }

// Arc is a circular arc of constant radius turning toward its start normal.
type Arc struct {
	r   float64
	a   float64
	p0  r3.Vec
	t0  r3.Vec
	n0  r3.Vec
	b   r3.Vec
	vr0 r3.Vec
}

// NewArc builds an arc of radius r sweeping angle a from p0, leaving along
// t0 and bending toward n0. Signs of r and a are ignored.
func NewArc(r, a float64, p0, t0, n0 r3.Vec) *Arc {
	r, a = math.Abs(r), math.Abs(a)
	if r == 0 {
		degenerate("arc radius is zero")
	}
	if r3.Norm(t0) == 0 {
		degenerate("arc start tangent is zero")
	}
	t := physics.Unit(t0)
	n := r3.Cross(r3.Cross(t, n0), t)
	if r3.Norm(n) == 0 {
		degenerate("arc normal %v is parallel to tangent %v", n0, t0)
	}
	n = physics.Unit(n)
	return &Arc{
		r:   r,
		a:   a,
		p0:  p0,
		t0:  t,
		n0:  n,
		b:   physics.Unit(r3.Cross(t, n)),
		vr0: r3.Scale(-r, n),
	}
}

func (c *Arc) rot(s float64) r3.Rotation {
	return r3.NewRotation(s/c.r, c.b)
}

func (c *Arc) Point(s float64) r3.Vec {
	vr := c.rot(s).Rotate(c.vr0)
	return r3.Add(c.p0, r3.Sub(vr, c.vr0))
}

func (c *Arc) Tangent(s float64) r3.Vec { return c.rot(s).Rotate(c.t0) }
func (c *Arc) Normal(s float64) r3.Vec  { return c.rot(s).Rotate(c.n0) }
func (c *Arc) Radius(float64) float64   { return c.r }
func (c *Arc) Length() float64          { return c.r * c.a }
