package curve

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"github.com/zeusync/flightcore/pkg/table"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	defaultMaxAngle    = 0.1
	defaultInitialStep = 0.1

	stepGrowth = 1.2
	// minStep bounds step halving near cusps, where the radius goes to zero.
	minStep = 1e-9
)

// BezierOption configures Bezier3 sampling.
type BezierOption func(*bezierOptions)

type bezierOptions struct {
	maxAngle    float64
	initialStep float64
}

// WithMaxAngle sets the largest chord-to-radius angle accepted between two
// samples, in radians.
func WithMaxAngle(a float64) BezierOption {
	return func(o *bezierOptions) {
		if a > 0 {
			o.maxAngle = a
		}
	}
}

// WithInitialStep sets the first parameter step tried from t=0.
func WithInitialStep(dt float64) BezierOption {
	return func(o *bezierOptions) {
		if dt > 0 {
			o.initialStep = dt
		}
	}
}

// Sample is one accepted point of the arclength resampling.
type Sample struct {
	T       float64
	S       float64
	Point   r3.Vec
	Tangent r3.Vec
	Normal  r3.Vec
	Radius  float64
}

// Bezier3 is a cubic Bezier curve resampled by arclength at construction.
// Queries before 0 or past Length() continue straight along the end
// tangents for one curve length.
type Bezier3 struct {
	p0, p1, p2, p3 r3.Vec
	c0, c1, c2, c3 r3.Vec
	opts           bezierOptions

	samples []Sample
	neval   int
	length  float64
	rmin    float64
	rmax    float64

	tabT *table.Scalar
	tabP *table.Vector
	tabL *table.Vector
	tabN *table.Vector
	tabR *table.Scalar
}

// NewBezier3 builds the curve with control points p0..p3. The end tangents
// p1-p0 and p3-p2 must have length.
func NewBezier3(p0, p1, p2, p3 r3.Vec, opts ...BezierOption) *Bezier3 {
	o := bezierOptions{maxAngle: defaultMaxAngle, initialStep: defaultInitialStep}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Bezier3{p0: p0, p1: p1, p2: p2, p3: p3, opts: o}
	c.rebuild()
	return c
}

// SetTangentLengths moves p1 and p2 along their end tangents so the tangent
// handles have the given lengths, then resamples. Non-positive values leave
// that end unchanged.
func (c *Bezier3) SetTangentLengths(start, end float64) {
	if start > 0 {
		c.p1 = r3.Add(c.p0, r3.Scale(start, physics.Unit(r3.Sub(c.p1, c.p0))))
	}
	if end > 0 {
		c.p2 = r3.Sub(c.p3, r3.Scale(end, physics.Unit(r3.Sub(c.p3, c.p2))))
	}
	c.rebuild()
}

// ControlPoints returns p0..p3.
func (c *Bezier3) ControlPoints() (p0, p1, p2, p3 r3.Vec) {
	return c.p0, c.p1, c.p2, c.p3
}

func (c *Bezier3) rebuild() {
	if r3.Norm(r3.Sub(c.p1, c.p0)) == 0 || r3.Norm(r3.Sub(c.p3, c.p2)) == 0 {
		degenerate("bezier end tangent has zero length")
	}
	// Taylor coefficients about t=0.
	c.c0 = c.p0
	c.c1 = r3.Sub(r3.Scale(3, c.p1), r3.Scale(3, c.p0))
	c.c2 = r3.Add(r3.Sub(r3.Scale(6, c.p0), r3.Scale(12, c.p1)), r3.Scale(6, c.p2))
	c.c3 = r3.Add(
		r3.Sub(r3.Scale(18, c.p1), r3.Scale(6, c.p0)),
		r3.Sub(r3.Scale(6, c.p3), r3.Scale(18, c.p2)),
	)
	c.sample()
}

func (c *Bezier3) xpoint(t float64) r3.Vec {
	return r3.Add(
		r3.Add(c.c0, r3.Scale(t, c.c1)),
		r3.Add(r3.Scale(t*t/2, c.c2), r3.Scale(t*t*t/6, c.c3)),
	)
}

func (c *Bezier3) deriv1(t float64) r3.Vec {
	return r3.Add(r3.Add(c.c1, r3.Scale(t, c.c2)), r3.Scale(t*t/2, c.c3))
}

func (c *Bezier3) deriv2(t float64) r3.Vec {
	return r3.Add(c.c2, r3.Scale(t, c.c3))
}

func (c *Bezier3) sampleAt(t float64) Sample {
	d1, d2 := c.deriv1(t), c.deriv2(t)
	tang := d1
	if r3.Norm(tang) == 0 {
		// Cusp: the limit direction follows the next non-vanishing derivative.
		tang = d2
		if r3.Norm(tang) == 0 {
			tang = c.c3
		}
	}
	tang = physics.UnitOrZero(tang)
	norm := normalFrom(d1, d2)
	if r3.Norm(d1) == 0 && r3.Norm(tang) > 0 {
		norm = physics.Perpendicular(tang)
	}
	return Sample{
		T:       t,
		Point:   c.xpoint(t),
		Tangent: tang,
		Normal:  norm,
		Radius:  radiusFrom(d1, d2),
	}
}

// sample walks t from 0 to 1, growing the step geometrically and halving it
// until the chord over the local radius is within the angle limit.
func (c *Bezier3) sample() {
	amax := c.opts.maxAngle
	neval := 1
	first := c.sampleAt(0)
	samples := []Sample{first}
	rmin, rmax := first.Radius, first.Radius
	prev, dt := first, c.opts.initialStep
	s := 0.0
	for prev.T < 1 {
		if len(samples) > 1 {
			dt *= stepGrowth
		}
		if prev.T+dt > 1 {
			dt = 1 - prev.T
		}
		var next Sample
		var ds float64
		for {
			t := prev.T + dt
			if t > 1-minStep {
				t = 1
			}
			next = c.sampleAt(t)
			neval++
			ds = physics.Distance(prev.Point, next.Point)
			if ds/next.Radius <= amax || dt <= minStep {
				break
			}
			dt *= 0.5
		}
		if s+ds <= s {
			if next.T >= 1 {
				samples[len(samples)-1].T = 1
				break
			}
			prev.T = next.T
			continue
		}
		s += ds
		next.S = s
		rmin = math.Min(rmin, next.Radius)
		rmax = math.Max(rmax, next.Radius)
		samples = append(samples, next)
		prev = next
	}

	length := s
	if length == 0 {
		degenerate("bezier curve has zero length")
	}

	// Virtual end samples keep out-of-range queries on the end tangents.
	head := c.sampleAt(0)
	tail := c.sampleAt(1)
	n := len(samples) + 2
	keys := make([]float64, 0, n)
	ts := make([]float64, 0, n)
	ps := make([]r3.Vec, 0, n)
	ls := make([]r3.Vec, 0, n)
	ns := make([]r3.Vec, 0, n)
	rs := make([]float64, 0, n)

	keys = append(keys, -length)
	ts = append(ts, -1)
	ps = append(ps, r3.Sub(head.Point, r3.Scale(length, head.Tangent)))
	ls = append(ls, head.Tangent)
	ns = append(ns, head.Normal)
	rs = append(rs, InfRadius)
	for _, smp := range samples {
		keys = append(keys, smp.S)
		ts = append(ts, smp.T)
		ps = append(ps, smp.Point)
		ls = append(ls, smp.Tangent)
		ns = append(ns, smp.Normal)
		rs = append(rs, smp.Radius)
	}
	keys = append(keys, 2*length)
	ts = append(ts, 2)
	ps = append(ps, r3.Add(tail.Point, r3.Scale(length, tail.Tangent)))
	ls = append(ls, tail.Tangent)
	ns = append(ns, tail.Normal)
	rs = append(rs, InfRadius)

	c.samples = samples
	c.neval = neval + 2
	c.length = length
	c.rmin, c.rmax = rmin, rmax
	c.tabT = table.NewScalar(keys, ts)
	c.tabP = table.NewVector(keys, ps)
	c.tabL = table.NewVector(keys, ls)
	c.tabN = table.NewVector(keys, ns)
	c.tabR = table.NewScalar(keys, rs)
}

func (c *Bezier3) Point(s float64) r3.Vec { return c.tabP.At(s) }

func (c *Bezier3) Tangent(s float64) r3.Vec {
	t := physics.UnitOrZero(c.tabL.At(s))
	if r3.Norm(t) == 0 {
		return c.samples[0].Tangent
	}
	return t
}

// Normal interpolates the sampled normals and re-orthogonalizes the result
// against the interpolated tangent.
func (c *Bezier3) Normal(s float64) r3.Vec {
	t := c.Tangent(s)
	n := physics.Reject(c.tabN.At(s), t)
	if r3.Norm(n) < 1e-12 {
		return physics.Perpendicular(t)
	}
	return physics.Unit(n)
}

func (c *Bezier3) Radius(s float64) float64 { return c.tabR.At(s) }
func (c *Bezier3) Length() float64          { return c.length }

// ParamAt returns the Bezier parameter t at arclength s.
func (c *Bezier3) ParamAt(s float64) float64 { return c.tabT.At(s) }

// MinRadius and MaxRadius are the extreme radii over the accepted samples.
func (c *Bezier3) MinRadius() float64 { return c.rmin }
func (c *Bezier3) MaxRadius() float64 { return c.rmax }

// Segments is the number of intervals between accepted samples.
func (c *Bezier3) Segments() int { return len(c.samples) - 1 }

// Evaluations counts polynomial evaluations made while sampling.
func (c *Bezier3) Evaluations() int { return c.neval }

// Samples returns a copy of the accepted samples, in order of arclength.
func (c *Bezier3) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}
