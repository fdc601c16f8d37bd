package physics

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Attitude is a heading/pitch/roll triple in radians.
// Heading turns about +Z (positive swings the nose left), pitch about +X
// (positive raises the nose), roll about +Y.
type Attitude struct {
	H float64 `json:"h" yaml:"h"`
	P float64 `json:"p" yaml:"p"`
	R float64 `json:"r" yaml:"r"`
}

// AttitudeDeg builds an Attitude from degrees.
func AttitudeDeg(h, p, r float64) Attitude {
	return Attitude{H: Radians(h), P: Radians(p), R: Radians(r)}
}

// Frame is an orientation relative to a parent frame. The zero value is the
// identity.
type Frame struct {
	q quat.Number
}

// Identity returns the frame aligned with its parent.
func Identity() Frame { return Frame{q: quat.Number{Real: 1}} }

// NewFrame returns the frame rotated by a relative to its parent.
func NewFrame(a Attitude) Frame {
	qh := quat.Number(r3.NewRotation(a.H, AxisZ))
	qp := quat.Number(r3.NewRotation(a.P, AxisX))
	qr := quat.Number(r3.NewRotation(a.R, AxisY))
	return Frame{q: quat.Mul(qh, quat.Mul(qp, qr))}
}

// FrameFromDirection returns a roll-free frame whose forward axis is dir.
func FrameFromDirection(dir r3.Vec) Frame {
	return NewFrame(AttitudeOf(dir))
}

func (f Frame) rotation() r3.Rotation {
	if f.q == (quat.Number{}) {
		return r3.Rotation{Real: 1}
	}
	return r3.Rotation(f.q)
}

// ToWorld expresses the frame-local vector v in the parent frame.
func (f Frame) ToWorld(v r3.Vec) r3.Vec {
	return f.rotation().Rotate(v)
}

// ToLocal expresses the parent-frame vector v in this frame.
func (f Frame) ToLocal(v r3.Vec) r3.Vec {
	return r3.Rotation(quat.Conj(quat.Number(f.rotation()))).Rotate(v)
}

// Compose returns the frame obtained by applying child inside f.
func (f Frame) Compose(child Frame) Frame {
	return Frame{q: quat.Mul(quat.Number(f.rotation()), quat.Number(child.rotation()))}
}

// Forward is the frame's +Y axis in parent coordinates.
func (f Frame) Forward() r3.Vec { return f.ToWorld(AxisY) }

// Up is the frame's +Z axis in parent coordinates.
func (f Frame) Up() r3.Vec { return f.ToWorld(AxisZ) }

// Attitude recovers heading and pitch of the frame's forward axis and the
// roll of its up axis about it.
func (f Frame) Attitude() Attitude {
	fw := f.Forward()
	a := AttitudeOf(fw)
	level := NewFrame(Attitude{H: a.H, P: a.P})
	up := level.ToLocal(f.Up())
	a.R = math.Atan2(up.X, up.Z)
	return a
}

// AttitudeOf returns the heading and pitch of direction dir, roll zero.
// A zero direction yields the zero attitude.
func AttitudeOf(dir r3.Vec) Attitude {
	n := r3.Norm(dir)
	if n == 0 {
		return Attitude{}
	}
	d := r3.Scale(1/n, dir)
	return Attitude{
		H: math.Atan2(-d.X, d.Y),
		P: math.Asin(Clamp(d.Z, -1, 1)),
	}
}

// RelativeHeadingPitch returns, in degrees, the heading and pitch of the
// forward axis of body as seen from the frame platform.
func RelativeHeadingPitch(platform, body Frame) (h, p float64) {
	fw := platform.ToLocal(body.Forward())
	a := AttitudeOf(fw)
	return Degrees(a.H), Degrees(a.P)
}
