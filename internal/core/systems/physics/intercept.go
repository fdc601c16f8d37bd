package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SolveQuad returns the real roots of a·x² + b·x + c = 0 in ascending order.
// A linear equation (a == 0) reports its single root twice.
func SolveQuad(a, b, c float64) (x1, x2 float64, ok bool) {
	switch {
	case a != 0:
		d := b*b - 4*a*c
		if d < 0 {
			return 0, 0, false
		}
		rd := math.Sqrt(d)
		x1 = (-b - rd) / (2 * a)
		x2 = (-b + rd) / (2 * a)
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		return x1, x2, true
	case b != 0:
		x1 = -c / b
		return x1, x1, true
	default:
		return 0, 0, false
	}
}

// SolveQuadMinPos returns the smallest strictly positive root.
func SolveQuadMinPos(a, b, c float64) (float64, bool) {
	x1, x2, ok := SolveQuad(a, b, c)
	if !ok {
		return 0, false
	}
	if x1 > 0 {
		return x1, true
	}
	if x2 > 0 {
		return x2, true
	}
	return 0, false
}

// InterceptInput describes a target under constant acceleration and a
// shooter whose launch velocity and acceleration each have a fixed part and
// a part of known magnitude along the unknown launch direction.
type InterceptInput struct {
	TargetPos r3.Vec
	TargetVel r3.Vec
	TargetAcc r3.Vec

	ShooterPos r3.Vec
	ShotVel    r3.Vec
	ShotSpeed  float64
	ShotAcc    r3.Vec
	ShotAccMag float64

	// Refinement runs only when the first estimate is below FineTime.
	FineTime float64
	EpsTime  float64
	MaxIter  int
}

// Intercept is a firing solution.
type Intercept struct {
	Time      float64
	Point     r3.Vec
	Direction r3.Vec
}

// InterceptTime estimates when and where the shot meets the target.
// The first estimate neglects terms above second order in time; when it is
// under FineTime a fixed-point iteration folds the higher terms back in, and
// falls back to the first estimate if the iteration diverges.
func InterceptTime(in InterceptInput) (Intercept, bool) {
	eps := in.EpsTime
	if eps <= 0 {
		eps = 1e-3
	}
	maxIter := in.MaxIter
	if maxIter <= 0 {
		maxIter = 10
	}

	dpos := r3.Sub(in.TargetPos, in.ShooterPos)
	dvel := r3.Sub(in.TargetVel, in.ShotVel)
	dacc := r3.Sub(in.TargetAcc, in.ShotAcc)
	k0 := r3.Norm2(dpos)
	k1 := 2 * r3.Dot(dpos, dvel)
	k2 := r3.Norm2(dvel) - in.ShotSpeed*in.ShotSpeed + r3.Dot(dpos, dacc)
	t0, ok := SolveQuadMinPos(k2, k1, k0)
	if !ok {
		return Intercept{}, false
	}

	t := t0
	if t0 < in.FineTime {
		k3 := r3.Dot(dvel, dacc) - in.ShotSpeed*in.ShotAccMag
		k4 := 0.25 * (r3.Norm2(dacc) - in.ShotAccMag*in.ShotAccMag)
		dt, dtPrev := t0*1e3, t0*2e3
		for n := 0; dt > eps && dt < dtPrev && n < maxIter; n++ {
			prev := t
			dtPrev = dt
			next, ok := SolveQuadMinPos(k2, k1, k0+t*t*t*(k3+k4*t))
			if !ok {
				t = t0
				break
			}
			t = next
			dt = math.Abs(t - prev)
		}
		if dt > dtPrev {
			t = t0
		}
	}

	half := 0.5 * t * t
	point := r3.Add(in.TargetPos, r3.Add(r3.Scale(t, in.TargetVel), r3.Scale(half, in.TargetAcc)))
	free := r3.Sub(r3.Sub(r3.Sub(point, in.ShooterPos), r3.Scale(t, in.ShotVel)), r3.Scale(half, in.ShotAcc))
	dir := UnitOrZero(r3.Scale(1/(in.ShotSpeed*t+in.ShotAccMag*half), free))
	return Intercept{Time: t, Point: point, Direction: dir}, true
}

// MaxInterceptRange returns the largest initial range along the current
// line of sight at which a shot of constant speed can still reach a target
// moving at constant velocity within duration.
func MaxInterceptRange(targetPos, targetVel, shooterPos r3.Vec, shotSpeed, duration float64) (float64, bool) {
	los := UnitOrZero(r3.Sub(targetPos, shooterPos))
	a := r3.Norm2(targetVel)/(shotSpeed*shotSpeed) - 1
	b := 2 * r3.Dot(los, targetVel) / (shotSpeed * shotSpeed)
	c := r3.Norm2(los) / (shotSpeed * shotSpeed)
	d := b*b - 4*a*c
	if d < 0 {
		return 0, false
	}
	rd := math.Sqrt(d)
	best, found := 0.0, false
	for _, den := range []float64{-b - rd, -b + rd} {
		if den == 0 {
			continue
		}
		if r := duration * (2 * a) / den; r >= 0 && (!found || r > best) {
			best, found = r, true
		}
	}
	return best, found
}
