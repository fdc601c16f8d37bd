// Package table provides one-dimensional lookup tables with linear
// interpolation between strictly increasing keys, clamped at both ends.
package table

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrBadKeys wraps the panic value of constructors given keys they cannot
// fit.
var ErrBadKeys = errors.New("table: bad keys")

// Scalar maps a key to a float64.
type Scalar struct {
	fit interp.PiecewiseLinear
	lo  float64
	hi  float64
}

// NewScalar fits keys to values. It panics if the keys are not strictly
// increasing, if there are fewer than two of them, or if the lengths differ.
// The panic value wraps ErrBadKeys.
func NewScalar(keys, values []float64) *Scalar {
	switch {
	case len(keys) != len(values):
		panic(fmt.Errorf("%w: %d keys for %d values", ErrBadKeys, len(keys), len(values)))
	case len(keys) < 2:
		panic(fmt.Errorf("%w: need at least 2 keys, got %d", ErrBadKeys, len(keys)))
	}
	for i := 1; i < len(keys); i++ {
		if !(keys[i] > keys[i-1]) {
			panic(fmt.Errorf("%w: key %d (%v) does not follow %v", ErrBadKeys, i, keys[i], keys[i-1]))
		}
	}
	t := &Scalar{lo: keys[0], hi: keys[len(keys)-1]}
	if err := t.fit.Fit(keys, values); err != nil {
		panic(fmt.Errorf("%w: %w", ErrBadKeys, err))
	}
	return t
}

// At interpolates at k.
func (t *Scalar) At(k float64) float64 { return t.fit.Predict(k) }

// Domain returns the first and last key.
func (t *Scalar) Domain() (lo, hi float64) { return t.lo, t.hi }

// Vector maps a key to an r3.Vec, interpolating each component.
type Vector struct {
	x, y, z *Scalar
}

// NewVector fits keys to values with the same preconditions as NewScalar.
func NewVector(keys []float64, values []r3.Vec) *Vector {
	xs := make([]float64, len(values))
	ys := make([]float64, len(values))
	zs := make([]float64, len(values))
	for i, v := range values {
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}
	return &Vector{
		x: NewScalar(keys, xs),
		y: NewScalar(keys, ys),
		z: NewScalar(keys, zs),
	}
}

// At interpolates at k.
func (t *Vector) At(k float64) r3.Vec {
	return r3.Vec{X: t.x.At(k), Y: t.y.At(k), Z: t.z.At(k)}
}

// Domain returns the first and last key.
func (t *Vector) Domain() (lo, hi float64) { return t.x.Domain() }
