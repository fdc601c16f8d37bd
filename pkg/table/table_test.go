package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestScalarInterpolatesAndClamps(t *testing.T) {
	tab := NewScalar([]float64{0, 10, 20}, []float64{0, 100, 50})

	assert.InDelta(t, 50, tab.At(5), 1e-12)
	assert.InDelta(t, 75, tab.At(15), 1e-12)
	assert.Equal(t, 100.0, tab.At(10))
	assert.Equal(t, 0.0, tab.At(-3))
	assert.Equal(t, 50.0, tab.At(99))

	lo, hi := tab.Domain()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 20.0, hi)
}

func TestScalarRejectsBadKeys(t *testing.T) {
	for name, tc := range map[string]struct {
		keys, values []float64
	}{
		"repeated": {keys: []float64{0, 0, 1}, values: []float64{1, 2, 3}},
		"unsorted": {keys: []float64{0, 2, 1}, values: []float64{1, 2, 3}},
		"nan":      {keys: []float64{0, math.NaN()}, values: []float64{1, 2}},
		"too few":  {keys: []float64{0}, values: []float64{1}},
		"empty":    {},
		"lengths":  {keys: []float64{0, 1, 2}, values: []float64{1, 2}},
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				err, ok := recover().(error)
				require.True(t, ok, "expected an error panic")
				assert.ErrorIs(t, err, ErrBadKeys)
			}()
			NewScalar(tc.keys, tc.values)
		})
	}
}

func TestVector(t *testing.T) {
	tab := NewVector([]float64{-1, 1}, []r3.Vec{{X: -1, Z: 4}, {X: 1, Y: 2, Z: 4}})
	got := tab.At(0)
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 1, got.Y, 1e-12)
	assert.InDelta(t, 4, got.Z, 1e-12)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 4}, tab.At(3))
}
