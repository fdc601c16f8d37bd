package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/flightcore/internal/core/curve"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-6

func vecNear(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.True(t, scalar.EqualWithinAbs(r3.Norm(r3.Sub(want, got)), 0, tol), "want %v, got %v", want, got)
}

func fighter(name string, side sensor.Side, pos, vel r3.Vec) *Craft {
	return NewCraft(CraftConfig{
		Name:    name,
		Family:  "plane",
		Species: "f16",
		Side:    side,
		Pos:     pos,
		Vel:     vel,
		Size:    r3.Vec{X: 10, Y: 15, Z: 5},
		RCS:     5,
		IRPower: 1000,
	})
}

func TestCraftIDIsStable(t *testing.T) {
	a := fighter("viper1", "blue", r3.Vec{}, r3.Vec{Y: 1})
	b := fighter("viper1", "red", r3.Vec{X: 5}, r3.Vec{})
	c := fighter("viper2", "blue", r3.Vec{}, r3.Vec{Y: 1})
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestCraftConfigValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		cfg  CraftConfig
		want string
	}{
		"no name":   {cfg: CraftConfig{Family: "plane"}, want: "name is required"},
		"no family": {cfg: CraftConfig{Name: "a"}, want: "family is required"},
		"bad size":  {cfg: CraftConfig{Name: "a", Family: "plane", Size: r3.Vec{X: -1}}, want: "negative size"},
		"bad rcs":   {cfg: CraftConfig{Name: "a", Family: "plane", RCS: -1}, want: "negative signature"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorContains(t, tc.cfg.Validate(), tc.want)
		})
	}
	assert.NoError(t, CraftConfig{Name: "a", Family: "plane"}.Validate())
}

func TestCraftProjectBBoxArea(t *testing.T) {
	north := fighter("n", "blue", r3.Vec{}, r3.Vec{Y: 200})
	assert.InDelta(t, 50, north.ProjectBBoxArea(r3.Vec{Y: -3}), tol, "nose on")
	assert.InDelta(t, 75, north.ProjectBBoxArea(r3.Vec{X: 1}), tol, "side on")
	assert.InDelta(t, 150, north.ProjectBBoxArea(r3.Vec{Z: 1}), tol, "from above")

	east := fighter("e", "blue", r3.Vec{}, r3.Vec{X: 200})
	assert.InDelta(t, 50, east.ProjectBBoxArea(r3.Vec{X: 1}), tol)
	assert.InDelta(t, 75, east.ProjectBBoxArea(r3.Vec{Y: 1}), tol)

	d := r3.Vec{X: 1, Y: 1}
	assert.InDelta(t, (50+75)/math.Sqrt2, north.ProjectBBoxArea(d), tol)
	assert.InDelta(t, math.Sqrt(100+225+25), north.BBoxDiag(), tol)
}

func TestCraftBallisticMotion(t *testing.T) {
	c := fighter("a", "blue", r3.Vec{Z: 1000}, r3.Vec{X: 100})
	require.True(t, c.Tick(2))
	vecNear(t, r3.Vec{X: 200, Z: 1000}, c.Pos())
	vecNear(t, r3.Vec{X: 100}, c.Vel())
	vecNear(t, r3.Vec{X: 1}, c.Frame().Forward())
	assert.False(t, c.OnRoute())
}

func TestCraftFliesSegmentThenContinuesStraight(t *testing.T) {
	c := fighter("a", "blue", r3.Vec{}, r3.Vec{})
	seg := curve.NewSegment(r3.Vec{Z: 1000}, r3.Vec{Y: 1000, Z: 1000}, r3.Vec{Z: 1})
	c.Fly(seg, 200)
	vecNear(t, r3.Vec{Z: 1000}, c.Pos())
	vecNear(t, r3.Vec{Y: 200}, c.Vel())

	for range 5 {
		require.True(t, c.Tick(1))
	}
	assert.True(t, c.OnRoute())
	vecNear(t, r3.Vec{Y: 1000, Z: 1000}, c.Pos())
	vecNear(t, r3.Vec{}, c.Acc())

	require.True(t, c.Tick(0.5))
	assert.False(t, c.OnRoute())
	vecNear(t, r3.Vec{Y: 1100, Z: 1000}, c.Pos())
	vecNear(t, r3.Vec{Y: 200}, c.Vel())
}

func TestCraftFliesArc(t *testing.T) {
	c := fighter("a", "blue", r3.Vec{}, r3.Vec{})
	arc := curve.NewArc(1000, math.Pi, r3.Vec{}, r3.Vec{Y: 1}, r3.Vec{X: 1})
	c.Fly(arc, 100)
	assert.InDelta(t, 10, r3.Norm(c.Acc()), tol, "v²/r")
	vecNear(t, r3.Vec{X: 10}, c.Acc())

	for range 10 {
		c.Tick(math.Pi)
	}
	vecNear(t, r3.Vec{X: 2000}, c.Pos())
	vecNear(t, r3.Vec{Y: -100}, c.Vel())
	assert.InDelta(t, 100, r3.Norm(c.Vel()), tol)
}

func TestCraftDestroy(t *testing.T) {
	c := fighter("a", "blue", r3.Vec{}, r3.Vec{Y: 1})
	other := fighter("b", "red", r3.Vec{}, r3.Vec{Y: 1})
	c.SetTarget(other)
	assert.Equal(t, other, c.Target())
	c.SetTarget(nil)
	assert.Nil(t, c.Target())

	c.Destroy()
	assert.False(t, c.Alive())
	assert.False(t, c.Tick(1))
}
