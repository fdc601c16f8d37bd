package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

func names(bodies []sensor.Body) []string {
	out := make([]string, len(bodies))
	for i, b := range bodies {
		out[i] = b.Name()
	}
	return out
}

func populated(t *testing.T) *World {
	t.Helper()
	w := New()
	require.NoError(t, w.Add(fighter("blue1", "blue", r3.Vec{}, r3.Vec{Y: 1})))
	require.NoError(t, w.Add(NewCraft(CraftConfig{Name: "tank1", Family: "vehicle", Species: "t72", Side: "red"})))
	require.NoError(t, w.Add(fighter("red1", "red", r3.Vec{Y: 1000}, r3.Vec{Y: -1})))
	require.NoError(t, w.Add(NewCraft(CraftConfig{Name: "heli1", Family: "heli", Species: "mi24", Side: "red"})))
	return w
}

func TestWorldAddAndLookup(t *testing.T) {
	w := populated(t)
	assert.ErrorIs(t, w.Add(fighter("red1", "red", r3.Vec{}, r3.Vec{})), ErrDuplicateCraft)

	red := w.FindByName("red1")
	require.NotNil(t, red)
	assert.Same(t, red, w.Craft(red.ID()))
	assert.Nil(t, w.FindByName("ghost"))
	assert.Equal(t, []string{"blue1", "tank1", "red1", "heli1"}, names(w.Bodies()))

	require.NoError(t, w.Remove(red.ID()))
	assert.ErrorIs(t, w.Remove(red.ID()), ErrUnknownCraft)
	assert.Nil(t, w.FindByName("red1"))
	assert.Len(t, w.Crafts(), 3)
}

func TestWorldSelectBodies(t *testing.T) {
	w := populated(t)
	planes := sensor.NewFamilySet("plane")

	assert.Nil(t, w.SelectBodies(nil))
	assert.Equal(t, []string{"blue1", "red1"}, names(w.SelectBodies(planes)))
	assert.Equal(t, []string{"tank1", "heli1"}, names(w.SelectBodies(sensor.NewFamilySet("heli", "vehicle"))))
	assert.Equal(t, []string{"tank1"}, names(w.SelectSpecies("t72")))

	first := w.SelectBodies(planes)
	w.FindByName("red1").Destroy()
	assert.Equal(t, first, w.SelectBodies(planes), "cached within a tick")

	w.Advance(0.1)
	assert.Equal(t, []string{"blue1"}, names(w.SelectBodies(planes)))
	assert.Equal(t, []string{"blue1", "tank1", "heli1"}, names(w.Bodies()))

	require.NoError(t, w.Add(fighter("blue2", "blue", r3.Vec{}, r3.Vec{Y: 1})))
	assert.Equal(t, []string{"blue1", "blue2"}, names(w.SelectBodies(planes)), "add drops the cache")
}

func TestWorldAlliances(t *testing.T) {
	w := New()
	assert.Equal(t, []sensor.Side{"blue"}, w.AlliedSides("blue"))

	w.SetAllied("blue", "green")
	w.SetAllied("green", "yellow")
	assert.Equal(t, []sensor.Side{"blue", "green"}, w.AlliedSides("blue"))
	assert.Equal(t, []sensor.Side{"blue", "green", "yellow"}, w.AlliedSides("green"))
	assert.False(t, w.IsAllied("blue", "yellow"), "not transitive")

	w.SetAlliedToAll("white")
	assert.True(t, w.IsAllied("blue", "white"))
	assert.True(t, w.IsAllied("red", "white"), "applies to sides seen later")
	assert.Equal(t, []sensor.Side{"red", "white"}, w.AlliedSides("red"))

	w.BreakAlliance("blue", "green")
	assert.Equal(t, []sensor.Side{"blue", "white"}, w.AlliedSides("blue"))
	assert.Equal(t, []sensor.Side{"green", "white", "yellow"}, w.AlliedSides("green"))
}

func TestWorldFriendlies(t *testing.T) {
	w := populated(t)
	require.NoError(t, w.Add(fighter("green1", "green", r3.Vec{}, r3.Vec{Y: 1})))
	w.SetAllied("blue", "green")
	assert.Equal(t, []string{"blue1", "green1"}, names(w.Friendlies(sensor.NewFamilySet("plane"), "blue")))
	assert.Equal(t, []string{"red1"}, names(w.Friendlies(sensor.NewFamilySet("plane"), "red")))
}

func TestWorldClockAndEnvironment(t *testing.T) {
	sky := Sky{Visibility: 2, SunDirection: r3.Vec{Z: 10}, Strength: 0.5}
	w := New(
		WithSky(sky),
		WithElevation(func(x, y float64) float64 { return 0.01 * x }),
	)
	assert.Equal(t, 0.0, w.Time())

	clock, relay := w.ClockTicker(), w.RelayTicker()
	require.True(t, clock.Tick(0.5))
	require.True(t, clock.Tick(0.25))
	assert.Equal(t, 0.75, w.Time())
	assert.Equal(t, 0.25, w.DeltaTime())
	assert.InDelta(t, 30, w.Elevation(3000, 50), 1e-9)

	assert.Equal(t, 1.0, w.Sky().RelativeVisibility(), "clamped")
	assert.Equal(t, r3.Vec{Z: 1}, w.Sky().SunDir())
	assert.Equal(t, 0.5, w.Sky().SunStrength())

	red := fighter("red1", "red", r3.Vec{}, r3.Vec{Y: 1})
	require.NoError(t, w.Add(red))
	c := sensor.NewContact(w, red)
	w.Board().Publish("tag", red, c, 10, w.Time())
	assert.Nil(t, w.Board().Lookup("tag", red.ID(), w.Time()))
	require.True(t, relay.Tick(0.25))
	assert.NotNil(t, w.Board().Lookup("tag", red.ID(), w.Time()))

	shared := sensor.NewBoard()
	assert.Same(t, shared, New(WithBoard(shared)).Board())
	env := w.Env(red)
	assert.Same(t, w.Board(), env.Board)
	assert.Equal(t, sensor.Body(red), env.Owner)
}

func TestWorldLogsAdditions(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := New(WithLogger(log.NewWithCore(core, log.LevelDebug)))
	require.NoError(t, w.Add(fighter("blue1", "blue", r3.Vec{}, r3.Vec{Y: 1})))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "craft added", entry.Message)
	assert.Equal(t, "world", entry.LoggerName)
	assert.Equal(t, "blue1", entry.ContextMap()["craft"])
}
