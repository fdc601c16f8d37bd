package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/flightcore/internal/core/systems"
)

type recorder struct {
	calls []string
}

func (r *recorder) ticker(name string, lives int) systems.Ticker {
	return systems.TickerFunc(func(float64) bool {
		r.calls = append(r.calls, name)
		lives--
		return lives != 0
	})
}

func TestLoopOrdersByPriority(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.Register("motion", rec.ticker("motion", -1), systems.PriorityMotion)
	l.Register("relay", rec.ticker("relay", -1), systems.PriorityRelay)
	l.Register("pack-a", rec.ticker("pack-a", -1), systems.PrioritySensor)
	l.Register("clock", rec.ticker("clock", -1), systems.PriorityClock)
	l.Register("pack-b", rec.ticker("pack-b", -1), systems.PrioritySensor)

	want := []string{"clock", "pack-a", "pack-b", "motion", "relay"}
	assert.Equal(t, want, l.ExecutionOrder())
	l.Step(0.1)
	assert.Equal(t, want, rec.calls)
}

func TestLoopDropsFinishedTickers(t *testing.T) {
	var rec recorder
	var removed []string
	l := NewLoop()
	l.OnTickerRemoved(func(name string) { removed = append(removed, name) })
	l.Register("once", rec.ticker("once", 1), systems.PriorityHigh)
	l.Register("twice", rec.ticker("twice", 2), systems.PriorityNormal)
	l.Register("forever", rec.ticker("forever", -1), systems.PriorityLow)

	for range 3 {
		l.Step(1)
	}
	assert.Equal(t, []string{
		"once", "twice", "forever",
		"twice", "forever",
		"forever",
	}, rec.calls)
	assert.Equal(t, []string{"once", "twice"}, removed)
	assert.Equal(t, 1, l.Len())

	m := l.Metrics()
	assert.Equal(t, uint64(3), m.Steps)
	assert.Equal(t, uint32(3), m.RegisteredTickers)
	assert.Equal(t, uint32(2), m.RemovedTickers)
	assert.Equal(t, 3.0, m.LastStepTime)
	assert.Equal(t, 3.0, l.Time())
}

func TestLoopRegisterDuringStep(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.Register("spawner", systems.TickerFunc(func(float64) bool {
		l.Register("child", rec.ticker("child", -1), systems.PriorityHighest)
		return false
	}), systems.PriorityLow)

	l.Step(1)
	assert.Empty(t, rec.calls, "new tickers wait for the next step")
	assert.Equal(t, []string{"child"}, l.ExecutionOrder())
	l.Step(1)
	assert.Equal(t, []string{"child"}, rec.calls)
}

func TestLoopRun(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.Register("a", rec.ticker("a", -1), systems.PriorityNormal)
	require.NoError(t, l.Run(context.Background(), 4, 0.5))
	assert.Len(t, rec.calls, 4)
	assert.Equal(t, 2.0, l.Time())

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	l.Register("stopper", systems.TickerFunc(func(float64) bool {
		steps++
		if steps == 3 {
			cancel()
		}
		return true
	}), systems.PriorityNormal)
	assert.ErrorIs(t, l.Run(ctx, 0, 0.5), context.Canceled)
	assert.Equal(t, 3, steps)

	empty := NewLoop()
	empty.Register("short", rec.ticker("short", 2), systems.PriorityNormal)
	require.NoError(t, empty.Run(context.Background(), 0, 1))
	assert.Zero(t, empty.Len())
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "highest", systems.PriorityClock.String())
	assert.Equal(t, "custom", systems.Priority(42).String())
}
