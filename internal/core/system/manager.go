// Package system runs the per-frame tickers of a simulation in a fixed,
// priority-driven order on a single goroutine.
package system

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/systems"
)

type entry struct {
	name     string
	ticker   systems.Ticker
	priority systems.Priority
	done     bool
}

// LoopMetrics summarises the work of a loop so far.
type LoopMetrics struct {
	Steps             uint64
	RegisteredTickers uint32
	RemovedTickers    uint32
	TotalUpdateTime   time.Duration
	AverageUpdateTime time.Duration
	LastStepTime      float64
}

// Loop steps registered tickers in descending priority. Tickers of equal
// priority run in registration order. A ticker that returns false is
// dropped once the step completes.
type Loop struct {
	entries []*entry
	metrics LoopMetrics
	now     float64
	log     log.Log

	onRemoved []func(name string)
}

type LoopOption func(*Loop)

func WithLogger(l log.Log) LoopOption {
	return func(lp *Loop) { lp.log = l }
}

func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{log: log.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("loop")
	return l
}

// Register adds a ticker. Tickers registered during a step first run on
// the next step.
func (l *Loop) Register(name string, t systems.Ticker, p systems.Priority) {
	at := slices.IndexFunc(l.entries, func(e *entry) bool { return e.priority < p })
	if at < 0 {
		at = len(l.entries)
	}
	l.entries = slices.Insert(l.entries, at, &entry{name: name, ticker: t, priority: p})
	l.metrics.RegisteredTickers++
	l.log.Debug("ticker registered",
		log.String("ticker", name),
		log.String("priority", fmt.Sprintf("%s(%d)", p, p)),
	)
}

// OnTickerRemoved registers a callback fired with the name of every ticker
// that deregisters itself.
func (l *Loop) OnTickerRemoved(fn func(name string)) {
	l.onRemoved = append(l.onRemoved, fn)
}

// Step runs one frame of dt seconds.
func (l *Loop) Step(dt float64) {
	start := time.Now()
	snapshot := slices.Clone(l.entries)
	removed := 0
	for _, e := range snapshot {
		if !e.ticker.Tick(dt) {
			e.done = true
			removed++
		}
	}
	if removed > 0 {
		l.entries = slices.DeleteFunc(l.entries, func(e *entry) bool { return e.done })
		for _, e := range snapshot {
			if !e.done {
				continue
			}
			l.metrics.RemovedTickers++
			l.log.Debug("ticker removed", log.String("ticker", e.name), log.Float64("time", l.now+dt))
			for _, fn := range l.onRemoved {
				fn(e.name)
			}
		}
	}
	l.now += dt
	l.metrics.Steps++
	l.metrics.LastStepTime = l.now
	l.metrics.TotalUpdateTime += time.Since(start)
	l.metrics.AverageUpdateTime = l.metrics.TotalUpdateTime / time.Duration(l.metrics.Steps)
}

// Run steps the loop until steps frames have run, the loop is empty or ctx
// is done. A non-positive steps runs until the loop is empty or ctx is
// done. The context is checked between steps.
func (l *Loop) Run(ctx context.Context, steps int, dt float64) error {
	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(l.entries) == 0 {
			return nil
		}
		l.Step(dt)
	}
	return nil
}

// Len is the number of registered tickers.
func (l *Loop) Len() int { return len(l.entries) }

// Time is the total simulated time stepped so far.
func (l *Loop) Time() float64 { return l.now }

// ExecutionOrder lists ticker names in the order a step runs them.
func (l *Loop) ExecutionOrder() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.name
	}
	return out
}

func (l *Loop) Metrics() LoopMetrics { return l.metrics }
