// Package world is the concrete simulation world that sensor packs scan:
// the crafts, their alliances, the sky, the terrain elevation and the relay
// board, together with the world clock.
package world

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/core/systems"
)

var (
	ErrDuplicateCraft = errors.New("duplicate craft")
	ErrUnknownCraft   = errors.New("unknown craft")
)

// Elevation returns the terrain height at a horizontal position.
type Elevation func(x, y float64) float64

type sideSet map[sensor.Side]struct{}

type World struct {
	t, dt float64

	crafts []*Craft
	byID   map[uuid.UUID]*Craft
	byName map[string]*Craft
	cache  map[string][]sensor.Body

	allied      map[sensor.Side]sideSet
	alliedToAll sideSet

	sky       Sky
	elevation Elevation
	board     *sensor.Board
	log       log.Log
}

var _ sensor.World = (*World)(nil)

type Option func(*World)

func WithLogger(l log.Log) Option { return func(w *World) { w.log = l } }
func WithSky(s Sky) Option        { return func(w *World) { w.sky = s } }

func WithElevation(e Elevation) Option {
	return func(w *World) { w.elevation = e }
}

// WithBoard shares an existing relay board instead of a fresh one.
func WithBoard(b *sensor.Board) Option {
	return func(w *World) { w.board = b }
}

func New(opts ...Option) *World {
	w := &World{
		byID:        make(map[uuid.UUID]*Craft),
		byName:      make(map[string]*Craft),
		cache:       make(map[string][]sensor.Body),
		allied:      make(map[sensor.Side]sideSet),
		alliedToAll: make(sideSet),
		sky:         ClearSky(),
		elevation:   func(float64, float64) float64 { return 0 },
		log:         log.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.board == nil {
		w.board = sensor.NewBoard()
	}
	w.log = w.log.Named("world")
	return w
}

func (w *World) Time() float64        { return w.t }
func (w *World) DeltaTime() float64   { return w.dt }
func (w *World) Sky() sensor.Sky      { return w.sky }
func (w *World) Board() *sensor.Board { return w.board }

func (w *World) Elevation(x, y float64) float64 { return w.elevation(x, y) }

// Env binds a sensor to c in this world.
func (w *World) Env(c *Craft) sensor.Env {
	return sensor.Env{Owner: c, World: w, Board: w.board}
}

// Advance moves the clock forward by dt and drops the select cache.
func (w *World) Advance(dt float64) {
	w.dt = dt
	w.t += dt
	clear(w.cache)
}

// Add inserts a craft. Names are unique within a world.
func (w *World) Add(c *Craft) error {
	if _, ok := w.byName[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCraft, c.Name())
	}
	w.crafts = append(w.crafts, c)
	w.byID[c.ID()] = c
	w.byName[c.Name()] = c
	clear(w.cache)
	w.log.Debug("craft added",
		log.String("craft", c.Name()),
		log.String("family", string(c.Family())),
		log.String("side", string(c.Side())),
	)
	return nil
}

func (w *World) Remove(id uuid.UUID) error {
	c, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCraft, id)
	}
	w.crafts = slices.DeleteFunc(w.crafts, func(o *Craft) bool { return o == c })
	delete(w.byID, id)
	delete(w.byName, c.Name())
	clear(w.cache)
	return nil
}

// Crafts lists every craft, dead or alive, in insertion order.
func (w *World) Crafts() []*Craft { return slices.Clone(w.crafts) }

func (w *World) Craft(id uuid.UUID) *Craft { return w.byID[id] }

func (w *World) FindByName(name string) *Craft { return w.byName[name] }

// Bodies lists the living crafts in insertion order.
func (w *World) Bodies() []sensor.Body {
	out := make([]sensor.Body, 0, len(w.crafts))
	for _, c := range w.crafts {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}

func familyKey(families sensor.FamilySet) string {
	sorted := families.Sorted()
	parts := make([]string, len(sorted))
	for i, f := range sorted {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// SelectBodies returns the living crafts of the given families. Results are
// cached until the next Add, Remove or Advance; callers must not modify
// the returned slice.
func (w *World) SelectBodies(families sensor.FamilySet) []sensor.Body {
	if len(families) == 0 {
		return nil
	}
	key := familyKey(families)
	if bodies, ok := w.cache[key]; ok {
		return bodies
	}
	var bodies []sensor.Body
	for _, c := range w.crafts {
		if c.Alive() && families.Has(c.Family()) {
			bodies = append(bodies, c)
		}
	}
	w.cache[key] = bodies
	return bodies
}

// SelectSpecies returns the living crafts of the given species.
func (w *World) SelectSpecies(species ...string) []sensor.Body {
	var bodies []sensor.Body
	for _, c := range w.crafts {
		if c.Alive() && slices.Contains(species, c.Species()) {
			bodies = append(bodies, c)
		}
	}
	return bodies
}

func (w *World) alliesOf(side sensor.Side) sideSet {
	set, ok := w.allied[side]
	if !ok {
		set = sideSet{side: {}}
		for s := range w.alliedToAll {
			set[s] = struct{}{}
		}
		w.allied[side] = set
	}
	return set
}

// SetAllied makes every listed side an ally of every other listed side.
// Alliances are not transitive across calls.
func (w *World) SetAllied(sides ...sensor.Side) {
	for _, side := range sides {
		set := w.alliesOf(side)
		for _, other := range sides {
			set[other] = struct{}{}
		}
	}
}

// BreakAlliance undoes SetAllied for the listed sides. A side always stays
// allied with itself.
func (w *World) BreakAlliance(sides ...sensor.Side) {
	for _, side := range sides {
		set := w.alliesOf(side)
		for _, other := range sides {
			if other != side {
				delete(set, other)
			}
		}
	}
}

// SetAlliedToAll makes the listed sides allies of every side, including
// sides first seen later.
func (w *World) SetAlliedToAll(sides ...sensor.Side) {
	for _, s := range sides {
		w.alliedToAll[s] = struct{}{}
	}
	for _, set := range w.allied {
		for _, s := range sides {
			set[s] = struct{}{}
		}
	}
}

// AlliedSides lists the sides allied with side, itself included, sorted.
func (w *World) AlliedSides(side sensor.Side) []sensor.Side {
	set := w.alliesOf(side)
	out := make([]sensor.Side, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func (w *World) IsAllied(a, b sensor.Side) bool {
	_, ok := w.alliesOf(a)[b]
	return ok
}

// Friendlies returns the living crafts of the given families whose side is
// allied with side.
func (w *World) Friendlies(families sensor.FamilySet, side sensor.Side) []sensor.Body {
	var out []sensor.Body
	for _, b := range w.SelectBodies(families) {
		if w.IsAllied(side, b.Side()) {
			out = append(out, b)
		}
	}
	return out
}

// ClockTicker advances the world clock once per loop step.
func (w *World) ClockTicker() systems.Ticker {
	return systems.TickerFunc(func(dt float64) bool {
		w.Advance(dt)
		return true
	})
}

// RelayTicker commits the relay writes of the step.
func (w *World) RelayTicker() systems.Ticker {
	return systems.TickerFunc(func(float64) bool {
		w.board.Commit(w.t)
		return true
	})
}
