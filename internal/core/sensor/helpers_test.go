package sensor

import (
	"github.com/google/uuid"
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeBody struct {
	id      uuid.UUID
	name    string
	dead    bool
	family  Family
	species string
	side    Side

	pos, vel, acc r3.Vec
	frame         physics.Frame

	diag     float64
	area     float64
	rcs      float64
	irPower  float64
	irAspect float64

	target Body
	pack   *Pack
	jammed bool
}

func newBody(name string, family Family, side Side, pos r3.Vec) *fakeBody {
	return &fakeBody{
		id:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		name:    name,
		family:  family,
		species: string(family) + "-x",
		side:    side,
		pos:     pos,
		frame:   physics.Identity(),
		diag:    20,
		area:    200,
		rcs:     radarRefRCS,
	}
}

func (b *fakeBody) ID() uuid.UUID                  { return b.id }
func (b *fakeBody) Name() string                   { return b.name }
func (b *fakeBody) Alive() bool                    { return !b.dead }
func (b *fakeBody) Family() Family                 { return b.family }
func (b *fakeBody) Species() string                { return b.species }
func (b *fakeBody) Side() Side                     { return b.side }
func (b *fakeBody) Pos() r3.Vec                    { return b.pos }
func (b *fakeBody) Vel() r3.Vec                    { return b.vel }
func (b *fakeBody) Acc() r3.Vec                    { return b.acc }
func (b *fakeBody) Frame() physics.Frame           { return b.frame }
func (b *fakeBody) BBoxDiag() float64              { return b.diag }
func (b *fakeBody) ProjectBBoxArea(r3.Vec) float64 { return b.area }
func (b *fakeBody) RCS() float64                   { return b.rcs }
func (b *fakeBody) IREqPower() float64             { return b.irPower }
func (b *fakeBody) IRAspect() float64              { return b.irAspect }
func (b *fakeBody) Target() Body                   { return b.target }
func (b *fakeBody) SensorPack() *Pack              { return b.pack }
func (b *fakeBody) Jammed() bool                   { return b.jammed }

type fakeSky struct {
	vis      float64
	sun      r3.Vec
	strength float64
}

func (s fakeSky) RelativeVisibility() float64 { return s.vis }
func (s fakeSky) SunDir() r3.Vec              { return s.sun }
func (s fakeSky) SunStrength() float64        { return s.strength }

type fakeWorld struct {
	t, dt  float64
	bodies []Body
	sky    fakeSky
	board  *Board
}

func newWorld(bodies ...*fakeBody) *fakeWorld {
	w := &fakeWorld{
		sky:   fakeSky{vis: 1, sun: r3.Vec{Z: 1}},
		board: NewBoard(),
	}
	for _, b := range bodies {
		w.bodies = append(w.bodies, b)
	}
	return w
}

func (w *fakeWorld) Time() float64      { return w.t }
func (w *fakeWorld) DeltaTime() float64 { return w.dt }
func (w *fakeWorld) Sky() Sky           { return w.sky }

func (w *fakeWorld) SelectBodies(families FamilySet) []Body {
	var out []Body
	for _, b := range w.bodies {
		if families.Has(b.Family()) {
			out = append(out, b)
		}
	}
	return out
}

func (w *fakeWorld) env(owner Body) Env {
	return Env{Owner: owner, World: w, Board: w.board}
}

// step runs one tick the way the simulation loop does: clock, packs, then
// the relay commit.
func (w *fakeWorld) step(dt float64, packs ...*Pack) {
	w.dt = dt
	w.t += dt
	for _, p := range packs {
		p.Tick(dt)
	}
	w.board.Commit(w.t)
}

// stubSensor sees every accepted body with full trackable kinematics
// unless test overrides it.
type stubSensor struct {
	base
	emission Emission
	test     func(Body) *Contact
	tests    map[string]int
	notes    int
	cleanups int
}

func newStub(env Env, families ...Family) *stubSensor {
	return &stubSensor{base: newBase(env, NewFamilySet(families...)), tests: make(map[string]int)}
}

func (s *stubSensor) Emission() Emission { return s.emission }
func (s *stubSensor) Cleanup()           { s.cleanups++ }

func (s *stubSensor) Note(*Contact, float64) { s.notes++ }

func (s *stubSensor) Test(body Body) *Contact {
	s.tests[body.Name()]++
	if !s.accepts(body) {
		return nil
	}
	if s.test != nil {
		return s.test(body)
	}
	c := s.contact(body)
	c.Family, c.Side = body.Family(), body.Side()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	c.Track, c.Firsthand = true, true
	return c
}
