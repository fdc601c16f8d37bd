package world

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/zeusync/flightcore/internal/core/curve"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// craftNamespace derives stable craft ids from names so that reruns of a
// scenario produce identical ids and scan jitter.
var craftNamespace = uuid.MustParse("3f0c9a52-6a8e-4f43-9d4c-2b1f5c7e8a10")

// CraftConfig describes a body at creation time.
type CraftConfig struct {
	Name    string        `yaml:"name"`
	Family  sensor.Family `yaml:"family"`
	Species string        `yaml:"species"`
	Side    sensor.Side   `yaml:"side"`

	Pos r3.Vec `yaml:"pos"`
	Vel r3.Vec `yaml:"vel"`
	// Size is the bounding box extent along the body X, Y and Z axes.
	Size r3.Vec `yaml:"size"`

	RCS      float64 `yaml:"rcs"`
	IRPower  float64 `yaml:"ir_power"`
	IRAspect float64 `yaml:"ir_aspect"`
	Jammed   bool    `yaml:"jammed"`
}

func (c CraftConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("craft name is required")
	case c.Family == "":
		return fmt.Errorf("craft %q: family is required", c.Name)
	case c.Size.X < 0 || c.Size.Y < 0 || c.Size.Z < 0:
		return fmt.Errorf("craft %q: negative size", c.Name)
	case c.RCS < 0 || c.IRPower < 0:
		return fmt.Errorf("craft %q: negative signature", c.Name)
	}
	return nil
}

// Craft is a kinematic body. Without a route it moves ballistically under
// its own acceleration; with one it flies the curve at constant speed and
// continues straight once the curve ends.
type Craft struct {
	id    uuid.UUID
	cfg   CraftConfig
	alive bool

	pos, vel, acc r3.Vec
	frame         physics.Frame

	target sensor.Body
	pack   *sensor.Pack
	jammed bool

	route curve.Curve
	speed float64
	s     float64
}

var _ sensor.Body = (*Craft)(nil)

func NewCraft(cfg CraftConfig) *Craft {
	c := &Craft{
		id:     uuid.NewSHA1(craftNamespace, []byte(cfg.Name)),
		cfg:    cfg,
		alive:  true,
		pos:    cfg.Pos,
		vel:    cfg.Vel,
		jammed: cfg.Jammed,
	}
	c.orient()
	return c
}

func (c *Craft) orient() {
	if r3.Norm(c.vel) > 0 {
		c.frame = physics.FrameFromDirection(c.vel)
	}
}

func (c *Craft) ID() uuid.UUID         { return c.id }
func (c *Craft) Name() string          { return c.cfg.Name }
func (c *Craft) Alive() bool           { return c.alive }
func (c *Craft) Family() sensor.Family { return c.cfg.Family }
func (c *Craft) Species() string       { return c.cfg.Species }
func (c *Craft) Side() sensor.Side     { return c.cfg.Side }
func (c *Craft) Pos() r3.Vec           { return c.pos }
func (c *Craft) Vel() r3.Vec           { return c.vel }
func (c *Craft) Acc() r3.Vec           { return c.acc }
func (c *Craft) Frame() physics.Frame  { return c.frame }
func (c *Craft) RCS() float64          { return c.cfg.RCS }
func (c *Craft) IREqPower() float64    { return c.cfg.IRPower }
func (c *Craft) IRAspect() float64     { return c.cfg.IRAspect }
func (c *Craft) Jammed() bool          { return c.jammed }
func (c *Craft) SensorPack() *sensor.Pack {
	return c.pack
}

func (c *Craft) BBoxDiag() float64 { return r3.Norm(c.cfg.Size) }

func (c *Craft) ProjectBBoxArea(dir r3.Vec) float64 {
	d := c.frame.ToLocal(physics.UnitOrZero(dir))
	sz := c.cfg.Size
	return math.Abs(d.X)*sz.Y*sz.Z + math.Abs(d.Y)*sz.X*sz.Z + math.Abs(d.Z)*sz.X*sz.Y
}

func (c *Craft) Target() sensor.Body { return c.target }

// SetTarget aims the craft at t, or clears the target when t is nil.
func (c *Craft) SetTarget(t *Craft) {
	if t == nil {
		c.target = nil
		return
	}
	c.target = t
}

func (c *Craft) SetJammed(j bool) { c.jammed = j }

func (c *Craft) SetSensorPack(p *sensor.Pack) { c.pack = p }

// Place overrides the kinematic state, dropping any route.
func (c *Craft) Place(pos, vel r3.Vec) {
	c.route = nil
	c.pos, c.vel, c.acc = pos, vel, r3.Vec{}
	c.orient()
}

// Fly puts the craft on route at the given speed, starting at the curve's
// first point.
func (c *Craft) Fly(route curve.Curve, speed float64) {
	c.route, c.speed, c.s = route, speed, 0
	c.follow()
}

// OnRoute reports whether the craft is still following a curve.
func (c *Craft) OnRoute() bool { return c.route != nil }

func (c *Craft) follow() {
	s := c.s
	c.pos = c.route.Point(s)
	c.vel = r3.Scale(c.speed, c.route.Tangent(s))
	if r := c.route.Radius(s); r < curve.InfRadius {
		c.acc = r3.Scale(c.speed*c.speed/r, c.route.Normal(s))
	} else {
		c.acc = r3.Vec{}
	}
	c.orient()
}

// Destroy kills the craft. Its sensor pack tears itself down on its next
// tick.
func (c *Craft) Destroy() { c.alive = false }

// Tick advances the craft by dt seconds. It returns false once the craft is
// dead so the loop drops it.
func (c *Craft) Tick(dt float64) bool {
	if !c.alive {
		return false
	}
	if c.route != nil {
		c.s += c.speed * dt
		if c.s <= c.route.Length() {
			c.follow()
			return true
		}
		over := c.s - c.route.Length()
		c.s = c.route.Length()
		c.follow()
		c.route = nil
		c.acc = r3.Vec{}
		c.pos = r3.Add(c.pos, r3.Scale(over/c.speed, c.vel))
		return true
	}
	c.pos = r3.Add(c.pos, r3.Add(r3.Scale(dt, c.vel), r3.Scale(0.5*dt*dt, c.acc)))
	c.vel = r3.Add(c.vel, r3.Scale(dt, c.acc))
	c.orient()
	return true
}

func (c *Craft) String() string { return c.cfg.Name }
