package sensor

import (
	"errors"
	"fmt"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrBodyMismatch is the panic value, wrapped, when contact data is merged
// across different bodies.
var ErrBodyMismatch = errors.New("sensor: contact bodies differ")

// Ray is a bearing-only observation from Origin along the unit vector Dir.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// Contact is what is known about one body at Time. Nil and empty fields
// are unknown.
type Contact struct {
	Body    Body
	Family  Family
	Species string
	Side    Side
	Ray     *Ray
	Pos     *r3.Vec
	Vel     *r3.Vec
	Acc     *r3.Vec

	// Track marks data good enough to follow the body between scans.
	Track bool
	// Firsthand marks data observed directly rather than relayed.
	Firsthand bool
	Time      float64

	clock Clock
}

// NewContact returns an empty contact on body stamped with the current time.
func NewContact(clock Clock, body Body) *Contact {
	c := &Contact{Body: body, clock: clock}
	c.Time = c.now()
	return c
}

func vec(v r3.Vec) *r3.Vec { return &v }

func (c *Contact) now() float64 {
	if c.clock == nil {
		return c.Time
	}
	return c.clock.Time()
}

func (c *Contact) mustMatch(o *Contact, op string) {
	if o.Body.ID() != c.Body.ID() {
		panic(fmt.Errorf("%w: cannot %s %s into %s", ErrBodyMismatch, op, o.Body.Name(), c.Body.Name()))
	}
}

// Copy overwrites every field of c with those of o.
func (c *Contact) Copy(o *Contact) {
	c.mustMatch(o, "copy")
	clock := c.clock
	*c = *o
	if clock != nil {
		c.clock = clock
	}
}

// Accumulate merges o into c: known fields of o overwrite, flags are
// combined with OR and the later time wins.
func (c *Contact) Accumulate(o *Contact) {
	c.mustMatch(o, "accumulate")
	if o.Family != "" {
		c.Family = o.Family
	}
	if o.Species != "" {
		c.Species = o.Species
	}
	if o.Side != "" {
		c.Side = o.Side
	}
	if o.Ray != nil {
		c.Ray = o.Ray
	}
	if o.Pos != nil {
		c.Pos = o.Pos
	}
	if o.Vel != nil {
		c.Vel = o.Vel
	}
	if o.Acc != nil {
		c.Acc = o.Acc
	}
	c.Track = c.Track || o.Track
	c.Firsthand = c.Firsthand || o.Firsthand
	c.Time = max(c.Time, o.Time)
}

// Clone returns a detached copy. Vector fields are shared; they are never
// mutated in place.
func (c *Contact) Clone() *Contact {
	cc := *c
	return &cc
}

func (c *Contact) Trackable() bool {
	return c.Track && c.Pos != nil && c.Body.Alive()
}

// UpdateForMotion refreshes the known kinematics from the live body and
// re-aims the ray from its original origin. Nothing changes once the body
// is dead.
func (c *Contact) UpdateForMotion() {
	if !c.Body.Alive() {
		return
	}
	if c.Ray != nil {
		c.Ray = &Ray{
			Origin: c.Ray.Origin,
			Dir:    physics.UnitOrZero(r3.Sub(c.Body.Pos(), c.Ray.Origin)),
		}
	}
	if c.Pos != nil {
		c.Pos = vec(c.Body.Pos())
	}
	if c.Vel != nil {
		c.Vel = vec(c.Body.Vel())
	}
	if c.Acc != nil {
		c.Acc = vec(c.Body.Acc())
	}
	c.Time = c.now()
}

// EstimatePos extrapolates the position to the current time with whatever
// velocity and acceleration are known.
func (c *Contact) EstimatePos() *r3.Vec {
	if c.Pos == nil {
		return nil
	}
	dt := c.now() - c.Time
	if dt <= 0 {
		return c.Pos
	}
	p := *c.Pos
	if c.Vel != nil {
		p = r3.Add(p, r3.Scale(dt, *c.Vel))
		if c.Acc != nil {
			p = r3.Add(p, r3.Scale(0.5*dt*dt, *c.Acc))
		}
	}
	return &p
}

// EstimateVel extrapolates the velocity to the current time when the
// acceleration is known.
func (c *Contact) EstimateVel() *r3.Vec {
	if c.Vel == nil {
		return nil
	}
	dt := c.now() - c.Time
	if c.Acc == nil || dt <= 0 {
		return c.Vel
	}
	return vec(r3.Add(*c.Vel, r3.Scale(dt, *c.Acc)))
}

func (c *Contact) String() string {
	return fmt.Sprintf("contact(%s family=%q side=%q track=%t firsthand=%t t=%.2f)",
		c.Body.Name(), c.Family, c.Side, c.Track, c.Firsthand, c.Time)
}
