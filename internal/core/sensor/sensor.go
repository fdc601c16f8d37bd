package sensor

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sensor holds detection parameters and tests single bodies. Scheduling
// and state live in the Pack.
type Sensor interface {
	// Families is the set of families the sensor can detect.
	Families() FamilySet
	Emission() Emission
	// Test returns what the sensor perceives of body now, or nil.
	Test(body Body) *Contact
	// Note is told about every fused contact of the pack, with the time
	// after which any data relayed from it should be dropped.
	Note(c *Contact, expire float64)
	// Wash is the relative emission the sensor puts on body: 1 on axis at
	// reference range, larger when closer, 0 outside the emission cone.
	Wash(body Body) float64
	Cleanup()
}

// Env binds a sensor to its carrier.
type Env struct {
	Owner Body
	World World
	// Board is the relay used by data links and voice channels. Sensors
	// that relay nothing ignore it.
	Board *Board
}

type base struct {
	env      Env
	families FamilySet
}

func newBase(env Env, families FamilySet) base {
	return base{env: env, families: families.Clone()}
}

func (s *base) Families() FamilySet        { return s.families }
func (s *base) Emission() Emission         { return EmissionNone }
func (s *base) Note(*Contact, float64)     {}
func (s *base) Wash(Body) float64          { return 0 }
func (s *base) Cleanup()                   {}
func (s *base) accepts(body Body) bool     { return body.Alive() && s.families.Has(body.Family()) }
func (s *base) contact(body Body) *Contact { return NewContact(s.env.World, body) }

// relative returns body's position in the owner frame composed with mount.
func (s *base) relative(body Body, mount physics.Frame) r3.Vec {
	owner := s.env.Owner
	return owner.Frame().Compose(mount).ToLocal(r3.Sub(body.Pos(), owner.Pos()))
}

// bearing is the unit ray from the owner to body.
func (s *base) bearing(body Body) *Ray {
	origin := s.env.Owner.Pos()
	return &Ray{Origin: origin, Dir: physics.UnitOrZero(r3.Sub(body.Pos(), origin))}
}

// Pyramid is a field of view bounded by the off-boresight angle Top and the
// elevation band [-Down, Up], all in radians. Boresight is the local +Y.
type Pyramid struct {
	Down, Up, Top float64
}

func (p Pyramid) Contains(rel r3.Vec) bool {
	if math.Atan2(math.Abs(rel.X), rel.Y) > p.Top {
		return false
	}
	el := math.Atan2(rel.Z, math.Hypot(rel.X, rel.Y))
	return -p.Down <= el && el <= p.Up
}

// Biconic is a cockpit field of view: two cones opening upward over the
// front and rear hemispheres, cut to Side either way. Front and Rear are
// measured down from straight up, so past 90 degrees they reach below the
// horizon.
type Biconic struct {
	Front, Rear, Side float64
}

func (b Biconic) Contains(rel r3.Vec) bool {
	var pz float64
	if rel.Y > 0 {
		pz = rel.Y * math.Tan(0.5*math.Pi-b.Front)
	} else {
		pz = -rel.Y * math.Tan(0.5*math.Pi-b.Rear)
	}
	return math.Atan2(math.Abs(rel.X), rel.Z-pz) <= b.Side
}
