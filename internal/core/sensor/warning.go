package sensor

import (
	"gonum.org/v1/gonum/spatial/r3"
)

type RwrConfig struct {
	Families FamilySet
	// MinWash is the emission level that triggers the receiver; zero means 1.
	MinWash float64
}

// Rwr is a radar warning receiver. It gives the bearing to emitters that
// illuminate the owner and tells their side from the radar fingerprint.
type Rwr struct {
	base
	cfg RwrConfig
}

func NewRwr(env Env, cfg RwrConfig) *Rwr {
	if cfg.MinWash == 0 {
		cfg.MinWash = 1
	}
	return &Rwr{base: newBase(env, cfg.Families), cfg: cfg}
}

func (s *Rwr) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	pack := body.SensorPack()
	if pack == nil {
		return nil
	}
	for _, emitter := range pack.Emitting(EmissionRadio) {
		if emitter.Wash(s.env.Owner) > s.cfg.MinWash {
			c := s.contact(body)
			c.Family, c.Side = body.Family(), body.Side()
			c.Ray = s.bearing(body)
			c.Firsthand = true
			return c
		}
	}
	return nil
}

type CollisionConfig struct {
	Families FamilySet
	// A warning is raised when the nearest approach, less the other body's
	// half diagonal, is under InsideDist and comes within InsideTime.
	InsideDist float64
	InsideTime float64
}

// CollisionWarning reports bodies on a near-collision course, assuming
// both keep their velocity.
type CollisionWarning struct {
	base
	cfg      CollisionConfig
	detector Sensor
}

// NewCollisionWarning reports every threatening body.
func NewCollisionWarning(env Env, cfg CollisionConfig) *CollisionWarning {
	return &CollisionWarning{base: newBase(env, cfg.Families), cfg: cfg}
}

// NewFighterVisualCollisionWarning reports threatening bodies the pilot can
// see from a fighter canopy.
func NewFighterVisualCollisionWarning(env Env, cfg CollisionConfig, vis VisualConfig, fov Biconic) *CollisionWarning {
	s := NewCollisionWarning(env, cfg)
	vis.Families = cfg.Families
	s.detector = NewFighterVisual(env, vis, fov)
	return s
}

// NewTransportVisualCollisionWarning reports threatening bodies visible
// from a transport cockpit.
func NewTransportVisualCollisionWarning(env Env, cfg CollisionConfig, vis VisualConfig, fov Pyramid) *CollisionWarning {
	s := NewCollisionWarning(env, cfg)
	vis.Families = cfg.Families
	s.detector = NewTransportVisual(env, vis, fov)
	return s
}

// NearestApproach returns the time until two bodies separated by dpos and
// closing at dvel are nearest, and their distance then.
func NearestApproach(dpos, dvel r3.Vec) (t, dist float64) {
	t = -r3.Dot(dpos, dvel) / max(r3.Norm2(dvel), 1e-6)
	return t, r3.Norm(r3.Add(dpos, r3.Scale(t, dvel)))
}

func (s *CollisionWarning) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	owner := s.env.Owner
	t, dist := NearestApproach(r3.Sub(body.Pos(), owner.Pos()), r3.Sub(body.Vel(), owner.Vel()))
	if t <= 0 || t >= s.cfg.InsideTime {
		return nil
	}
	if dist-0.5*body.BBoxDiag() >= s.cfg.InsideDist {
		return nil
	}
	return s.detect(body)
}

func (s *CollisionWarning) detect(body Body) *Contact {
	if s.detector != nil {
		return s.detector.Test(body)
	}
	c := s.contact(body)
	c.Family = body.Family()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	c.Firsthand = true
	return c
}

func (s *CollisionWarning) Cleanup() {
	if s.detector != nil {
		s.detector.Cleanup()
	}
}

// MagicTargeted knows when a body is attacking its owner, whether or not
// it can be seen.
type MagicTargeted struct {
	base
}

func NewMagicTargeted(env Env, families FamilySet) *MagicTargeted {
	return &MagicTargeted{base: newBase(env, families)}
}

func (s *MagicTargeted) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	target := body.Target()
	if target == nil || target.ID() != s.env.Owner.ID() {
		return nil
	}
	c := s.contact(body)
	c.Family = body.Family()
	c.Ray = s.bearing(body)
	return c
}
