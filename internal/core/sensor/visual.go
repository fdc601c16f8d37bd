package sensor

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Reference target for the eye: a medium fighter.
const (
	visualRefRange = 15e3
	visualRefDiag  = 20.0
	visualRefArea  = 200.0

	// Inside sunInAngle off the sun a target is lost in the glare; the glare
	// fades out by sunOutAngle.
	sunInAngle  = 5 * math.Pi / 180
	sunOutAngle = 25 * math.Pi / 180

	// Fractions of detection range within which more is resolved.
	visualIdentFraction = 0.8
	visualAccFraction   = 0.5
)

// Reference target for television seekers: a main battle tank.
const (
	tvRefDiag = 8.0
	tvRefArea = 28.0
	// tvMaxRangeFactor caps range on very large targets.
	tvMaxRangeFactor = 3.0
)

type VisualConfig struct {
	Families FamilySet
	SizeRef  SizeRef
	// RelSight scales the range for eyesight acuity; zero means 1.
	RelSight    float64
	ConsiderSun bool
}

// Visual is the naked eye. It never flags contacts for tracking and only
// resolves side and species near the limit of its range.
type Visual struct {
	base
	cfg    VisualConfig
	inside func(rel r3.Vec) bool
}

// NewVisual sees in every direction.
func NewVisual(env Env, cfg VisualConfig) *Visual {
	if cfg.RelSight == 0 {
		cfg.RelSight = 1
	}
	return &Visual{base: newBase(env, cfg.Families), cfg: cfg}
}

// NewFighterVisual is the view from a fighter canopy.
func NewFighterVisual(env Env, cfg VisualConfig, fov Biconic) *Visual {
	s := NewVisual(env, cfg)
	s.inside = fov.Contains
	return s
}

// NewTransportVisual is the view through the windows of a large aircraft.
func NewTransportVisual(env Env, cfg VisualConfig, fov Pyramid) *Visual {
	s := NewVisual(env, cfg)
	s.inside = fov.Contains
	return s
}

func sizeFactor(ref SizeRef, body Body, dir r3.Vec, refDiag, refArea float64) float64 {
	if ref == SizeProjArea {
		return math.Sqrt(max(body.ProjectBBoxArea(dir), 0) / refArea)
	}
	return body.BBoxDiag() / refDiag
}

// DetectionRange is the range at which body is seen along the owner-frame
// direction dir.
func (s *Visual) DetectionRange(body Body, dir r3.Vec) float64 {
	owner := s.env.Owner
	detrange := visualRefRange * sizeFactor(s.cfg.SizeRef, body, owner.Frame().ToWorld(dir), visualRefDiag, visualRefArea)

	sky := s.env.World.Sky()
	relvis := sky.RelativeVisibility()
	if s.cfg.ConsiderSun {
		sun := physics.UnitOrZero(owner.Frame().ToLocal(sky.SunDir()))
		offsun := math.Acos(physics.Clamp(r3.Dot(sun, dir), -1, 1))
		if offsun < sunOutAngle {
			glare := physics.Ratio01(offsun, sunInAngle, sunOutAngle)
			relvis *= physics.Blend01(sky.SunStrength(), 1, glare)
		}
	}
	return detrange * relvis * s.cfg.RelSight
}

func (s *Visual) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	rel := s.relative(body, physics.Identity())
	dist := r3.Norm(rel)
	detrange := s.DetectionRange(body, physics.UnitOrZero(rel))
	if dist > detrange || (s.inside != nil && !s.inside(rel)) {
		return nil
	}
	c := s.contact(body)
	c.Family = body.Family()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	if dist < visualAccFraction*detrange {
		c.Acc = vec(body.Acc())
	}
	if dist < visualIdentFraction*detrange {
		c.Side, c.Species = body.Side(), body.Species()
	}
	c.Firsthand = true
	return c
}

type TvConfig struct {
	Families   FamilySet
	RefRange   float64
	MinUpAngle float64
	MaxUpAngle float64
	TopAngle   float64
	SizeRef    SizeRef
}

// Tv is an electro-optical ground-attack seeker.
type Tv struct {
	base
	cfg TvConfig
	fov Pyramid
}

func NewTv(env Env, cfg TvConfig) *Tv {
	return &Tv{
		base: newBase(env, cfg.Families),
		cfg:  cfg,
		fov:  Pyramid{Down: -cfg.MinUpAngle, Up: cfg.MaxUpAngle, Top: cfg.TopAngle},
	}
}

// DetectionRange scales the reference range by target size, caps it and
// then shortens it for ground clutter.
func (s *Tv) DetectionRange(body Body, dir r3.Vec) float64 {
	ref := s.cfg.RefRange
	detrange := ref * sizeFactor(s.cfg.SizeRef, body, s.env.Owner.Frame().ToWorld(dir), tvRefDiag, tvRefArea)
	detrange = min(detrange, ref*tvMaxRangeFactor)
	if detrange > 0 {
		detrange *= math.Sqrt(ref / detrange)
	}
	return detrange
}

func (s *Tv) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	rel := s.relative(body, physics.Identity())
	dist := r3.Norm(rel)
	if dist > s.DetectionRange(body, physics.UnitOrZero(rel)) || !s.fov.Contains(rel) {
		return nil
	}
	c := s.contact(body)
	c.Family, c.Species, c.Side = body.Family(), body.Species(), body.Side()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	c.Track, c.Firsthand = true, true
	return c
}
