package sensor

import (
	"math"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// radarRefRCS is the cross-section of a medium non-stealth fighter, m².
	radarRefRCS = 5.0
	// irstRefPower is a fighter at 250 m/s on 40 kN of thrust, W.
	irstRefPower = 250.0 * 40e3

	// Within this fraction of detection range emitters resolve acceleration.
	emitterAccFraction = 0.2
	minWashDistance    = 1e-3
)

// RadarConfig parameterizes Radar and Irst. RefRange is the detection range
// of a reference target; Mount orients the antenna or seeker head on the
// owner.
type RadarConfig struct {
	Families FamilySet
	RefRange float64
	FOV      Pyramid
	Mount    physics.Attitude
}

// Radar is an active sensor. It resolves family, species, side and full
// kinematics, and goes blind while its owner is jammed.
type Radar struct {
	base
	cfg   RadarConfig
	mount physics.Frame
}

func NewRadar(env Env, cfg RadarConfig) *Radar {
	return &Radar{base: newBase(env, cfg.Families), cfg: cfg, mount: physics.NewFrame(cfg.Mount)}
}

func (s *Radar) Emission() Emission { return EmissionRadio }

// DetectionRange scales the reference range by the fourth root of the
// radar cross-section ratio.
func (s *Radar) DetectionRange(rcs float64) float64 {
	return s.cfg.RefRange * math.Pow(max(rcs, 0)/radarRefRCS, 0.25)
}

func (s *Radar) Test(body Body) *Contact {
	if !s.accepts(body) || s.env.Owner.Jammed() {
		return nil
	}
	rel := s.relative(body, s.mount)
	dist := r3.Norm(rel)
	detrange := s.DetectionRange(body.RCS())
	if dist >= detrange || !s.cfg.FOV.Contains(rel) {
		return nil
	}
	c := s.contact(body)
	c.Family, c.Species, c.Side = body.Family(), body.Species(), body.Side()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	if dist < emitterAccFraction*detrange {
		c.Acc = vec(body.Acc())
	}
	c.Track, c.Firsthand = true, true
	return c
}

func (s *Radar) Wash(body Body) float64 {
	rel := s.relative(body, s.mount)
	if !s.cfg.FOV.Contains(rel) {
		return 0
	}
	r := s.cfg.RefRange / max(r3.Norm(rel), minWashDistance)
	return r * r
}

// Irst is a passive infrared search and track sensor. Range depends on the
// target's engine power and on the aspect it presents.
type Irst struct {
	base
	cfg   RadarConfig
	mount physics.Frame
}

func NewIrst(env Env, cfg RadarConfig) *Irst {
	return &Irst{base: newBase(env, cfg.Families), cfg: cfg, mount: physics.NewFrame(cfg.Mount)}
}

// DetectionRange scales the reference range by the square root of the
// equivalent power ratio, then by the aspect factor. h and p are the
// target's heading and pitch relative to the seeker, in degrees; a target
// flying straight away shows its exhaust and is seen farthest.
func (s *Irst) DetectionRange(power, aspect, h, p float64) float64 {
	pwr := math.Sqrt(max(power, 0) / irstRefPower)
	asp := 1 + aspect*(1-math.Abs(h)/90)*(1-math.Abs(p)/90)
	return s.cfg.RefRange * pwr * asp
}

func (s *Irst) platform() physics.Frame {
	return s.env.Owner.Frame().Compose(s.mount)
}

func (s *Irst) Test(body Body) *Contact {
	if !s.accepts(body) {
		return nil
	}
	h, p := physics.RelativeHeadingPitch(s.platform(), body.Frame())
	detrange := s.DetectionRange(body.IREqPower(), body.IRAspect(), h, p)
	rel := s.relative(body, s.mount)
	dist := r3.Norm(rel)
	if dist >= detrange || !s.cfg.FOV.Contains(rel) {
		return nil
	}
	c := s.contact(body)
	c.Family = body.Family()
	c.Pos, c.Vel = vec(body.Pos()), vec(body.Vel())
	if dist < emitterAccFraction*detrange {
		c.Acc = vec(body.Acc())
	}
	c.Track, c.Firsthand = true, true
	return c
}
