// Package scenario loads YAML engagement scenarios, builds the world, the
// crafts and their sensor packs from them, and runs them headless on the
// tick loop.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/core/world"
	"gopkg.in/yaml.v3"
)

const (
	defaultDt             = 0.05
	defaultShotFineTime   = 10.0
	defaultShotMaxFlyTime = 60.0
)

// Scenario is the top level of a scenario file.
type Scenario struct {
	Name     string  `yaml:"name"`
	Seed     uint64  `yaml:"seed"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`

	Sky         *world.Sky      `yaml:"sky"`
	Allied      [][]sensor.Side `yaml:"allied"`
	AlliedToAll []sensor.Side   `yaml:"allied_to_all"`

	Bodies []BodySpec `yaml:"bodies"`
	// TelemetryEvery broadcasts a frame every that many ticks; zero turns
	// the feed off.
	TelemetryEvery int `yaml:"telemetry_every"`
}

// BodySpec is one craft with its route, sensors and weapon.
type BodySpec struct {
	world.CraftConfig `yaml:",inline"`

	Target  string           `yaml:"target"`
	Route   *RouteSpec       `yaml:"route"`
	Sensors *sensor.PackSpec `yaml:"sensors"`
	Weapon  *WeaponSpec      `yaml:"weapon"`
	// DestroyAt kills the craft at that scenario time, when positive.
	DestroyAt float64 `yaml:"destroy_at"`
}

// WeaponSpec describes the shot used to compute firing solutions against
// tracked contacts.
type WeaponSpec struct {
	ShotSpeed  float64 `yaml:"shot_speed"`
	ShotAccMag float64 `yaml:"shot_acc"`
	// MaxFlyTime discards solutions the shot cannot reach in time.
	MaxFlyTime float64 `yaml:"max_fly_time"`
}

// Load decodes and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	return &sc, nil
}

func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (sc *Scenario) applyDefaults() {
	if sc.Dt == 0 {
		sc.Dt = defaultDt
	}
	for i := range sc.Bodies {
		if w := sc.Bodies[i].Weapon; w != nil && w.MaxFlyTime == 0 {
			w.MaxFlyTime = defaultShotMaxFlyTime
		}
	}
}

// Steps is the number of ticks the scenario runs.
func (sc *Scenario) Steps() int {
	return int(sc.Duration/sc.Dt + 0.5)
}

func (sc *Scenario) Validate() error {
	var errs []error
	if sc.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if sc.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %v", sc.Dt))
	}
	if sc.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %v", sc.Duration))
	}
	if sc.TelemetryEvery < 0 {
		errs = append(errs, fmt.Errorf("telemetry_every must not be negative, got %d", sc.TelemetryEvery))
	}

	names := make(map[string]bool, len(sc.Bodies))
	for _, b := range sc.Bodies {
		if names[b.Name] {
			errs = append(errs, fmt.Errorf("body %q: %w", b.Name, world.ErrDuplicateCraft))
		}
		names[b.Name] = true
	}
	for _, b := range sc.Bodies {
		if err := b.validate(names); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *BodySpec) validate(names map[string]bool) error {
	if err := b.CraftConfig.Validate(); err != nil {
		return err
	}
	if b.Target != "" && !names[b.Target] {
		return fmt.Errorf("body %q: unknown target %q", b.Name, b.Target)
	}
	if b.Target == b.Name && b.Target != "" {
		return fmt.Errorf("body %q: targets itself", b.Name)
	}
	if b.Route != nil {
		if err := b.Route.validate(); err != nil {
			return fmt.Errorf("body %q: route: %w", b.Name, err)
		}
	}
	if b.Sensors != nil {
		if err := b.Sensors.Validate(); err != nil {
			return fmt.Errorf("body %q: sensors: %w", b.Name, err)
		}
	}
	if w := b.Weapon; w != nil && (w.ShotSpeed <= 0 || w.ShotAccMag < 0) {
		return fmt.Errorf("body %q: weapon needs a positive shot speed", b.Name)
	}
	return nil
}
