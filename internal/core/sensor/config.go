package sensor

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PackSpec describes a sensor pack in YAML. Unset fields take the defaults
// of DefaultPackConfig; an absent scan list scans every family.
type PackSpec struct {
	ScanPeriod          *float64     `json:"scan_period,omitempty" yaml:"scan_period,omitempty"`
	RelativeFluctuation *float64     `json:"relative_fluctuation,omitempty" yaml:"relative_fluctuation,omitempty"`
	MaxTracked          *int         `json:"max_tracked,omitempty" yaml:"max_tracked,omitempty"`
	Scan                []Family     `json:"scan,omitempty" yaml:"scan,omitempty"`
	Emissive            *bool        `json:"emissive,omitempty" yaml:"emissive,omitempty"`
	Sensors             []SensorSpec `json:"sensors" yaml:"sensors"`
}

type SensorSpec struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadPackSpecYAML decodes and validates a pack spec.
func LoadPackSpecYAML(r io.Reader) (*PackSpec, error) {
	var spec PackSpec
	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode pack spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pack spec: %w", err)
	}
	return &spec, nil
}

func (ps *PackSpec) Validate() error {
	if ps.ScanPeriod != nil && *ps.ScanPeriod <= 0 {
		return fmt.Errorf("scan period must be positive, got %g", *ps.ScanPeriod)
	}
	if ps.RelativeFluctuation != nil && (*ps.RelativeFluctuation < 0 || *ps.RelativeFluctuation >= 1) {
		return fmt.Errorf("relative fluctuation must be in [0, 1), got %g", *ps.RelativeFluctuation)
	}
	if ps.MaxTracked != nil && *ps.MaxTracked < 0 {
		return fmt.Errorf("max tracked must not be negative, got %d", *ps.MaxTracked)
	}
	seen := make(map[string]bool, len(ps.Sensors))
	for i, s := range ps.Sensors {
		if s.Name == "" {
			return fmt.Errorf("sensor %d: name is required", i)
		}
		if s.Type == "" {
			return fmt.Errorf("sensor %q: type is required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("sensor %q: %w", s.Name, ErrDuplicateSensor)
		}
		seen[s.Name] = true
	}
	return nil
}

// Config resolves the scan parameters against the defaults.
func (ps *PackSpec) Config() PackConfig {
	cfg := DefaultPackConfig()
	if ps.ScanPeriod != nil {
		cfg.ScanPeriod = *ps.ScanPeriod
	}
	if ps.RelativeFluctuation != nil {
		cfg.RelativeFluctuation = *ps.RelativeFluctuation
	}
	if ps.MaxTracked != nil {
		cfg.MaxTracked = *ps.MaxTracked
	}
	return cfg
}

// Build creates the pack for env.Owner and installs every sensor through
// reg. On error the sensors already built are cleaned up.
func (ps *PackSpec) Build(env Env, reg *Registry, opts ...PackOption) (*Pack, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	pack := NewPack(env.Owner, env.World, ps.Config(), opts...)
	for _, spec := range ps.Sensors {
		s, err := reg.Build(spec.Type, env, spec.Params)
		if err != nil {
			pack.Destroy()
			return nil, fmt.Errorf("sensor %q: %w", spec.Name, err)
		}
		if err := pack.Add(s, spec.Name); err != nil {
			s.Cleanup()
			pack.Destroy()
			return nil, err
		}
	}
	if ps.Scan != nil {
		pack.StartScanning(NewFamilySet(ps.Scan...))
	}
	if ps.Emissive != nil {
		pack.SetEmissive(*ps.Emissive)
	}
	return pack, nil
}
