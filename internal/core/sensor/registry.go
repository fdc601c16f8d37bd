package sensor

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/flightcore/internal/core/systems/physics"
)

// Params are the raw settings of one sensor in a pack spec. Angles are in
// degrees.
type Params map[string]any

// Factory builds a sensor bound to env from its params.
type Factory func(env Env, params Params) (Sensor, error)

// paramReader reads typed values out of Params and collects every problem
// so a spec reports all of its mistakes at once.
type paramReader struct {
	params Params
	errs   []error
}

func (r *paramReader) fail(key, want string, v any) {
	r.errs = append(r.errs, fmt.Errorf("param %q: want %s, got %T", key, want, v))
}

func (r *paramReader) getFloat(key string, def float64, required bool) float64 {
	v, ok := r.params[key]
	if !ok {
		if required {
			r.errs = append(r.errs, fmt.Errorf("param %q is required", key))
		}
		return def
	}
	switch tv := v.(type) {
	case float64:
		return tv
	case float32:
		return float64(tv)
	case int:
		return float64(tv)
	case int64:
		return float64(tv)
	default:
		r.fail(key, "number", v)
		return def
	}
}

// getAngle reads degrees and returns radians.
func (r *paramReader) getAngle(key string, def float64, required bool) float64 {
	return physics.Radians(r.getFloat(key, def, required))
}

func (r *paramReader) getBool(key string, def bool) bool {
	v, ok := r.params[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, "bool", v)
		return def
	}
	return b
}

func (r *paramReader) getString(key, def string) string {
	v, ok := r.params[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "string", v)
		return def
	}
	return s
}

func (r *paramReader) getFamilies(key string, required bool) FamilySet {
	v, ok := r.params[key]
	if !ok {
		if required {
			r.errs = append(r.errs, fmt.Errorf("param %q is required", key))
		}
		return FamilySet{}
	}
	var names []string
	switch tv := v.(type) {
	case []string:
		names = tv
	case []any:
		for _, item := range tv {
			s, ok := item.(string)
			if !ok {
				r.fail(key, "list of strings", v)
				return FamilySet{}
			}
			names = append(names, s)
		}
	default:
		r.fail(key, "list of strings", v)
		return FamilySet{}
	}
	set := make(FamilySet, len(names))
	for _, n := range names {
		set.Add(Family(n))
	}
	return set
}

func (r *paramReader) getSizeRef(key string) SizeRef {
	switch ref := SizeRef(r.getString(key, string(SizeDiag))); ref {
	case SizeDiag, SizeProjArea:
		return ref
	default:
		r.errs = append(r.errs, fmt.Errorf("param %q: unknown size reference %q", key, ref))
		return SizeDiag
	}
}

func (r *paramReader) getMount() physics.Attitude {
	return physics.AttitudeDeg(r.getFloat("mount_heading", 0, false), r.getFloat("mount_pitch", 0, false), r.getFloat("mount_roll", 0, false))
}

func (r *paramReader) getPyramid(down, up, top string) Pyramid {
	return Pyramid{Down: r.getAngle(down, 0, true), Up: r.getAngle(up, 0, true), Top: r.getAngle(top, 0, true)}
}

func (r *paramReader) getBiconic() Biconic {
	return Biconic{
		Front: r.getAngle("front_angle", 0, true),
		Rear:  r.getAngle("rear_angle", 0, true),
		Side:  r.getAngle("side_angle", 0, true),
	}
}

func (r *paramReader) getVisual() VisualConfig {
	return VisualConfig{
		Families:    r.getFamilies("families", true),
		SizeRef:     r.getSizeRef("size_ref"),
		RelSight:    r.getFloat("rel_sight", 1, false),
		ConsiderSun: r.getBool("consider_sun", false),
	}
}

func (r *paramReader) getCollision() CollisionConfig {
	return CollisionConfig{
		Families:   r.getFamilies("families", true),
		InsideDist: r.getFloat("inside_dist", 0, true),
		InsideTime: r.getFloat("inside_time", 0, true),
	}
}

func (r *paramReader) err() error { return errors.Join(r.errs...) }

// Registry maps sensor type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in sensor types.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[string]Factory)}
	RegisterBuiltins(reg)
	return reg
}

// Register installs or replaces the factory for typ.
func (reg *Registry) Register(typ string, f Factory) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.factories[typ] = f
}

func (reg *Registry) Build(typ string, env Env, params Params) (Sensor, error) {
	reg.mu.RLock()
	f, ok := reg.factories[typ]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sensor type: %s", typ)
	}
	s, err := f(env, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s sensor: %w", typ, err)
	}
	return s, nil
}

// Types lists the registered type names, sorted.
func (reg *Registry) Types() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	types := make([]string, 0, len(reg.factories))
	for typ := range reg.factories {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// build wraps a constructor so that param errors abort construction.
func build[S Sensor](read func(env Env, r *paramReader) S) Factory {
	return func(env Env, params Params) (Sensor, error) {
		r := &paramReader{params: params}
		s := read(env, r)
		if err := r.err(); err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (r *paramReader) getRadar() RadarConfig {
	return RadarConfig{
		Families: r.getFamilies("families", true),
		RefRange: r.getFloat("ref_range", 0, true),
		FOV:      r.getPyramid("down_angle", "up_angle", "top_angle"),
		Mount:    r.getMount(),
	}
}

// RegisterBuiltins installs every sensor type of this package into reg.
func RegisterBuiltins(reg *Registry) {
	reg.Register("radar", build(func(env Env, r *paramReader) *Radar {
		return NewRadar(env, r.getRadar())
	}))
	reg.Register("irst", build(func(env Env, r *paramReader) *Irst {
		return NewIrst(env, r.getRadar())
	}))
	reg.Register("visual", build(func(env Env, r *paramReader) *Visual {
		return NewVisual(env, r.getVisual())
	}))
	reg.Register("fighter_visual", build(func(env Env, r *paramReader) *Visual {
		return NewFighterVisual(env, r.getVisual(), r.getBiconic())
	}))
	reg.Register("transport_visual", build(func(env Env, r *paramReader) *Visual {
		return NewTransportVisual(env, r.getVisual(), r.getPyramid("down_angle", "up_angle", "top_angle"))
	}))
	reg.Register("tv", build(func(env Env, r *paramReader) *Tv {
		return NewTv(env, TvConfig{
			Families:   r.getFamilies("families", true),
			RefRange:   r.getFloat("ref_range", 0, true),
			MinUpAngle: r.getAngle("min_up_angle", 0, true),
			MaxUpAngle: r.getAngle("max_up_angle", 0, true),
			TopAngle:   r.getAngle("top_angle", 0, true),
			SizeRef:    r.getSizeRef("size_ref"),
		})
	}))
	reg.Register("rwr", build(func(env Env, r *paramReader) *Rwr {
		return NewRwr(env, RwrConfig{Families: r.getFamilies("families", true), MinWash: r.getFloat("min_wash", 1, false)})
	}))
	reg.Register("collision_warning", build(func(env Env, r *paramReader) *CollisionWarning {
		return NewCollisionWarning(env, r.getCollision())
	}))
	reg.Register("fighter_visual_collision_warning", build(func(env Env, r *paramReader) *CollisionWarning {
		return NewFighterVisualCollisionWarning(env, r.getCollision(), r.getVisual(), r.getBiconic())
	}))
	reg.Register("transport_visual_collision_warning", build(func(env Env, r *paramReader) *CollisionWarning {
		return NewTransportVisualCollisionWarning(env, r.getCollision(), r.getVisual(),
			r.getPyramid("down_angle", "up_angle", "top_angle"))
	}))
	reg.Register("datalink", build(func(env Env, r *paramReader) *DataLink {
		families := r.getFamilies("families", true)
		send := families
		if _, ok := r.params["send_families"]; ok {
			send = r.getFamilies("send_families", false)
		}
		return NewDataLink(env, DataLinkConfig{
			Families:     families,
			SendFamilies: send,
			CanReceive:   r.getBool("can_receive", true),
			CanSend:      r.getBool("can_send", true),
		})
	}))
	reg.Register("comm", build(func(env Env, r *paramReader) *Comm {
		return NewComm(env, r.getFamilies("families", true))
	}))
	reg.Register("magic_targeted", build(func(env Env, r *paramReader) *MagicTargeted {
		return NewMagicTargeted(env, r.getFamilies("families", true))
	}))
}
