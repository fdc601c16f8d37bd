package sensor

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/zeusync/flightcore/internal/core/events/bus"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/pkg/sequence"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDuplicateSensor is returned when a sensor name is reused in a pack.
var ErrDuplicateSensor = errors.New("sensor: duplicate sensor name")

// Events published by a pack when it starts a new scan generation.
const (
	EventContactAcquired = "contact.acquired"
	EventContactLost     = "contact.lost"
	EventTrackDropped    = "track.dropped"
)

// relayExpireFactor stretches the relay lifetime past one scan period so
// relayed contacts survive until the next scan refreshes them.
const relayExpireFactor = 1.5

// ContactEvent is the payload of pack events.
type ContactEvent struct {
	Pack    string
	Owner   Body
	Contact *Contact
}

type PackConfig struct {
	// ScanPeriod is the time to test every candidate body once, in seconds.
	ScanPeriod float64 `yaml:"scan_period"`
	// RelativeFluctuation jitters each scan period by up to this fraction.
	RelativeFluctuation float64 `yaml:"relative_fluctuation"`
	// MaxTracked bounds the contacts refreshed every tick.
	MaxTracked int `yaml:"max_tracked"`
}

func DefaultPackConfig() PackConfig {
	return PackConfig{ScanPeriod: 1.0, RelativeFluctuation: 0.1, MaxTracked: 1}
}

// generation is one complete scan's worth of fused contacts.
type generation struct {
	contacts         []*Contact
	byBody           map[uuid.UUID]*Contact
	byFamily         map[Family][]*Contact
	bySensor         map[string][]*Contact
	sensorsByContact map[*Contact][]string
}

func newGeneration() *generation {
	return &generation{
		byBody:           make(map[uuid.UUID]*Contact),
		byFamily:         make(map[Family][]*Contact),
		bySensor:         make(map[string][]*Contact),
		sensorsByContact: make(map[*Contact][]string),
	}
}

func (g *generation) add(c *Contact, seenBy []string) {
	g.contacts = append(g.contacts, c)
	g.byBody[c.Body.ID()] = c
	for _, name := range seenBy {
		g.bySensor[name] = append(g.bySensor[name], c)
	}
	g.sensorsByContact[c] = slices.Clone(seenBy)
}

func (g *generation) has(c *Contact) bool {
	return g.byBody[c.Body.ID()] == c
}

// Pack is the set of sensors carried by one body.
//
// Each tick it tests a slice of the candidate bodies so that all of them
// are covered once per scan period. Results accumulate into a new
// generation while queries answer from the last complete one; the two are
// swapped when the candidates run out. Contacts of the same body keep their
// identity across generations, and up to MaxTracked trackable contacts are
// refreshed from their bodies every tick.
type Pack struct {
	owner Body
	world World
	cfg   PackConfig
	fluct float64
	src   rand.Source
	log   log.Log
	bus   bus.EventBus

	sensors   map[string]Sensor
	names     []string
	emitters  []string
	applied   []string
	emissive  bool
	requested FamilySet
	scanning  FamilySet

	candidates []Body
	remaining  int
	speed      float64
	cursor     float64
	period     float64

	cur, next *generation
	tracked   *sequence.Bounded[*Contact]
	alive     bool
}

type PackOption func(*Pack)

// WithSource sets the random source for scan period jitter. By default it
// is seeded from the owner ID, so runs are reproducible.
func WithSource(src rand.Source) PackOption {
	return func(p *Pack) { p.src = src }
}

func WithLogger(l log.Log) PackOption {
	return func(p *Pack) { p.log = l }
}

// WithEventBus publishes contact lifecycle events on b.
func WithEventBus(b bus.EventBus) PackOption {
	return func(p *Pack) { p.bus = b }
}

// NewPack returns an emissive pack scanning all families. A non-positive
// scan period falls back to the default.
func NewPack(owner Body, world World, cfg PackConfig, opts ...PackOption) *Pack {
	id := owner.ID()
	p := &Pack{
		owner:    owner,
		world:    world,
		src:      rand.NewPCG(xxhash.Sum64(id[:]), 0x5ca9),
		log:      log.NewNop(),
		sensors:  make(map[string]Sensor),
		emissive: true,
		scanning: make(FamilySet),
		cur:      newGeneration(),
		next:     newGeneration(),
		tracked:  sequence.NewBounded[*Contact](0),
		alive:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(log.String("pack", owner.Name()))
	p.Configure(cfg)
	return p
}

// Configure replaces the scan parameters. Shrinking MaxTracked drops the
// oldest tracked contacts.
func (p *Pack) Configure(cfg PackConfig) {
	if cfg.ScanPeriod <= 0 {
		cfg.ScanPeriod = DefaultPackConfig().ScanPeriod
	}
	cfg.RelativeFluctuation = max(cfg.RelativeFluctuation, 0)
	cfg.MaxTracked = max(cfg.MaxTracked, 0)
	p.cfg = cfg
	p.fluct = cfg.ScanPeriod * cfg.RelativeFluctuation
	p.tracked.SetCap(cfg.MaxTracked)
}

func (p *Pack) Config() PackConfig { return p.cfg }
func (p *Pack) Owner() Body        { return p.owner }
func (p *Pack) Alive() bool        { return p.alive }

// Add installs sensor under name and applies it if the current scan
// request and emission state allow.
func (p *Pack) Add(s Sensor, name string) error {
	if _, ok := p.sensors[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSensor, name)
	}
	p.sensors[name] = s
	p.names = append(p.names, name)
	slices.Sort(p.names)
	if s.Emission() != EmissionNone {
		p.emitters = append(p.emitters, name)
	}
	p.applySensors()
	p.log.Debug("sensor added", log.String("sensor", name), log.Strings("applied", p.applied))
	return nil
}

// StartScanning restricts scanning to the given families; nil scans
// everything the sensors can detect.
func (p *Pack) StartScanning(families FamilySet) {
	p.requested = families.Clone()
	p.applySensors()
}

// SetEmissive switches emitting sensors on or off.
func (p *Pack) SetEmissive(on bool) {
	p.emissive = on
	p.applySensors()
}

func (p *Pack) Emissive() bool { return p.emissive }

func (p *Pack) applySensors() {
	p.applied = p.applied[:0]
	p.scanning = make(FamilySet)
	for _, name := range p.names {
		s := p.sensors[name]
		if s.Emission() != EmissionNone && !p.emissive {
			continue
		}
		families := s.Families()
		if p.requested != nil {
			families = families.Intersect(p.requested)
			if len(families) == 0 {
				continue
			}
		}
		p.scanning.Add(families.Sorted()...)
		p.applied = append(p.applied, name)
	}
}

// ScanningFamilies lists the families currently scanned, sorted.
func (p *Pack) ScanningFamilies() []Family {
	return p.scanning.Sorted()
}

// Emitting returns the sensors radiating em while the pack is emissive, in
// the order they were added. EmissionNone matches every emitter.
func (p *Pack) Emitting(em Emission) []Sensor {
	if !p.emissive {
		return nil
	}
	var out []Sensor
	for _, name := range p.emitters {
		s := p.sensors[name]
		if em == EmissionNone || s.Emission() == em {
			out = append(out, s)
		}
	}
	return out
}

// Tick advances the scan by dt. It returns false once the pack is
// destroyed, which happens here when the owner dies.
func (p *Pack) Tick(dt float64) bool {
	if !p.alive {
		return false
	}
	if !p.owner.Alive() {
		p.Destroy()
		return false
	}
	if len(p.sensors) == 0 {
		return true
	}

	for c := range p.tracked.All() {
		c.UpdateForMotion()
	}

	if p.remaining == 0 {
		p.swap(dt)
	}

	next := p.cursor + p.speed*dt
	for k := int(p.cursor); k < int(next) && p.remaining > 0; k++ {
		p.remaining--
		body := p.candidates[p.remaining]
		if !body.Alive() || body.ID() == p.owner.ID() {
			continue
		}
		p.scan(body)
	}
	p.cursor = next
	return true
}

func (p *Pack) swap(dt float64) {
	if len(p.scanning) > 0 {
		p.candidates = p.world.SelectBodies(p.scanning)
	} else {
		p.candidates = nil
	}
	p.remaining = len(p.candidates)

	prev := p.cur
	p.cur, p.next = p.next, newGeneration()
	p.cur.byFamily = sequence.GroupBy(sequence.From(p.cur.contacts), func(c *Contact) Family { return c.Family })

	var jitter float64
	if p.fluct > 0 {
		jitter = distuv.Uniform{Min: -p.fluct, Max: p.fluct, Src: p.src}.Rand()
	}
	p.period = max(p.cfg.ScanPeriod+jitter, dt)
	p.speed = float64(p.remaining) / p.period
	p.cursor = 0

	dropped := p.tracked.RemoveFunc(func(c *Contact) bool {
		return !p.cur.has(c) || !c.Trackable()
	})

	p.log.Debug("scan generation",
		log.Float64("time", p.world.Time()),
		log.Int("contacts", len(p.cur.contacts)),
		log.Int("candidates", p.remaining),
		log.Int("tracked", p.tracked.Len()),
		log.Float64("period", p.period),
	)
	p.publish(prev, dropped)
}

func (p *Pack) publish(prev *generation, dropped []*Contact) {
	if p.bus == nil {
		return
	}
	now := p.world.Time()
	var events []bus.Event
	ev := func(typ string, c *Contact) {
		if p.bus.Subscribers(typ) == 0 {
			return
		}
		events = append(events, bus.NewEvent(typ, p.owner.Name(), now, ContactEvent{Pack: p.owner.Name(), Owner: p.owner, Contact: c}))
	}
	for _, c := range p.cur.contacts {
		if _, ok := prev.byBody[c.Body.ID()]; !ok {
			ev(EventContactAcquired, c)
		}
	}
	for _, c := range prev.contacts {
		if _, ok := p.cur.byBody[c.Body.ID()]; !ok {
			ev(EventContactLost, c)
		}
	}
	for _, c := range dropped {
		ev(EventTrackDropped, c)
	}
	if err := p.bus.PublishBatch(events...); err != nil {
		p.log.Warn("contact event handler failed", log.Error(err))
	}
}

func (p *Pack) scan(body Body) {
	var fused *Contact
	var seenBy []string
	for _, name := range p.applied {
		c := p.sensors[name].Test(body)
		if c == nil {
			continue
		}
		if fused == nil {
			fused = c
		} else {
			fused.Accumulate(c)
		}
		seenBy = append(seenBy, name)
	}
	if fused == nil {
		return
	}
	if old := p.cur.byBody[body.ID()]; old != nil {
		old.Copy(fused)
		fused = old
	}
	p.next.add(fused, seenBy)

	expire := (p.cfg.ScanPeriod + p.fluct) * relayExpireFactor
	for _, name := range p.applied {
		p.sensors[name].Note(fused, expire)
	}
}

// Track keeps c refreshed every tick. Only trackable contacts of the
// current generation qualify; the oldest tracked contact is dropped when
// the limit is reached.
func (p *Pack) Track(c *Contact) bool {
	if c == nil || !p.cur.has(c) || !c.Trackable() {
		return false
	}
	if sequence.FromSeq(p.tracked.All()).Any(func(t *Contact) bool { return t == c }) {
		return true
	}
	for _, old := range p.tracked.Push(c) {
		if old == c {
			return false
		}
		p.log.Debug("track evicted", log.String("body", old.Body.Name()))
	}
	return true
}

func (p *Pack) Untrack(c *Contact) bool {
	return len(p.tracked.RemoveFunc(func(t *Contact) bool { return t == c })) > 0
}

// Tracked lists the tracked contacts, oldest first.
func (p *Pack) Tracked() []*Contact { return p.tracked.Items() }

// Destroy cleans up every sensor. It is safe to call more than once.
func (p *Pack) Destroy() {
	if !p.alive {
		return
	}
	for _, name := range p.names {
		p.sensors[name].Cleanup()
	}
	p.alive = false
	p.log.Debug("pack destroyed")
}

// Contacts lists the contacts of the last complete scan in detection order.
func (p *Pack) Contacts() []*Contact { return slices.Clone(p.cur.contacts) }

func (p *Pack) ContactsByBody() map[uuid.UUID]*Contact { return maps.Clone(p.cur.byBody) }

func (p *Pack) ContactsByFamily() map[Family][]*Contact { return maps.Clone(p.cur.byFamily) }

// ContactsBySensor maps each sensor name to the fused contacts it
// contributed to.
func (p *Pack) ContactsBySensor() map[string][]*Contact { return maps.Clone(p.cur.bySensor) }

func (p *Pack) SensorsByContact() map[*Contact][]string { return maps.Clone(p.cur.sensorsByContact) }

// Contact returns the current contact on body, or nil.
func (p *Pack) Contact(body Body) *Contact { return p.cur.byBody[body.ID()] }

func (p *Pack) Sensors() map[string]Sensor { return maps.Clone(p.sensors) }

func (p *Pack) Sensor(name string) Sensor { return p.sensors[name] }

// FormatContacts renders the contacts per sensor for debugging, e.g.
// "radar=(red1, red2)  rwr=()".
func (p *Pack) FormatContacts() string {
	parts := make([]string, 0, len(p.names))
	for _, name := range p.names {
		sorted := sequence.From(p.cur.bySensor[name]).Sort(func(a, b *Contact) int {
			return strings.Compare(a.Body.Name(), b.Body.Name())
		})
		bodies := sequence.ToArray(sorted, func(c *Contact) string { return c.Body.Name() })
		parts = append(parts, fmt.Sprintf("%s=(%s)", name, strings.Join(bodies, ", ")))
	}
	return strings.Join(parts, "  ")
}
