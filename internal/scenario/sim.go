package scenario

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/flightcore/internal/core/events/bus"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/core/system"
	"github.com/zeusync/flightcore/internal/core/systems"
	"github.com/zeusync/flightcore/internal/core/systems/physics"
	"github.com/zeusync/flightcore/internal/core/world"
	"github.com/zeusync/flightcore/internal/telemetry"
	"github.com/zeusync/flightcore/pkg/sequence"
	"gonum.org/v1/gonum/spatial/r3"
)

// Broadcaster receives telemetry frames. *telemetry.Hub implements it.
type Broadcaster interface {
	Broadcast(frame telemetry.Frame)
}

// Solution is the latest firing solution a craft holds on a target.
type Solution struct {
	Target    string  `json:"target"`
	At        float64 `json:"at"`
	FlyTime   float64 `json:"fly_time"`
	Point     r3.Vec  `json:"point"`
	Direction r3.Vec  `json:"direction"`
}

// PackReport summarises one craft's sensor pack at the end of a run.
type PackReport struct {
	Body      string     `json:"body"`
	Alive     bool       `json:"alive"`
	Contacts  []string   `json:"contacts"`
	Tracked   []string   `json:"tracked"`
	Acquired  int        `json:"acquired"`
	Lost      int        `json:"lost"`
	Dropped   int        `json:"dropped"`
	Hostiles  int        `json:"hostiles"`
	Solutions []Solution `json:"solutions"`
	Summary   string     `json:"summary"`
}

type Report struct {
	Scenario string       `json:"scenario"`
	Time     float64      `json:"time"`
	Steps    uint64       `json:"steps"`
	Packs    []PackReport `json:"packs"`
}

type entity struct {
	spec  BodySpec
	craft *world.Craft
	pack  *sensor.Pack

	acquired, lost, dropped int
	solutions               map[string]Solution
}

type Sim struct {
	sc    *Scenario
	world *world.World
	loop  *system.Loop
	bus   bus.EventBus
	reg   *sensor.Registry
	out   Broadcaster
	log   log.Log

	entities []*entity
	byName   map[string]*entity
	ticks    int
	counter  bus.Subscription
}

type Option func(*Sim)

func WithLogger(l log.Log) Option            { return func(s *Sim) { s.log = l } }
func WithRegistry(r *sensor.Registry) Option { return func(s *Sim) { s.reg = r } }
func WithBroadcaster(b Broadcaster) Option   { return func(s *Sim) { s.out = b } }
func WithEventBus(b bus.EventBus) Option     { return func(s *Sim) { s.bus = b } }

// Build assembles the world, crafts, packs and tick loop of sc.
func Build(sc *Scenario, opts ...Option) (*Sim, error) {
	s := &Sim{
		sc:     sc,
		log:    log.NewNop(),
		byName: make(map[string]*entity),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = sensor.NewRegistry()
	}
	if s.bus == nil {
		s.bus = bus.New()
	}
	s.log = s.log.With(log.String("scenario", sc.Name))

	wopts := []world.Option{world.WithLogger(s.log)}
	if sc.Sky != nil {
		wopts = append(wopts, world.WithSky(*sc.Sky))
	}
	s.world = world.New(wopts...)
	for _, group := range sc.Allied {
		s.world.SetAllied(group...)
	}
	s.world.SetAlliedToAll(sc.AlliedToAll...)

	for _, spec := range sc.Bodies {
		craft := world.NewCraft(spec.CraftConfig)
		if err := s.world.Add(craft); err != nil {
			return nil, err
		}
		if spec.Route != nil {
			route, speed, err := spec.Route.Build(craft.Pos(), craft.Vel())
			if err != nil {
				return nil, fmt.Errorf("body %q: route: %w", spec.Name, err)
			}
			craft.Fly(route, speed)
		}
		e := &entity{spec: spec, craft: craft, solutions: make(map[string]Solution)}
		s.entities = append(s.entities, e)
		s.byName[spec.Name] = e
	}

	for _, e := range s.entities {
		if e.spec.Target != "" {
			e.craft.SetTarget(s.world.FindByName(e.spec.Target))
		}
		if e.spec.Sensors == nil {
			continue
		}
		pack, err := e.spec.Sensors.Build(s.world.Env(e.craft), s.reg,
			sensor.WithLogger(s.log),
			sensor.WithEventBus(s.bus),
			sensor.WithSource(rand.NewPCG(sc.Seed, xxhash.Sum64String(e.spec.Name))),
		)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", e.spec.Name, err)
		}
		e.craft.SetSensorPack(pack)
		e.pack = pack
	}

	counter, err := s.bus.Subscribe("", s.count)
	if err != nil {
		return nil, err
	}
	s.counter = counter
	s.schedule()
	return s, nil
}

func (s *Sim) schedule() {
	s.loop = system.NewLoop(system.WithLogger(s.log))
	s.loop.Register("clock", s.world.ClockTicker(), systems.PriorityClock)
	for _, e := range s.entities {
		if e.pack != nil {
			s.loop.Register("pack:"+e.spec.Name, e.pack, systems.PrioritySensor)
			s.loop.Register("fire:"+e.spec.Name, s.fireControl(e), systems.PriorityControl)
		}
		s.loop.Register("motion:"+e.spec.Name, s.motion(e), systems.PriorityMotion)
	}
	s.loop.Register("relay", s.world.RelayTicker(), systems.PriorityRelay)
	if s.out != nil && s.sc.TelemetryEvery > 0 {
		s.loop.Register("telemetry", systems.TickerFunc(s.broadcast), systems.PriorityRelay)
	}
}

// Close detaches the sim from its event bus. Event counts stop there.
func (s *Sim) Close() error {
	return s.bus.Unsubscribe(s.counter)
}

func (s *Sim) World() *world.World { return s.world }
func (s *Sim) Loop() *system.Loop   { return s.loop }

// Pack returns the sensor pack of the named craft, or nil.
func (s *Sim) Pack(name string) *sensor.Pack {
	if e := s.byName[name]; e != nil {
		return e.pack
	}
	return nil
}

func (s *Sim) count(ev bus.Event) error {
	ce, ok := ev.Data().(sensor.ContactEvent)
	if !ok {
		return nil
	}
	// The bus may be shared with other simulations.
	e := s.byName[ce.Pack]
	if e == nil || ce.Owner != sensor.Body(e.craft) {
		return nil
	}
	switch ev.Type() {
	case sensor.EventContactAcquired:
		e.acquired++
	case sensor.EventContactLost:
		e.lost++
	case sensor.EventTrackDropped:
		e.dropped++
	}
	return nil
}

func (s *Sim) motion(e *entity) systems.Ticker {
	return systems.TickerFunc(func(dt float64) bool {
		if at := e.spec.DestroyAt; at > 0 && e.craft.Alive() && s.world.Time() >= at {
			e.craft.Destroy()
			s.log.Info("craft destroyed", log.String("craft", e.spec.Name), log.Float64("time", s.world.Time()))
		}
		return e.craft.Tick(dt)
	})
}

func (s *Sim) hostile(e *entity, c *sensor.Contact) bool {
	return c.Side != "" && !s.world.IsAllied(e.craft.Side(), c.Side)
}

// fireControl keeps the pack's track list filled with hostile contacts,
// the craft's own target first and then nearest first, and refreshes
// firing solutions on them.
func (s *Sim) fireControl(e *entity) systems.Ticker {
	return systems.TickerFunc(func(float64) bool {
		if !e.pack.Alive() {
			return false
		}
		s.track(e)
		if e.spec.Weapon != nil {
			s.solve(e)
		}
		return true
	})
}

func (s *Sim) track(e *entity) {
	if target := e.craft.Target(); target != nil {
		if c := e.pack.Contact(target); c != nil && c.Trackable() {
			e.pack.Track(c)
		}
	}
	limit := e.pack.Config().MaxTracked
	if len(e.pack.Tracked()) >= limit {
		return
	}

	own := e.craft.Pos()
	distance := func(c *sensor.Contact) float64 { return physics.Distance(own, *c.EstimatePos()) }
	candidates := sequence.From(e.pack.Contacts()).
		Filter(func(c *sensor.Contact) bool {
			return c.Trackable() && s.hostile(e, c) && c.EstimatePos() != nil
		}).
		Sort(func(a, b *sensor.Contact) int { return cmp.Compare(distance(a), distance(b)) }).
		Collect()

	tracked := e.pack.Tracked()
	for _, c := range candidates {
		if len(tracked) >= limit {
			break
		}
		if slices.Contains(tracked, c) {
			continue
		}
		if e.pack.Track(c) {
			tracked = e.pack.Tracked()
		}
	}
}

func orZero(v *r3.Vec) r3.Vec {
	if v == nil {
		return r3.Vec{}
	}
	return *v
}

func (s *Sim) solve(e *entity) {
	w := e.spec.Weapon
	for _, c := range e.pack.Tracked() {
		pos := c.EstimatePos()
		if pos == nil {
			continue
		}
		sol, ok := physics.InterceptTime(physics.InterceptInput{
			TargetPos:  *pos,
			TargetVel:  orZero(c.EstimateVel()),
			TargetAcc:  orZero(c.Acc),
			ShooterPos: e.craft.Pos(),
			ShotVel:    e.craft.Vel(),
			ShotSpeed:  w.ShotSpeed,
			ShotAccMag: w.ShotAccMag,
			FineTime:   defaultShotFineTime,
		})
		if !ok || sol.Time > w.MaxFlyTime {
			continue
		}
		name := c.Body.Name()
		if _, seen := e.solutions[name]; !seen {
			s.log.Info("firing solution",
				log.String("craft", e.spec.Name),
				log.String("target", name),
				log.Float64("time", s.world.Time()),
				log.Float64("fly_time", sol.Time),
			)
		}
		e.solutions[name] = Solution{
			Target:    name,
			At:        s.world.Time(),
			FlyTime:   sol.Time,
			Point:     sol.Point,
			Direction: sol.Direction,
		}
	}
}

func (s *Sim) broadcast(float64) bool {
	s.ticks++
	if s.ticks%s.sc.TelemetryEvery != 0 {
		return true
	}
	frame := telemetry.Frame{Scenario: s.sc.Name, Time: s.world.Time()}
	for _, e := range s.entities {
		if e.pack != nil && e.pack.Alive() {
			frame.Packs = append(frame.Packs, telemetry.SnapshotPack(e.pack))
		}
	}
	s.out.Broadcast(frame)
	return true
}

// Run steps the scenario to its end or until ctx is done, and reports on
// every pack either way.
func (s *Sim) Run(ctx context.Context) (Report, error) {
	s.log.Info("scenario started",
		log.Int("bodies", len(s.entities)),
		log.Int("steps", s.sc.Steps()),
		log.Float64("dt", s.sc.Dt),
	)
	err := s.loop.Run(ctx, s.sc.Steps(), s.sc.Dt)
	report := s.Report()
	for _, p := range report.Packs {
		s.log.Info("pack report",
			log.String("craft", p.Body),
			log.Bool("alive", p.Alive),
			log.Strings("contacts", p.Contacts),
			log.Strings("tracked", p.Tracked),
			log.Int("acquired", p.Acquired),
			log.Int("solutions", len(p.Solutions)),
		)
	}
	if err != nil {
		return report, fmt.Errorf("scenario %q: %w", s.sc.Name, err)
	}
	return report, nil
}

func bodyNames(contacts []*sensor.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Body.Name()
	}
	return out
}

// Report snapshots the packs now.
func (s *Sim) Report() Report {
	r := Report{
		Scenario: s.sc.Name,
		Time:     s.world.Time(),
		Steps:    s.loop.Metrics().Steps,
	}
	for _, e := range s.entities {
		if e.pack == nil {
			continue
		}
		contacts := bodyNames(e.pack.Contacts())
		slices.Sort(contacts)
		hostiles := sequence.From(e.pack.Contacts()).Filter(func(c *sensor.Contact) bool {
			return s.hostile(e, c)
		})
		p := PackReport{
			Body:      e.spec.Name,
			Alive:     e.pack.Alive(),
			Contacts:  contacts,
			Tracked:   bodyNames(e.pack.Tracked()),
			Acquired:  e.acquired,
			Lost:      e.lost,
			Dropped:   e.dropped,
			Hostiles:  hostiles.Count(),
			Solutions: sequence.FromMap(e.solutions).Collect(),
			Summary:   e.pack.FormatContacts(),
		}
		r.Packs = append(r.Packs, p)
	}
	return r
}
