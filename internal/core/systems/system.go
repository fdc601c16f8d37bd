package systems

// Ticker is a per-frame callback of the simulation loop. Returning false
// deregisters it; entities use this to tear themselves down once dead.
type Ticker interface {
	Tick(dt float64) bool
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(dt float64) bool

func (f TickerFunc) Tick(dt float64) bool { return f(dt) }

// Priority defines execution order priority. Higher runs first.
type Priority uint16

// System priorities
const (
	PriorityLowest  Priority = 200
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// Conventional slots of the flight simulation frame: the clock advances
// first, sensor packs refresh and scan against the new time, fire control
// acts on the fresh contacts, bodies move, and relay writes commit last so
// they become visible on the next frame.
const (
	PriorityClock   = PriorityHighest
	PrioritySensor  = PriorityHigh
	PriorityControl = PriorityHigh - 200
	PriorityMotion  = PriorityNormal
	PriorityRelay   = PriorityLowest
)

func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	default:
		return "custom"
	}
}
