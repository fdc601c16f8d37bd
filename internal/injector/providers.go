package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/telemetry"
)

// Runtime holds the process-wide services shared by every simulation.
type Runtime struct {
	Logger   log.Log
	Registry *sensor.Registry
	Hub      *telemetry.Hub
}

func ProvideLogger(level log.Level) log.Log {
	return log.New(level)
}

func ProvideRegistry() *sensor.Registry {
	return sensor.NewRegistry()
}

func ProvideHub(logger log.Log) *telemetry.Hub {
	return telemetry.NewHub(logger)
}

func NewRuntime(logger log.Log, registry *sensor.Registry, hub *telemetry.Hub) *Runtime {
	return &Runtime{Logger: logger, Registry: registry, Hub: hub}
}

var ProviderSet = wire.NewSet(ProvideLogger, ProvideRegistry, ProvideHub, NewRuntime)
