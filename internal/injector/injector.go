//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/flightcore/internal/core/observability/log"
)

func InitializeRuntime(level log.Level) *Runtime {
	wire.Build(ProviderSet)
	return nil
}
