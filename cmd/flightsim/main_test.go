package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/injector"
)

const intercept = "../../internal/scenario/testdata/intercept.yaml"

func TestPathList(t *testing.T) {
	var p pathList
	require.NoError(t, p.Set("a.yaml, b.yaml,"))
	require.NoError(t, p.Set("c.yaml"))
	assert.Equal(t, pathList{"a.yaml", "b.yaml", "c.yaml"}, p)
	assert.Equal(t, "a.yaml,b.yaml,c.yaml", p.String())
}

func TestRunScenarios(t *testing.T) {
	rt := injector.InitializeRuntime(log.LevelError)
	reports, err := run(context.Background(), rt, []string{intercept, intercept}, "", 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, "intercept", r.Scenario)
		assert.Equal(t, uint64(80), r.Steps)
	}
	assert.Equal(t, reports[0], reports[1])

	reports, err = run(context.Background(), rt, []string{"missing.yaml", intercept}, "", 1)
	assert.ErrorContains(t, err, "missing.yaml")
	require.Len(t, reports, 2)
	assert.Empty(t, reports[0].Scenario)
}

func TestRunWithTelemetry(t *testing.T) {
	rt := injector.InitializeRuntime(log.LevelError)
	reports, err := run(context.Background(), rt, []string{intercept}, "127.0.0.1:0", 0)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}
