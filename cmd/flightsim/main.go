package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/injector"
	"github.com/zeusync/flightcore/internal/scenario"
	"github.com/zeusync/flightcore/pkg/concurrent"
	"github.com/zeusync/flightcore/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// pathList collects -scenario flags; each may hold a comma separated list.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	for _, path := range strings.Split(v, ",") {
		if path = strings.TrimSpace(path); path != "" {
			*p = append(*p, path)
		}
	}
	return nil
}

func main() {
	var paths pathList
	flag.Var(&paths, "scenario", "scenario file to run (repeatable, comma separated)")
	listen := flag.String("listen", "", "serve the telemetry websocket feed on this address")
	level := flag.String("level", "info", "log level: debug, info, warn or error")
	parallel := flag.Int("parallel", 0, "maximum scenarios run at once (0 = all)")
	flag.Parse()

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "flightsim: at least one -scenario is required")
		flag.Usage()
		os.Exit(2)
	}
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flightsim:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, injector.InitializeRuntime(lvl), paths, *listen, *parallel); err != nil {
		fmt.Fprintln(os.Stderr, "flightsim:", err)
		os.Exit(1)
	}
}

// run executes every scenario, at most parallel at a time, and returns
// their reports in the order given. Scenarios that failed to load or build
// leave a zero Report.
func run(ctx context.Context, rt *injector.Runtime, paths []string, listen string, parallel int) ([]scenario.Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	simCtx, done := context.WithCancel(gctx)
	defer done()

	opts := []scenario.Option{
		scenario.WithLogger(rt.Logger),
		scenario.WithRegistry(rt.Registry),
	}
	if listen != "" {
		opts = append(opts, scenario.WithBroadcaster(rt.Hub))
		g.Go(func() error { return rt.Hub.Serve(simCtx, listen) })
	}

	var reports []scenario.Report
	g.Go(func() error {
		defer done()
		var err error
		reports, err = concurrent.ParallelMap(simCtx, sequence.From(paths), parallel,
			func(ctx context.Context, path string) (scenario.Report, error) {
				return runFile(ctx, rt.Logger, path, opts)
			})
		finished := sequence.From(reports).Filter(func(r scenario.Report) bool { return r.Scenario != "" })
		rt.Logger.Info("scenarios finished",
			log.Int("scenarios", len(paths)),
			log.Int("reported", finished.Count()),
		)
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return reports, err
	}
	return reports, nil
}

func runFile(ctx context.Context, logger log.Log, path string, opts []scenario.Option) (scenario.Report, error) {
	sc, err := scenario.LoadFile(path)
	if err != nil {
		return scenario.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	sim, err := scenario.Build(sc, opts...)
	if err != nil {
		return scenario.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	defer func() { _ = sim.Close() }()

	report, err := sim.Run(ctx)
	logger.Info("scenario finished",
		log.String("scenario", report.Scenario),
		log.String("file", path),
		log.Float64("time", report.Time),
		log.Int("packs", len(report.Packs)),
	)
	return report, err
}
