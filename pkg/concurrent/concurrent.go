package concurrent

import (
	"context"

	"github.com/zeusync/flightcore/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to every element of the iterator, at most limit
// at a time (limit <= 0 means unbounded), and returns the results in input
// order. The context passed to mapFn is cancelled as soon as one call fails;
// the first error is returned along with whatever results were produced.
func ParallelMap[T any, R any](ctx context.Context, i *sequence.Iterator[T], limit int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for idx, value := range in {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := mapFn(gctx, value)
			out[idx] = r
			return err
		})
	}
	return out, g.Wait()
}
