package consensus

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CombineAll combines many independent regions concurrently. Results are
// returned in input order. workers <= 0 uses GOMAXPROCS. The first failing
// region cancels the regions that have not started yet.
func CombineAll(ctx context.Context, inputs []Input, opts Options, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := Combine(inputs[i], opts)
			if err != nil {
				return fmt.Errorf("region %q: %w", inputs[i].RegionID, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
