package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Member is one independent run of an ensemble. Members must not share a
// Runner, since metrics carry per-run state.
type Member[S any] struct {
	Runner  *Runner[S]
	Initial S
	Config  Config
}

// RunEnsemble runs members concurrently, at most limit at a time
// (limit <= 0 means no limit). The first failure cancels the rest.
func RunEnsemble[S any](ctx context.Context, members []Member[S], limit int) ([]*Result[S], error) {
	results := make([]*Result[S], len(members))
	err := ForEach(ctx, len(members), limit, func(ctx context.Context, i int) error {
		m := members[i]
		res, err := m.Runner.Run(ctx, m.Initial, m.Config)
		results[i] = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ForEach calls fn for 0..n-1 on an errgroup bounded by limit.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
