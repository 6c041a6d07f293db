package app

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParseAll parses paths with at most workers parses running at once; zero
// or less means GOMAXPROCS. Results keep the order of paths. The first
// failure cancels the parses still running.
func (a *App) ParseAll(ctx context.Context, paths []string, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	a.logger.Debug("Parsing sources.", "count", len(paths), "workers", workers)

	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			res, err := a.Parse(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
