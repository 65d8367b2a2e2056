package datasource

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketradar/pkg/models"
)

// fetchEach runs fetch for every symbol with at most workers in flight.
// Failures are logged and recorded but never abort the batch.
func fetchEach(
	ctx context.Context,
	source string,
	symbols []string,
	workers int,
	logger *slog.Logger,
	fetch func(ctx context.Context, symbol string) (models.Quote, error),
) FetchResult {
	res := FetchResult{Quotes: make(map[string]models.Quote, len(symbols))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, sym := range symbols {
		g.Go(func() error {
			q, err := fetch(gctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("fetch quote failed", "source", source, "symbol", sym, "error", err)
				res.Failed = append(res.Failed, failedKey(source, sym))
				return nil // non-fatal
			}
			res.Quotes[sym] = q
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Failed)
	return res
}
