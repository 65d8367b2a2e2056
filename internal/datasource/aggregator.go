package datasource

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

// Market is the combined output of one fetch cycle.
type Market struct {
	Crypto map[string]models.Quote
	Equity map[string]models.Quote
	Failed []string
}

// Aggregator fetches crypto and equity quotes concurrently.
type Aggregator struct {
	crypto        QuoteFetcher
	cryptoSymbols []string
	equity        QuoteFetcher
	equitySymbols []string
	logger        *slog.Logger
}

// NewAggregator wires a crypto and an equity fetcher with their symbol sets.
// Either fetcher may be nil to skip that asset class.
func NewAggregator(crypto QuoteFetcher, cryptoSymbols []string, equity QuoteFetcher, equitySymbols []string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		crypto:        crypto,
		cryptoSymbols: cryptoSymbols,
		equity:        equity,
		equitySymbols: equitySymbols,
		logger:        infra.OrDefault(logger),
	}
}

// Fetch runs both fetchers and merges the results. It never fails; an
// empty Market means nothing could be fetched.
func (a *Aggregator) Fetch(ctx context.Context) Market {
	m := Market{
		Crypto: map[string]models.Quote{},
		Equity: map[string]models.Quote{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	run := func(f QuoteFetcher, symbols []string, into map[string]models.Quote) {
		if f == nil || len(symbols) == 0 {
			return
		}
		g.Go(func() error {
			res := f.FetchQuotes(gctx, symbols)
			a.logger.Info("quotes fetched", "source", f.Name(), "requested", len(symbols), "got", len(res.Quotes))
			mu.Lock()
			defer mu.Unlock()
			for sym, q := range res.Quotes {
				into[sym] = q
			}
			m.Failed = append(m.Failed, res.Failed...)
			return nil // non-fatal
		})
	}
	run(a.crypto, a.cryptoSymbols, m.Crypto)
	run(a.equity, a.equitySymbols, m.Equity)
	_ = g.Wait()

	sort.Strings(m.Failed)
	return m
}
