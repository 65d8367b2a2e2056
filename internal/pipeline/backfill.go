package pipeline

import (
	"context"
	"log/slog"

	"github.com/seenimoa/marketradar/internal/datasource"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

// PointWriter stores backfilled points. Implemented by *store.Store.
type PointWriter interface {
	PersistPoints(ctx context.Context, class models.AssetClass, symbol, source string, pts []models.Point) (int, error)
}

// BackfillJob pairs a history source with the symbols to load from it.
type BackfillJob struct {
	Source  datasource.HistorySource
	Symbols []string
}

// BackfillStat is the outcome for one symbol.
type BackfillStat struct {
	Source   string `json:"source"`
	Symbol   string `json:"symbol"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Err      string `json:"error,omitempty"`
}

// BackfillDays are the windows requested per symbol. Shorter windows come
// back at finer granularity, so each range of the dashboard gets points.
var BackfillDays = []int{1, 7, 30, 365}

// Backfill loads historical prices for every job into w. Failures are per
// symbol and reported in the stats; only context cancellation stops it early.
func Backfill(ctx context.Context, w PointWriter, jobs []BackfillJob, days []int, logger *slog.Logger) ([]BackfillStat, error) {
	logger = infra.OrDefault(logger)
	if len(days) == 0 {
		days = BackfillDays
	}

	var stats []BackfillStat
	for _, job := range jobs {
		for _, sym := range job.Symbols {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			st := backfillSymbol(ctx, w, job.Source, sym, days)
			if st.Err != "" {
				logger.Warn("backfill failed", "source", st.Source, "symbol", sym, "error", st.Err)
			} else {
				logger.Info("backfill done", "source", st.Source, "symbol", sym, "fetched", st.Fetched, "inserted", st.Inserted)
			}
			stats = append(stats, st)
		}
	}
	return stats, nil
}

func backfillSymbol(ctx context.Context, w PointWriter, src datasource.HistorySource, sym string, days []int) BackfillStat {
	st := BackfillStat{Source: src.Name(), Symbol: sym}
	for _, d := range days {
		pts, err := src.FetchHistory(ctx, sym, d)
		if err != nil {
			st.Err = err.Error()
			return st
		}
		st.Fetched += len(pts)

		wctx, cancel := context.WithTimeout(ctx, defaultIOWait)
		n, err := w.PersistPoints(wctx, src.Class(), sym, src.Name(), pts)
		cancel()
		if err != nil {
			st.Err = err.Error()
			return st
		}
		st.Inserted += n
	}
	return st
}
