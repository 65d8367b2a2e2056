package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	restModels "github.com/polygon-io/client-go/rest/models"

	"github.com/seenimoa/marketradar/pkg/models"
)

// polygonIndexTickers maps Yahoo index symbols to Polygon index tickers.
// Polygon carries US indices only.
var polygonIndexTickers = map[string]string{
	"^GSPC": "I:SPX",
	"^IXIC": "I:COMP",
	"^DJI":  "I:DJI",
}

// AggsLister lists daily aggregates for a Polygon ticker.
type AggsLister func(ctx context.Context, params *restModels.ListAggsParams) ([]restModels.Agg, error)

// Polygon backfills US equity and index daily closes from Polygon.io.
type Polygon struct {
	list   AggsLister
	now    func() time.Time
	logger *slog.Logger
}

// NewPolygon creates a Polygon history source for apiKey.
func NewPolygon(apiKey string, opts ...Option) *Polygon {
	client := polygon.New(apiKey)
	return NewPolygonWithLister(func(ctx context.Context, params *restModels.ListAggsParams) ([]restModels.Agg, error) {
		iter := client.AggsClient.ListAggs(ctx, params)
		var out []restModels.Agg
		for iter.Next() {
			out = append(out, iter.Item())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}, opts...)
}

// NewPolygonWithLister creates a Polygon source backed by list.
func NewPolygonWithLister(list AggsLister, opts ...Option) *Polygon {
	o := defaultOptions("", 0)
	o.apply(opts)
	return &Polygon{list: list, now: o.now, logger: o.logger}
}

// Name returns the data source name.
func (p *Polygon) Name() string { return "polygon" }

// Class returns models.AssetStock.
func (p *Polygon) Class() models.AssetClass { return models.AssetStock }

// PolygonTicker maps a Yahoo-style symbol to a Polygon ticker.
// Non-US symbols are not covered.
func PolygonTicker(symbol string) (string, error) {
	if t, ok := polygonIndexTickers[symbol]; ok {
		return t, nil
	}
	if strings.HasPrefix(symbol, "^") || models.DetectMarket(symbol) != models.MarketUS {
		return "", fmt.Errorf("%w: %s not covered by polygon", ErrUnknownSymbol, symbol)
	}
	return strings.ToUpper(symbol), nil
}

// FetchHistory returns daily closes for the last days days, oldest first.
func (p *Polygon) FetchHistory(ctx context.Context, symbol string, days int) ([]models.Point, error) {
	ticker, err := PolygonTicker(symbol)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		days = 1
	}

	limit := 50000
	order := restModels.Asc
	to := p.now()
	params := restModels.ListAggsParams{
		Ticker:     ticker,
		From:       restModels.Millis(to.AddDate(0, 0, -days)),
		To:         restModels.Millis(to),
		Order:      &order,
		Limit:      &limit,
		Timespan:   restModels.Day,
		Multiplier: 1,
	}

	aggs, err := p.list(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", ticker, err)
	}
	p.logger.Debug("polygon aggregates fetched", "ticker", ticker, "count", len(aggs))
	if len(aggs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	points := make([]models.Point, 0, len(aggs))
	for _, a := range aggs {
		points = append(points, models.Point{
			Timestamp: time.Time(a.Timestamp).UTC(),
			Price:     a.Close,
		})
	}
	return points, nil
}
