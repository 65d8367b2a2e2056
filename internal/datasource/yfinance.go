package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

// DefaultYahooURL is the Yahoo Finance query host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// IndexInfo describes a predefined index.
type IndexInfo struct {
	Symbol string
	Name   string
	Market models.Category
}

// PredefinedIndices are the major indices tracked unless disabled.
var PredefinedIndices = []IndexInfo{
	{Symbol: "^GSPC", Name: "S&P 500", Market: models.MarketUS},
	{Symbol: "^IXIC", Name: "Nasdaq Composite", Market: models.MarketUS},
	{Symbol: "^DJI", Name: "Dow Jones", Market: models.MarketUS},
	{Symbol: "^HSI", Name: "Hang Seng", Market: models.MarketHK},
	{Symbol: "000001.SS", Name: "SSE Composite", Market: models.MarketCN},
	{Symbol: "399001.SZ", Name: "SZSE Component", Market: models.MarketCN},
	{Symbol: "399006.SZ", Name: "ChiNext", Market: models.MarketCN},
}

// EquitySymbols returns the predefined indices (when enabled) followed by
// the custom symbols, without duplicates.
func EquitySymbols(custom []string, predefined bool) []string {
	seen := make(map[string]bool)
	var out []string
	if predefined {
		for _, idx := range PredefinedIndices {
			seen[idx.Symbol] = true
			out = append(out, idx.Symbol)
		}
	}
	for _, s := range custom {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func indexName(symbol string) string {
	for _, idx := range PredefinedIndices {
		if idx.Symbol == symbol {
			return idx.Name
		}
	}
	return ""
}

// YFinance fetches equity quotes and history from the Yahoo Finance chart API.
type YFinance struct {
	opts sourceOptions
	http *infra.HTTPClient
}

// NewYFinance creates a Yahoo Finance source with a 200ms courtesy delay.
func NewYFinance(opts ...Option) *YFinance {
	o := defaultOptions(DefaultYahooURL, 200*time.Millisecond)
	o.apply(opts)
	return &YFinance{opts: o, http: o.client()}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "yahoo" }

// Class returns models.AssetStock.
func (y *YFinance) Class() models.AssetClass { return models.AssetStock }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	LongName           string  `json:"longName"`
	ShortName          string  `json:"shortName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"previousClose"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	RegularMarketVol   float64 `json:"regularMarketVolume"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// FetchQuotes fetches each symbol concurrently, bounded by the worker count.
func (y *YFinance) FetchQuotes(ctx context.Context, symbols []string) FetchResult {
	return fetchEach(ctx, y.Name(), symbols, y.opts.workers, y.opts.logger, y.fetchQuote)
}

// fetchQuote builds a quote from the chart metadata. The price falls back
// from the regular market price to the last close, then the previous close.
func (y *YFinance) fetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	result, err := y.chart(ctx, symbol, url.Values{"range": {"1d"}, "interval": {"1d"}})
	if err != nil {
		return models.Quote{}, err
	}
	m := result.Meta

	prevClose := m.PreviousClose
	if prevClose == 0 {
		prevClose = m.ChartPreviousClose
	}
	closes := chartCloses(result)

	price := m.RegularMarketPrice
	if price == 0 && len(closes) > 0 {
		price = closes[len(closes)-1].Price
	}
	if price == 0 {
		price = prevClose
	}
	if price == 0 {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if prevClose == 0 {
		prevClose = price
	}

	name := coalesce(m.LongName, m.ShortName, indexName(symbol), symbol)
	q := models.NewEquityQuote(symbol, name, price, prevClose, m.RegularMarketVol, y.opts.now())
	q.Source = y.Name()
	return q, nil
}

// FetchHistory returns closing prices covering the last days days:
// hourly bars up to a week, daily bars beyond.
func (y *YFinance) FetchHistory(ctx context.Context, symbol string, days int) ([]models.Point, error) {
	if days < 1 {
		days = 1
	}
	interval := "1d"
	if days <= 7 {
		interval = "1h"
	}
	to := y.opts.now()
	from := to.AddDate(0, 0, -days)
	params := url.Values{
		"period1":  {fmt.Sprint(from.Unix())},
		"period2":  {fmt.Sprint(to.Unix())},
		"interval": {interval},
	}

	result, err := y.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	points := chartCloses(result)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return points, nil
}

func (y *YFinance) chart(ctx context.Context, symbol string, params url.Values) (yfChartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.opts.baseURL, url.PathEscape(symbol), params.Encode())

	var resp yfChartResponse
	if err := y.http.GetJSON(ctx, u, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return yfChartResult{}, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return yfChartResult{}, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return yfChartResult{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return resp.Chart.Result[0], nil
}

// --- Helpers ---

// chartCloses extracts (timestamp, close) pairs, skipping null bars.
func chartCloses(result yfChartResult) []models.Point {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]models.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.Point{
			Timestamp: time.Unix(ts, 0).UTC(),
			Price:     *closes[i],
		})
	}
	return points
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
