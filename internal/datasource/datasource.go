// Package datasource provides quote and history fetching from public market
// data sources: CoinGecko for crypto, Yahoo Finance for equities, Polygon for
// equity daily history, and RSS/Atom feeds for headlines.
package datasource

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

// QuoteFetcher fetches current quotes for one asset class.
//
// Symbols that cannot be fetched are left out of the result rather than
// failing the call; they are listed in FetchResult.Failed on a best-effort
// basis.
//
//go:generate mockgen -package=datasource -destination=mock_fetcher_test.go -source=datasource.go QuoteFetcher HistorySource
type QuoteFetcher interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Class returns the asset class of the quotes this source yields.
	Class() models.AssetClass

	// FetchQuotes returns quotes keyed by symbol.
	FetchQuotes(ctx context.Context, symbols []string) FetchResult
}

// HistorySource fetches a price series covering the last days days.
type HistorySource interface {
	Name() string
	Class() models.AssetClass
	FetchHistory(ctx context.Context, symbol string, days int) ([]models.Point, error)
}

// FetchResult is the outcome of one FetchQuotes call.
type FetchResult struct {
	Quotes map[string]models.Quote
	Failed []string // "source:symbol" entries
}

// --- Sentinel errors ---

// ErrNoData is returned when a source answered but had nothing for a symbol.
var ErrNoData = errors.New("no data for symbol")

// ErrUnknownSymbol is returned when a symbol cannot be mapped to the source's
// identifiers.
var ErrUnknownSymbol = errors.New("unknown symbol")

// --- Shared options ---

// Option configures a source.
type Option func(*sourceOptions)

type sourceOptions struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      infra.RetryPolicy
	delay      time.Duration
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

func defaultOptions(baseURL string, delay time.Duration) sourceOptions {
	return sourceOptions{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    10 * time.Second,
		retry:      infra.DefaultRetryPolicy,
		delay:      delay,
		workers:    4,
		now:        time.Now,
	}
}

func (o *sourceOptions) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
	o.logger = infra.OrDefault(o.logger)
	if o.workers < 1 {
		o.workers = 1
	}
}

// client builds the HTTP client every request of a source goes through.
// The courtesy limiter is shared across the source's concurrent workers.
func (o *sourceOptions) client() *infra.HTTPClient {
	return infra.NewHTTPClient(
		infra.WithHTTPClient(o.httpClient),
		infra.WithTimeout(o.timeout),
		infra.WithRetryPolicy(o.retry),
		infra.WithRateLimiter(infra.NewRateLimiter(o.delay)),
		infra.WithLogger(o.logger),
	)
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(o *sourceOptions) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *sourceOptions) { o.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *sourceOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p infra.RetryPolicy) Option {
	return func(o *sourceOptions) { o.retry = p }
}

// WithCourtesyDelay sets the minimum spacing between requests.
func WithCourtesyDelay(d time.Duration) Option {
	return func(o *sourceOptions) { o.delay = d }
}

// WithWorkers bounds the number of concurrent requests.
func WithWorkers(n int) Option {
	return func(o *sourceOptions) { o.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *sourceOptions) { o.logger = l }
}

// WithClock overrides time.Now for quote timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *sourceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func failedKey(source, symbol string) string {
	return source + ":" + symbol
}
