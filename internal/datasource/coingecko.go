package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

// DefaultCoinGeckoURL is the public, keyless CoinGecko API.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinInfo maps a ticker symbol to its CoinGecko id.
type CoinInfo struct {
	ID       string
	Name     string
	Category models.Category
}

// Coins lists the supported crypto symbols.
var Coins = map[string]CoinInfo{
	"BTC":   {ID: "bitcoin", Name: "Bitcoin", Category: models.CategoryMainstream},
	"ETH":   {ID: "ethereum", Name: "Ethereum", Category: models.CategoryMainstream},
	"BNB":   {ID: "binancecoin", Name: "BNB", Category: models.CategoryChain},
	"SOL":   {ID: "solana", Name: "Solana", Category: models.CategoryChain},
	"AVAX":  {ID: "avalanche-2", Name: "Avalanche", Category: models.CategoryChain},
	"MATIC": {ID: "matic-network", Name: "Polygon", Category: models.CategoryChain},
	"UNI":   {ID: "uniswap", Name: "Uniswap", Category: models.CategoryDeFi},
	"AAVE":  {ID: "aave", Name: "Aave", Category: models.CategoryDeFi},
	"LINK":  {ID: "chainlink", Name: "Chainlink", Category: models.CategoryDeFi},
	"XRP":   {ID: "ripple", Name: "XRP", Category: models.CategoryOther},
}

// SupportedCoins returns the supported crypto symbols in sorted order.
func SupportedCoins() []string {
	out := make([]string, 0, len(Coins))
	for sym := range Coins {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// CoinGecko fetches crypto quotes and price history from CoinGecko.
type CoinGecko struct {
	opts sourceOptions
	http *infra.HTTPClient
}

// NewCoinGecko creates a CoinGecko source with a 100ms courtesy delay.
func NewCoinGecko(opts ...Option) *CoinGecko {
	o := defaultOptions(DefaultCoinGeckoURL, 100*time.Millisecond)
	o.apply(opts)
	return &CoinGecko{opts: o, http: o.client()}
}

// Name returns the data source name.
func (c *CoinGecko) Name() string { return "coingecko" }

// Class returns models.AssetCrypto.
func (c *CoinGecko) Class() models.AssetClass { return models.AssetCrypto }

// --- CoinGecko API types ---

// simplePriceResponse is keyed by coin id:
// {"bitcoin": {"usd": 42000, "usd_24h_change": 2.5, "usd_24h_vol": 1000000000}}
type simplePriceResponse map[string]struct {
	USD       *float64 `json:"usd"`
	Change24h float64  `json:"usd_24h_change"`
	Vol24h    float64  `json:"usd_24h_vol"`
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"` // [ms, price]
}

// --- Public methods ---

// FetchQuotes fetches all requested symbols in one /simple/price call.
// When that call fails, or a coin is missing from its answer, the affected
// coins are requested one by one. Unsupported symbols are never requested.
func (c *CoinGecko) FetchQuotes(ctx context.Context, symbols []string) FetchResult {
	res := FetchResult{Quotes: make(map[string]models.Quote, len(symbols))}

	ids := make([]string, 0, len(symbols))
	var supported []string
	for _, sym := range symbols {
		info, ok := Coins[sym]
		if !ok {
			c.opts.logger.Warn("unsupported crypto symbol", "symbol", sym)
			res.Failed = append(res.Failed, failedKey(c.Name(), sym))
			continue
		}
		supported = append(supported, sym)
		ids = append(ids, info.ID)
	}
	if len(ids) == 0 {
		sort.Strings(res.Failed)
		return res
	}

	var retry []string
	data, err := c.simplePrice(ctx, ids)
	if err != nil {
		c.opts.logger.Warn("coingecko batch request failed, fetching coins one by one", "error", err)
		retry = supported
	} else {
		now := c.opts.now()
		for _, sym := range supported {
			q, err := c.coinQuote(sym, data, now)
			if err != nil {
				retry = append(retry, sym)
				continue
			}
			res.Quotes[sym] = q
		}
	}

	if len(retry) > 0 {
		single := fetchEach(ctx, c.Name(), retry, c.opts.workers, c.opts.logger, c.fetchCoin)
		for sym, q := range single.Quotes {
			res.Quotes[sym] = q
		}
		res.Failed = append(res.Failed, single.Failed...)
	}
	sort.Strings(res.Failed)
	return res
}

func (c *CoinGecko) simplePrice(ctx context.Context, ids []string) (simplePriceResponse, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")

	var data simplePriceResponse
	err := c.http.GetJSON(ctx, c.opts.baseURL+"/simple/price?"+q.Encode(), map[string]string{"Accept": "application/json"}, &data)
	return data, err
}

// fetchCoin requests a single coin.
func (c *CoinGecko) fetchCoin(ctx context.Context, sym string) (models.Quote, error) {
	data, err := c.simplePrice(ctx, []string{Coins[sym].ID})
	if err != nil {
		return models.Quote{}, err
	}
	return c.coinQuote(sym, data, c.opts.now())
}

func (c *CoinGecko) coinQuote(sym string, data simplePriceResponse, now time.Time) (models.Quote, error) {
	info := Coins[sym]
	coin, ok := data[info.ID]
	if !ok || coin.USD == nil || *coin.USD <= 0 {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoData, sym)
	}
	quote := models.NewCryptoQuote(sym, *coin.USD, coin.Change24h, coin.Vol24h, now)
	quote.Name = info.Name
	quote.Category = info.Category
	quote.Source = c.Name()
	return quote, nil
}

// FetchHistory returns the price series of the last days days from
// /coins/{id}/market_chart. Granularity is left to CoinGecko up to 90 days
// (hourly), and forced to daily beyond.
func (c *CoinGecko) FetchHistory(ctx context.Context, symbol string, days int) ([]models.Point, error) {
	info, ok := Coins[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if days < 1 {
		days = 1
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	if days > 90 {
		q.Set("interval", "daily")
	}

	var data marketChartResponse
	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.opts.baseURL, url.PathEscape(info.ID), q.Encode())
	if err := c.http.GetJSON(ctx, u, nil, &data); err != nil {
		return nil, fmt.Errorf("coingecko history %s: %w", symbol, err)
	}
	if len(data.Prices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	points := make([]models.Point, 0, len(data.Prices))
	for _, p := range data.Prices {
		points = append(points, models.Point{
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
			Price:     p[1],
		})
	}
	return points, nil
}
