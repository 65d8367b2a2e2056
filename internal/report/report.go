package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/seenimoa/marketradar/internal/analysis"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Dashboard Input
// ════════════════════════════════════════════════════════════════════

// Dashboard is everything the renderer draws. Only Snapshot is required;
// missing history ranges render as "not enough history" placeholders.
type Dashboard struct {
	Snapshot    *models.Snapshot
	History     models.MarketHistory
	Narration   string
	NarrationBy string // "llm", "cache" or "fallback"
	Feeds       []models.FeedItem
	GeneratedAt time.Time
}

// Config controls dashboard rendering.
type Config struct {
	Title    string
	Location *time.Location // display timezone (default: UTC)
	ChartCfg ChartConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Title:    "MarketRadar",
		Location: time.UTC,
		ChartCfg: DefaultChartConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════
// Template Model
// ════════════════════════════════════════════════════════════════════

// PageData is the template model passed to the dashboard template.
type PageData struct {
	Title       string
	Date        string
	CrawlTime   string
	GeneratedAt string

	Narration   string
	NarrationBy string

	CryptoRows   []QuoteRow
	EquityGroups []EquityGroup
	Charts       []SymbolCharts
	ChangeChart  template.HTML
	Gauges       []template.HTML
	Sentiment    string
	Feeds        []FeedRow
	Failed       []string
	TotalItems   int
}

// QuoteRow is one table row.
type QuoteRow struct {
	Symbol    string
	Name      string
	Price     string
	Change    string
	ChangePct string
	Volume    string
	Category  string
	ChangeCSS string // "positive" or "negative"
}

// EquityGroup is the equity table of one market.
type EquityGroup struct {
	Market string
	Rows   []QuoteRow
}

// SymbolCharts holds one chart per history range for a symbol.
type SymbolCharts struct {
	ID     string
	Symbol string
	Name   string
	Ranges []RangeChart
}

// RangeChart is one inline SVG chart.
type RangeChart struct {
	Range  string
	SVG    template.HTML
	Change string
}

// FeedRow is one external headline.
type FeedRow struct {
	Title     string
	URL       string
	Source    string
	Published string
}

var marketNames = map[models.Category]string{
	models.MarketUS: "US",
	models.MarketHK: "Hong Kong",
	models.MarketCN: "Mainland China",
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(DashboardTemplate))

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

// Render produces the self-contained dashboard HTML. It has no side effects.
func Render(d Dashboard, cfg Config) (string, error) {
	if d.Snapshot == nil {
		return "", errors.New("report: snapshot is nil")
	}
	if cfg.ChartCfg.Width == 0 {
		cfg.ChartCfg = DefaultChartConfig()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Title == "" {
		cfg.Title = "MarketRadar"
	}

	data := buildPageData(d, cfg)

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// WriteFiles writes html to dir as index.html and as a dated copy
// dashboard_<date>_<HH-MM>.html. It returns the dated file's path.
func WriteFiles(dir string, snap *models.Snapshot, html string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dashboard dir: %w", err)
	}
	name := fmt.Sprintf("dashboard_%s_%s.html", snap.Date(), utils.FileSafeCrawlTime(snap.CrawlTime()))
	dated := filepath.Join(dir, name)

	for _, path := range []string{dated, filepath.Join(dir, "index.html")} {
		if err := writeAtomic(path, []byte(html)); err != nil {
			return "", err
		}
	}
	return dated, nil
}

// writeAtomic writes via a temp file so readers never see a partial page.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dashboard-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// ════════════════════════════════════════════════════════════════════
// Internal: build template data
// ════════════════════════════════════════════════════════════════════

func buildPageData(d Dashboard, cfg Config) PageData {
	snap := d.Snapshot
	generated := d.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	data := PageData{
		Title:       fmt.Sprintf("%s · %s", cfg.Title, snap.Label()),
		Date:        snap.Date(),
		CrawlTime:   snap.CrawlTime(),
		GeneratedAt: generated.In(cfg.Location).Format("2006-01-02 15:04:05 MST"),
		Narration:   d.Narration,
		NarrationBy: d.NarrationBy,
		Failed:      snap.FailedSources(),
		TotalItems:  snap.TotalItems(),
	}

	for _, q := range snap.SortedCrypto() {
		data.CryptoRows = append(data.CryptoRows, quoteRow(q))
	}
	byMarket := snap.EquityByMarket()
	for _, m := range models.EquityMarkets() {
		quotes := byMarket[m]
		if len(quotes) == 0 {
			continue
		}
		g := EquityGroup{Market: marketNames[m]}
		for _, q := range quotes {
			g.Rows = append(g.Rows, quoteRow(q))
		}
		data.EquityGroups = append(data.EquityGroups, g)
	}

	data.Charts = buildCharts(snap, d.History, cfg)

	var bars []BarItem
	for _, q := range analysis.RankPerformance(snap.CryptoQuotes(), snap.CryptoSymbols()) {
		bars = append(bars, BarItem{Label: q.Symbol, Value: q.ChangePct})
	}
	for _, q := range analysis.RankPerformance(snap.EquityQuotes(), snap.EquitySymbols()) {
		bars = append(bars, BarItem{Label: q.DisplayName(), Value: q.ChangePct})
	}
	if len(bars) > 0 {
		barCfg := cfg.ChartCfg
		barCfg.Title = "Change %"
		data.ChangeChart = template.HTML(ChangeBarChart(bars, barCfg))
	}

	s := analysis.ComputeSentiment(snap)
	data.Sentiment = string(s.Overall)
	if snap.HasCryptoData() {
		data.Gauges = append(data.Gauges, template.HTML(GaugeChart(s.CryptoGainRatio, "Crypto advancing", 0)))
	}
	if snap.HasEquityData() {
		data.Gauges = append(data.Gauges, template.HTML(GaugeChart(s.EquityGainRatio, "Indices advancing", 0)))
	}

	for _, it := range d.Feeds {
		row := FeedRow{Title: it.Title, URL: it.URL, Source: it.Source}
		if !it.PublishedAt.IsZero() {
			row.Published = it.PublishedAt.In(cfg.Location).Format("01-02 15:04")
		}
		data.Feeds = append(data.Feeds, row)
	}
	return data
}

func buildCharts(snap *models.Snapshot, h models.MarketHistory, cfg Config) []SymbolCharts {
	var out []SymbolCharts
	add := func(class models.AssetClass, quotes []models.Quote) {
		for _, q := range quotes {
			sc := SymbolCharts{
				ID:     chartID(class, q.Symbol),
				Symbol: q.Symbol,
				Name:   q.DisplayName(),
			}
			for _, r := range models.HistoryRanges() {
				pts := h.Get(class, q.Symbol, r)
				rc := RangeChart{
					Range: string(r),
					SVG:   template.HTML(PriceChart(pts, r, cfg.Location, cfg.ChartCfg)),
				}
				if t, err := analysis.ComputeTrend(pts); err == nil {
					rc.Change = utils.FormatPct(t.ChangePct)
				}
				sc.Ranges = append(sc.Ranges, rc)
			}
			out = append(out, sc)
		}
	}
	add(models.AssetCrypto, snap.SortedCrypto())
	add(models.AssetStock, snap.SortedEquity())
	return out
}

func quoteRow(q models.Quote) QuoteRow {
	row := QuoteRow{
		Symbol:    q.Symbol,
		Name:      q.DisplayName(),
		Price:     utils.FormatPrice(q.Price),
		Change:    fmt.Sprintf("%+.2f", q.Change),
		ChangePct: utils.FormatPct(q.ChangePct),
		Category:  string(q.Category),
		ChangeCSS: "positive",
	}
	if q.Volume > 0 {
		row.Volume = utils.FormatCompact(q.Volume)
	}
	if !q.IsGain() {
		row.ChangeCSS = "negative"
	}
	return row
}

// chartID turns a symbol into an HTML id, e.g. "^GSPC" → "stock-GSPC".
func chartID(class models.AssetClass, symbol string) string {
	b := []byte(string(class) + "-")
	for _, c := range []byte(symbol) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b = append(b, c)
		case c == '.' || c == '-':
			b = append(b, '-')
		}
	}
	return string(b)
}
