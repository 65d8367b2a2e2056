package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketradar/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

var at = time.Date(2025, 1, 3, 1, 0, 0, 0, time.UTC)

func sampleSnapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	snap, err := models.NewSnapshot("2025-01-03", "09:00",
		map[string]models.Quote{
			"BTC": models.NewCryptoQuote("BTC", 42000, 1.5, 3.2e10, at),
			"ETH": models.NewCryptoQuote("ETH", 2200, -0.8, 1.1e10, at),
		},
		map[string]models.Quote{
			"^GSPC":     models.NewEquityQuote("^GSPC", "S&P 500", 4850, 4840.3, 0, at),
			"000001.SS": models.NewEquityQuote("000001.SS", "SSE Composite", 2950, 2970, 0, at),
		},
		[]string{"coingecko:SOL"})
	require.NoError(t, err)
	return snap
}

func samplePoints(n int, start, step float64) []models.Point {
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{Timestamp: at.Add(time.Duration(i-n) * time.Hour), Price: start + float64(i)*step}
	}
	return pts
}

// ════════════════════════════════════════════════════════════════════
// chart.go
// ════════════════════════════════════════════════════════════════════

func TestLineChart(t *testing.T) {
	svg := LineChart([]LineChartSeries{
		{Name: "BTC", Values: []float64{1, 2, 3, 4}},
		{Name: "ETH", Values: []float64{4, 3, 2, 1}},
	}, []string{"a", "b", "c", "d"}, ChartConfig{})

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 2, strings.Count(svg, "<path"))
	assert.Contains(t, svg, ">BTC</text>")
}

func TestLineChartNotEnoughPoints(t *testing.T) {
	svg := LineChart([]LineChartSeries{{Name: "x", Values: []float64{1}}}, nil, ChartConfig{})
	assert.Contains(t, svg, "Not enough history yet")
	assert.NotContains(t, svg, "<path")

	assert.Contains(t, LineChart(nil, nil, ChartConfig{}), "No data")
}

func TestLineChartFlatSeries(t *testing.T) {
	svg := LineChart([]LineChartSeries{{Name: "flat", Values: []float64{5, 5, 5}}}, nil, ChartConfig{})
	assert.Contains(t, svg, "<path")
	assert.NotContains(t, svg, "NaN")
}

func TestPriceChartColorsByDirection(t *testing.T) {
	up := PriceChart(samplePoints(10, 100, 1), models.Range24h, time.UTC, ChartConfig{})
	assert.Contains(t, up, `stroke="#16a34a"`)

	down := PriceChart(samplePoints(10, 100, -1), models.Range7d, time.UTC, ChartConfig{})
	assert.Contains(t, down, `stroke="#dc2626"`)

	assert.Contains(t, PriceChart(nil, models.Range1y, nil, ChartConfig{}), "Not enough history yet")
}

func TestChangeBarChart(t *testing.T) {
	svg := ChangeBarChart([]BarItem{
		{Label: "BTC", Value: 1.5},
		{Label: "S&P 500", Value: -0.8},
	}, ChartConfig{})

	assert.Equal(t, 3, strings.Count(svg, "<rect x="), "one rect per bar plus the background")
	assert.Contains(t, svg, "+1.50%")
	assert.Contains(t, svg, "-0.80%")
	assert.Contains(t, svg, "S&amp;P 500")
	assert.Contains(t, svg, `fill="#ef5350"`)
}

func TestGaugeChartClamps(t *testing.T) {
	assert.Contains(t, GaugeChart(150, "x", 0), ">100%</text>")
	assert.Contains(t, GaugeChart(-5, "x", 0), ">0%</text>")
	assert.Contains(t, GaugeChart(80, "x", 0), `stroke="#4caf50"`)
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; &lt;b&gt; &quot;c&quot;", escapeXML(`a & <b> "c"`))
}

// ════════════════════════════════════════════════════════════════════
// report.go
// ════════════════════════════════════════════════════════════════════

func TestRenderDashboard(t *testing.T) {
	snap := sampleSnapshot(t)
	hist := models.MarketHistory{}
	hist.Set(models.AssetCrypto, "BTC", models.Range24h, samplePoints(24, 41000, 40))
	hist.Set(models.AssetCrypto, "BTC", models.Range7d, []models.Point{})

	html, err := Render(Dashboard{
		Snapshot:    snap,
		History:     hist,
		Narration:   "Crypto <b>rallied</b>.",
		NarrationBy: "llm",
		Feeds: []models.FeedItem{
			{Title: "Fed holds rates", URL: "https://example.com/fed", Source: "Markets Wire", PublishedAt: at},
		},
		GeneratedAt: at,
	}, DefaultConfig())
	require.NoError(t, err)

	assert.Contains(t, html, "<title>MarketRadar · 2025-01-03 09:00</title>")
	assert.Contains(t, html, "Crypto &lt;b&gt;rallied&lt;/b&gt;.", "narration is escaped")
	assert.NotContains(t, html, "Statistical summary")
	assert.Contains(t, html, "<h3>US</h3>")
	assert.Contains(t, html, "<h3>Mainland China</h3>")
	assert.NotContains(t, html, "<h3>Hong Kong</h3>")
	assert.Contains(t, html, "42,000.00")
	assert.Contains(t, html, `id="crypto-BTC"`)
	assert.Contains(t, html, `id="stock-GSPC"`)
	assert.Contains(t, html, `id="stock-000001-SS"`)
	assert.Contains(t, html, "Not enough history yet")
	assert.Contains(t, html, `href="https://example.com/fed"`)
	assert.Contains(t, html, "Unavailable this run: coingecko:SOL")
	assert.Equal(t, 4*4, strings.Count(html, `class="range-panel`), "four ranges per symbol")
}

func TestRenderFallbackNarrationLabel(t *testing.T) {
	html, err := Render(Dashboard{Snapshot: sampleSnapshot(t), Narration: "stats", NarrationBy: "fallback"}, Config{})
	require.NoError(t, err)
	assert.Contains(t, html, "Statistical summary")
}

func TestRenderNilSnapshot(t *testing.T) {
	_, err := Render(Dashboard{}, DefaultConfig())
	assert.Error(t, err)
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dashboard")
	snap := sampleSnapshot(t)

	path, err := WriteFiles(dir, snap, "<html>one</html>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dashboard_2025-01-03_09-00.html"), path)

	_, err = WriteFiles(dir, snap, "<html>two</html>")
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>two</html>", string(index))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestChartID(t *testing.T) {
	assert.Equal(t, "stock-GSPC", chartID(models.AssetStock, "^GSPC"))
	assert.Equal(t, "stock-0700-HK", chartID(models.AssetStock, "0700.HK"))
	assert.Equal(t, "crypto-BTC", chartID(models.AssetCrypto, "BTC"))
}
