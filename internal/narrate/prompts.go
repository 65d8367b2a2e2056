package narrate

import (
	"fmt"
	"strings"

	"github.com/seenimoa/marketradar/internal/analysis"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// ── System Prompt ──

// SystemPrompt configures the narration model.
const SystemPrompt = `You are a senior markets analyst writing a short daily briefing that covers crypto and global equity indices.

Rules:
- Use only the numbers you are given. Never estimate or fabricate data.
- Be objective and concise. No investment advice.
- Use Markdown with short sections and bullet points.
- Flag risks explicitly when moves are large or markets diverge.`

// ── Prompt Builder ──

// Input is everything the narration prompt can draw on. Only Snapshot is
// required.
type Input struct {
	Snapshot *models.Snapshot
	Previous *models.Snapshot
	History  models.MarketHistory
	News     []models.FeedItem
}

// BuildPrompt renders the user prompt for in.
func BuildPrompt(in Input) string {
	snap := in.Snapshot
	var b strings.Builder

	fmt.Fprintf(&b, "**Date**: %s\n**Time**: %s\n\n", snap.Date(), snap.CrawlTime())

	b.WriteString("## Crypto\n\n")
	b.WriteString(formatCrypto(snap.SortedCrypto()))
	b.WriteString("\n\n## Equity indices\n\n")
	b.WriteString(formatEquity(snap))
	b.WriteString("\n")

	if changes := analysis.Compare(in.Previous, snap); len(changes) > 0 {
		fmt.Fprintf(&b, "\n## Since the previous snapshot (%s)\n\n", in.Previous.Label())
		for _, c := range changes {
			fmt.Fprintf(&b, "- %s: $%s → $%s (%s)\n",
				c.Symbol, utils.FormatPrice(c.Previous), utils.FormatPrice(c.Current), utils.FormatPct(c.ChangePct))
		}
	}

	if trends := formatTrends(snap, in.History); trends != "" {
		b.WriteString("\n## Trends\n\n")
		b.WriteString(trends)
	}

	if len(in.News) > 0 {
		tone := analysis.ScoreHeadlines(in.News)
		fmt.Fprintf(&b, "\n## Headlines (tone: %s, %.2f)\n\n", tone.Label, tone.Score)
		for _, it := range in.News {
			fmt.Fprintf(&b, "- %s (%s)\n", it.Title, it.Source)
		}
	}

	b.WriteString(`
Write the briefing in four parts:

1. **Overview**: overall performance of crypto and equities
2. **Key moves**: the largest gainers and losers and what stands out
3. **Markets**: differences between US, Hong Kong, mainland China and crypto
4. **Risks**: anything a reader should watch
`)
	return b.String()
}

// --- Formatting helpers ---

func formatCrypto(quotes []models.Quote) string {
	if len(quotes) == 0 {
		return "(no data)"
	}
	lines := make([]string, 0, len(quotes))
	for _, q := range quotes {
		lines = append(lines, fmt.Sprintf("- **%s**: $%s %s 24h | volume $%s",
			q.Symbol, utils.FormatPrice(q.Price), utils.FormatPct(q.ChangePct), utils.FormatCompact(q.Volume)))
	}
	return strings.Join(lines, "\n")
}

var marketTitles = map[models.Category]string{
	models.MarketUS: "US",
	models.MarketHK: "Hong Kong",
	models.MarketCN: "Mainland China",
}

func formatEquity(snap *models.Snapshot) string {
	if !snap.HasEquityData() {
		return "(no data)"
	}
	byMarket := snap.EquityByMarket()
	var sections []string
	for _, m := range models.EquityMarkets() {
		quotes := byMarket[m]
		if len(quotes) == 0 {
			continue
		}
		lines := []string{"### " + marketTitles[m]}
		for _, q := range quotes {
			lines = append(lines, fmt.Sprintf("- **%s**: %s %+.2f (%s)",
				q.DisplayName(), utils.FormatPrice(q.Price), q.Change, utils.FormatPct(q.ChangePct)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// formatTrends summarises the 7d and 30d series of every snapshot symbol
// that has enough history.
func formatTrends(snap *models.Snapshot, h models.MarketHistory) string {
	if len(h) == 0 {
		return ""
	}
	var b strings.Builder
	for _, class := range []models.AssetClass{models.AssetCrypto, models.AssetStock} {
		for _, q := range sortedByClass(snap, class) {
			var parts []string
			for _, r := range []models.HistoryRange{models.Range7d, models.Range30d} {
				t, err := analysis.ComputeTrend(h.Get(class, q.Symbol, r))
				if err != nil {
					continue
				}
				parts = append(parts, fmt.Sprintf("%s %s %s", r, t.Direction, utils.FormatPct(t.ChangePct)))
			}
			if len(parts) > 0 {
				fmt.Fprintf(&b, "- %s: %s\n", q.Symbol, strings.Join(parts, ", "))
			}
		}
	}
	return b.String()
}

func sortedByClass(snap *models.Snapshot, class models.AssetClass) []models.Quote {
	if class == models.AssetCrypto {
		return snap.SortedCrypto()
	}
	return snap.SortedEquity()
}
