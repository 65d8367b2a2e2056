// Package analysis computes local market statistics: gainer/loser summaries,
// volatility, sentiment, snapshot comparison and trend. Nothing here calls
// out to the network; the narration layer uses it as its fallback.
package analysis

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/marketradar/pkg/models"
)

// ClassStats counts gainers and losers of one asset class.
// A quote with a zero change counts as a gainer.
type ClassStats struct {
	Count   int
	Gainers int
	Losers  int
	AvgGain decimal.Decimal // mean % change of gainers
	AvgLoss decimal.Decimal // mean % change of losers (negative)
	Best    *models.Quote
	Worst   *models.Quote
}

// MarketStats holds ClassStats for both asset classes.
type MarketStats struct {
	Crypto ClassStats
	Equity ClassStats
}

// Stats computes gainer/loser statistics over quotes.
func Stats(quotes []models.Quote) ClassStats {
	st := ClassStats{Count: len(quotes)}
	sumGain, sumLoss := decimal.Zero, decimal.Zero

	for i := range quotes {
		q := quotes[i]
		pct := decimal.NewFromFloat(q.ChangePct)
		if q.IsGain() {
			st.Gainers++
			sumGain = sumGain.Add(pct)
		} else {
			st.Losers++
			sumLoss = sumLoss.Add(pct)
		}
		if st.Best == nil || q.ChangePct > st.Best.ChangePct {
			st.Best = &quotes[i]
		}
		if st.Worst == nil || q.ChangePct < st.Worst.ChangePct {
			st.Worst = &quotes[i]
		}
	}

	if st.Gainers > 0 {
		st.AvgGain = sumGain.Div(decimal.NewFromInt(int64(st.Gainers)))
	}
	if st.Losers > 0 {
		st.AvgLoss = sumLoss.Div(decimal.NewFromInt(int64(st.Losers)))
	}
	return st
}

// Summarize computes MarketStats for a snapshot.
func Summarize(snap *models.Snapshot) MarketStats {
	if snap == nil {
		return MarketStats{}
	}
	return MarketStats{
		Crypto: Stats(snap.SortedCrypto()),
		Equity: Stats(snap.SortedEquity()),
	}
}

// FallbackNarration renders the statistics-only market summary used when
// no narration service is available.
func FallbackNarration(snap *models.Snapshot) string {
	st := Summarize(snap)

	var b strings.Builder
	b.WriteString("## Market overview\n\n")

	if st.Crypto.Count > 0 {
		b.WriteString("### Crypto\n\n")
		writeClassLines(&b, st.Crypto, "assets")
		b.WriteString("\n")
	}
	if st.Equity.Count > 0 {
		b.WriteString("### Equities\n\n")
		writeClassLines(&b, st.Equity, "indices")
		b.WriteString("\n")
	}
	if st.Crypto.Count == 0 && st.Equity.Count == 0 {
		b.WriteString("No market data available.\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("Note: AI commentary is unavailable; this is a statistical summary.")
	return b.String()
}

func writeClassLines(b *strings.Builder, st ClassStats, noun string) {
	if st.Gainers > 0 {
		fmt.Fprintf(b, "- Up: %d %s, average %s%%\n", st.Gainers, noun, signed(st.AvgGain))
	}
	if st.Losers > 0 {
		fmt.Fprintf(b, "- Down: %d %s, average %s%%\n", st.Losers, noun, signed(st.AvgLoss))
	}
	if st.Best != nil && st.Count > 1 {
		fmt.Fprintf(b, "- Best: %s %s%%, worst: %s %s%%\n",
			st.Best.DisplayName(), signed(decimal.NewFromFloat(st.Best.ChangePct)),
			st.Worst.DisplayName(), signed(decimal.NewFromFloat(st.Worst.ChangePct)))
	}
}

// signed formats d with two decimals and an explicit sign.
func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}
