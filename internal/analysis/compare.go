package analysis

import (
	"sort"

	"github.com/seenimoa/marketradar/pkg/models"
)

// Change is the price move of one symbol between two snapshots.
type Change struct {
	Class     models.AssetClass `json:"asset_type"`
	Symbol    string            `json:"symbol"`
	Name      string            `json:"name"`
	Previous  float64           `json:"previous"`
	Current   float64           `json:"current"`
	ChangePct float64           `json:"change_percent"`
}

// Compare lists symbols present in both snapshots with their move since
// prev, crypto first, each class in symbol order.
func Compare(prev, cur *models.Snapshot) []Change {
	if prev == nil || cur == nil {
		return nil
	}
	var out []Change
	for _, class := range []models.AssetClass{models.AssetCrypto, models.AssetStock} {
		before := prev.Quotes(class)
		for _, q := range sortedQuotes(cur.Quotes(class)) {
			p, ok := before[q.Symbol]
			if !ok || p.Price == 0 {
				continue
			}
			out = append(out, Change{
				Class:     class,
				Symbol:    q.Symbol,
				Name:      q.DisplayName(),
				Previous:  p.Price,
				Current:   q.Price,
				ChangePct: (q.Price - p.Price) / p.Price * 100,
			})
		}
	}
	return out
}

// RankPerformance returns the quotes for symbols ordered by change percent,
// best first. Unknown symbols are skipped.
func RankPerformance(quotes map[string]models.Quote, symbols []string) []models.Quote {
	out := make([]models.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := quotes[s]; ok {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangePct > out[j].ChangePct })
	return out
}

func sortedQuotes(m map[string]models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(m))
	for _, q := range m {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
