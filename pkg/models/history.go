package models

import (
	"fmt"
	"time"
)

// Point is a single (timestamp, price) observation of one symbol.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// HistoryRange is a named lookback window used by the dashboard.
type HistoryRange string

const (
	Range24h HistoryRange = "24h"
	Range7d  HistoryRange = "7d"
	Range30d HistoryRange = "30d"
	Range1y  HistoryRange = "1y"
)

// HistoryRanges returns all ranges, shortest first.
func HistoryRanges() []HistoryRange {
	return []HistoryRange{Range24h, Range7d, Range30d, Range1y}
}

// LookbackHours returns the window length in hours.
func (r HistoryRange) LookbackHours() int {
	switch r {
	case Range24h:
		return 24
	case Range7d:
		return 7 * 24
	case Range30d:
		return 30 * 24
	case Range1y:
		return 365 * 24
	default:
		return 0
	}
}

// Days returns the window length in whole days, minimum 1.
func (r HistoryRange) Days() int {
	d := r.LookbackHours() / 24
	if d < 1 {
		return 1
	}
	return d
}

// ParseHistoryRange parses "24h", "7d", "30d" or "1y".
func ParseHistoryRange(s string) (HistoryRange, error) {
	for _, r := range HistoryRanges() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown history range %q", s)
}

// SymbolHistory holds the series of one symbol for every range.
// A range with no data maps to an empty series.
type SymbolHistory map[HistoryRange][]Point

// MarketHistory is keyed by asset class, then symbol.
type MarketHistory map[AssetClass]map[string]SymbolHistory

// Set stores one series, allocating intermediate maps as needed.
func (h MarketHistory) Set(class AssetClass, symbol string, r HistoryRange, pts []Point) {
	bySymbol, ok := h[class]
	if !ok {
		bySymbol = make(map[string]SymbolHistory)
		h[class] = bySymbol
	}
	sh, ok := bySymbol[symbol]
	if !ok {
		sh = make(SymbolHistory)
		bySymbol[symbol] = sh
	}
	if pts == nil {
		pts = []Point{}
	}
	sh[r] = pts
}

// Get returns one series, or nil when absent.
func (h MarketHistory) Get(class AssetClass, symbol string, r HistoryRange) []Point {
	return h[class][symbol][r]
}

// PriceSeries extracts the prices of a point series.
func PriceSeries(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Price
	}
	return out
}
