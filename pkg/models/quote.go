// Package models defines the core data types shared across MarketRadar:
// quotes, market snapshots, time-series points and feed items.
package models

import (
	"fmt"
	"strings"
	"time"
)

// AssetClass tags a quote (and every persisted point) with its market.
type AssetClass string

const (
	AssetCrypto AssetClass = "crypto"
	AssetStock  AssetClass = "stock"
)

// ParseAssetClass accepts "crypto", "stock" and the alias "equity".
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crypto":
		return AssetCrypto, nil
	case "stock", "equity":
		return AssetStock, nil
	default:
		return "", fmt.Errorf("unknown asset class %q", s)
	}
}

// Category is the market segment of a quote.
// Crypto quotes use the segment constants, equities the market constants.
type Category string

const (
	CategoryMainstream Category = "mainstream"
	CategoryChain      Category = "chain"
	CategoryDeFi       Category = "defi"
	CategoryOther      Category = "other"

	MarketUS Category = "US"
	MarketHK Category = "HK"
	MarketCN Category = "CN"
)

// EquityMarkets lists equity markets in display order.
func EquityMarkets() []Category {
	return []Category{MarketUS, MarketHK, MarketCN}
}

// DetectMarket infers the equity market from a Yahoo-style symbol.
func DetectMarket(symbol string) Category {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, ".SS"), strings.HasSuffix(s, ".SZ"):
		return MarketCN
	case strings.HasSuffix(s, ".HK"), s == "^HSI":
		return MarketHK
	default:
		return MarketUS
	}
}

// Quote is one symbol's observation within a fetch cycle.
//
// Both variants share the same fields. For crypto, ChangePct is the 24h
// percentage change and Volume the 24h USD volume; Change is derived from
// them. For equities Change and ChangePct are relative to the previous close.
type Quote struct {
	Class      AssetClass `json:"class"`
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	Change     float64    `json:"change"`
	ChangePct  float64    `json:"change_pct"`
	Volume     float64    `json:"volume"`
	CapturedAt time.Time  `json:"captured_at"`
	Category   Category   `json:"category"`
	Source     string     `json:"source,omitempty"`
}

// DisplayName returns Name, or Symbol when no name is known.
func (q Quote) DisplayName() string {
	if strings.TrimSpace(q.Name) != "" {
		return q.Name
	}
	return q.Symbol
}

// IsGain reports whether the quote moved up or stayed flat.
// A zero change counts as a gain.
func (q Quote) IsGain() bool { return q.ChangePct >= 0 }

// normalized strips the monotonic clock reading and pins the timestamp to UTC
// so that quotes compare equal after a storage round trip.
func (q Quote) normalized(class AssetClass) Quote {
	q.Class = class
	if !q.CapturedAt.IsZero() {
		q.CapturedAt = q.CapturedAt.Round(0).UTC()
	}
	return q
}

// NewCryptoQuote builds a crypto quote from a 24h percentage change.
func NewCryptoQuote(symbol string, price, changePct24h, volume24h float64, at time.Time) Quote {
	change := 0.0
	if base := 100 + changePct24h; base != 0 {
		change = price - price*100/base
	}
	return Quote{
		Class:      AssetCrypto,
		Symbol:     symbol,
		Name:       symbol,
		Price:      price,
		Change:     change,
		ChangePct:  changePct24h,
		Volume:     volume24h,
		CapturedAt: at,
		Category:   CategoryOther,
	}
}

// NewEquityQuote builds an equity quote from the previous close.
// A zero previous close yields a zero change.
func NewEquityQuote(symbol, name string, price, prevClose, volume float64, at time.Time) Quote {
	var change, pct float64
	if prevClose > 0 {
		change = price - prevClose
		pct = change / prevClose * 100
	}
	return Quote{
		Class:      AssetStock,
		Symbol:     symbol,
		Name:       name,
		Price:      price,
		Change:     change,
		ChangePct:  pct,
		Volume:     volume,
		CapturedAt: at,
		Category:   DetectMarket(symbol),
	}
}
