package utils

import (
	"sort"
	"strings"
)

// Common crypto name aliases.
var cryptoAliases = map[string]string{
	"BITCOIN":   "BTC",
	"XBT":       "BTC",
	"ETHEREUM":  "ETH",
	"ETHER":     "ETH",
	"BINANCE":   "BNB",
	"SOLANA":    "SOL",
	"AVALANCHE": "AVAX",
	"POLYGON":   "MATIC",
	"POL":       "MATIC",
	"UNISWAP":   "UNI",
	"CHAINLINK": "LINK",
	"RIPPLE":    "XRP",
}

// Index name aliases to Yahoo Finance tickers.
var indexAliases = map[string]string{
	"SPX":        "^GSPC",
	"S&P500":     "^GSPC",
	"S&P 500":    "^GSPC",
	"NASDAQ":     "^IXIC",
	"DOW":        "^DJI",
	"DJIA":       "^DJI",
	"HANGSENG":   "^HSI",
	"HANG SENG":  "^HSI",
	"SSE":        "000001.SS",
	"SZSE":       "399001.SZ",
	"CHINEXT":    "399006.SZ",
}

// NormalizeCryptoSymbol uppercases and resolves common aliases.
// e.g., "bitcoin" → "BTC", "$eth" → "ETH"
func NormalizeCryptoSymbol(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToUpper(s)), "$")
	if canonical, ok := cryptoAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeEquitySymbol uppercases and resolves index aliases.
// e.g., "spx" → "^GSPC", "aapl" → "AAPL"
func NormalizeEquitySymbol(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToUpper(s)), "$")
	if canonical, ok := indexAliases[s]; ok {
		return canonical
	}
	return s
}

// IsIndexSymbol reports whether s is a Yahoo-style index ticker.
func IsIndexSymbol(s string) bool {
	return strings.HasPrefix(s, "^")
}

// UniqueSymbols normalizes, deduplicates and sorts a symbol list,
// dropping empty entries.
func UniqueSymbols(symbols []string, normalize func(string) string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if normalize != nil {
			s = normalize(s)
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SplitSymbols splits a comma separated list.
func SplitSymbols(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
