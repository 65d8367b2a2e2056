// Package utils provides common utility functions for MarketRadar.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPrice formats a price with thousands separators.
// Prices below 1 keep four decimals so that small-cap tokens stay readable.
// e.g., 42000 → "42,000.00", 0.5123 → "0.5123"
func FormatPrice(price float64) string {
	negative := price < 0
	price = math.Abs(price)

	var s string
	if price > 0 && price < 1 {
		s = fmt.Sprintf("%.4f", price)
	} else {
		s = fmt.Sprintf("%.2f", price)
		intPart, decPart, _ := strings.Cut(s, ".")
		s = groupThousands(intPart) + "." + decPart
	}
	if negative {
		return "-" + s
	}
	return s
}

// FormatUSD formats a price with a dollar sign.
func FormatUSD(price float64) string {
	if price < 0 {
		return "-$" + FormatPrice(-price)
	}
	return "$" + FormatPrice(price)
}

// FormatCompact formats large numbers with K/M/B/T suffixes.
// e.g., 1500 → "1.5K", 25300000000 → "25.3B"
func FormatCompact(v float64) string {
	negative := v < 0
	v = math.Abs(v)

	var s string
	switch {
	case v >= 1e12:
		s = formatWithDecimals(v/1e12) + "T"
	case v >= 1e9:
		s = formatWithDecimals(v/1e9) + "B"
	case v >= 1e6:
		s = formatWithDecimals(v/1e6) + "M"
	case v >= 1e3:
		s = formatWithDecimals(v/1e3) + "K"
	default:
		s = formatWithDecimals(v)
	}
	if negative {
		return "-" + s
	}
	return s
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// Truncate cuts s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
