package analysis

import (
	"math"
	"strings"

	"github.com/seenimoa/marketradar/pkg/models"
)

// Sentiment is a coarse market mood label.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// MarketSentiment classifies each asset class by the share of advancing
// quotes. Overall is bullish or bearish only when both classes agree.
type MarketSentiment struct {
	Crypto          Sentiment `json:"crypto_sentiment"`
	Equity          Sentiment `json:"stock_sentiment"`
	Overall         Sentiment `json:"overall_sentiment"`
	CryptoGainRatio float64   `json:"crypto_gain_ratio"` // percent, 0 when no quotes
	EquityGainRatio float64   `json:"stock_gain_ratio"`
}

// ComputeSentiment derives the market mood from a snapshot. Only strictly
// positive changes count as advancing here: above 70% is bullish, below 30%
// bearish.
func ComputeSentiment(snap *models.Snapshot) MarketSentiment {
	cs, cr := classSentiment(snap.SortedCrypto())
	es, er := classSentiment(snap.SortedEquity())

	overall := Neutral
	switch {
	case cs == Bullish && es == Bullish:
		overall = Bullish
	case cs == Bearish && es == Bearish:
		overall = Bearish
	}
	return MarketSentiment{
		Crypto:          cs,
		Equity:          es,
		Overall:         overall,
		CryptoGainRatio: math.Round(cr*10000) / 100,
		EquityGainRatio: math.Round(er*10000) / 100,
	}
}

func classSentiment(quotes []models.Quote) (Sentiment, float64) {
	if len(quotes) == 0 {
		return Neutral, 0
	}
	up := 0
	for _, q := range quotes {
		if q.ChangePct > 0 {
			up++
		}
	}
	ratio := float64(up) / float64(len(quotes))
	switch {
	case ratio > 0.7:
		return Bullish, ratio
	case ratio < 0.3:
		return Bearish, ratio
	default:
		return Neutral, ratio
	}
}

// ── Headline tone ──

// Keyword dictionaries, lowercase.
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"gain": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"strong": 0.4, "recovery": 0.5, "breakout": 0.6, "inflow": 0.5,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5, "approval": 0.5,
	"rate cut": 0.4, "adoption": 0.4,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"downgrade": 0.6, "underperform": 0.6, "selloff": 0.7, "sell-off": 0.7,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "fall": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "hack": 0.8, "lawsuit": 0.5, "outflow": 0.5,
	"liquidation": 0.6, "recession": 0.6, "warning": 0.5, "concern": 0.3,
}

// ScoreHeadline scores one headline from -1 (bearish) to +1 (bullish) and
// reports a confidence that grows with the number of keyword hits.
func ScoreHeadline(headline string) (score, confidence float64) {
	lower := strings.ToLower(headline)

	bull, bear := 0.0, 0.0
	matches := 0
	for word, w := range bullishWords {
		if strings.Contains(lower, word) {
			bull += w
			matches++
		}
	}
	for word, w := range bearishWords {
		if strings.Contains(lower, word) {
			bear += w
			matches++
		}
	}
	if matches == 0 {
		return 0, 0.1
	}

	score = (bull - bear) / (bull + bear)
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// HeadlineTone is the confidence-weighted mean score of feed items.
type HeadlineTone struct {
	Score float64   `json:"score"`
	Label Sentiment `json:"label"`
	Items int       `json:"items"`
}

// ScoreHeadlines aggregates ScoreHeadline over feed titles and summaries.
func ScoreHeadlines(items []models.FeedItem) HeadlineTone {
	tone := HeadlineTone{Label: Neutral, Items: len(items)}
	weighted, total := 0.0, 0.0
	for _, it := range items {
		text := it.Title
		if it.Summary != "" {
			text += " " + it.Summary
		}
		s, c := ScoreHeadline(text)
		weighted += s * c
		total += c
	}
	if total == 0 {
		return tone
	}
	tone.Score = weighted / total
	switch {
	case tone.Score > 0.3:
		tone.Label = Bullish
	case tone.Score < -0.3:
		tone.Label = Bearish
	}
	return tone
}
