// Package notify renders market notifications for a Feishu (Lark) bot and
// posts them to its webhook.
package notify

import (
	"fmt"
	"strings"

	"github.com/seenimoa/marketradar/internal/analysis"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// Truncation limits for narration text.
const (
	CardNarrationLimit = 800
	TextNarrationLimit = 500
)

// Content is what a notification carries. Only Snapshot is required.
type Content struct {
	Snapshot     *models.Snapshot
	Narration    string
	FeedSummary  string // one headline per line
	DashboardURL string
}

// ── Card payload ──

// Card is a Feishu interactive message.
type Card struct {
	MsgType string   `json:"msg_type"`
	Card    CardBody `json:"card"`
}

// CardBody is the card document.
type CardBody struct {
	Config   CardConfig `json:"config"`
	Header   CardHeader `json:"header"`
	Elements []Element  `json:"elements"`
}

// CardConfig holds card display options.
type CardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

// CardHeader is the coloured title bar.
type CardHeader struct {
	Title    PlainText `json:"title"`
	Template string    `json:"template"`
}

// PlainText is a text node.
type PlainText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// Element is one card block: markdown, hr or action.
type Element struct {
	Tag     string   `json:"tag"`
	Content string   `json:"content,omitempty"`
	Actions []Button `json:"actions,omitempty"`
}

// Button is a link button.
type Button struct {
	Tag  string    `json:"tag"`
	Text PlainText `json:"text"`
	Type string    `json:"type"`
	URL  string    `json:"url"`
}

// TextMessage is a plain Feishu text message.
type TextMessage struct {
	MsgType string `json:"msg_type"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
}

var hr = Element{Tag: "hr"}

func markdown(s string) Element { return Element{Tag: "markdown", Content: s} }

// ── Renderers ──

// RenderCard builds the interactive card. The header turns green or red when
// the market sentiment is clearly bullish or bearish.
func RenderCard(c Content) Card {
	snap := c.Snapshot
	var els []Element

	els = append(els, markdown(fmt.Sprintf("**Market Dashboard**\n\n<font color='grey'>%s</font>\n%s",
		snap.Label(), Summary(snap))))
	els = append(els, hr)

	if snap.HasCryptoData() {
		els = append(els, markdown(cryptoSection(snap)))
	}
	if snap.HasEquityData() {
		if snap.HasCryptoData() {
			els = append(els, hr)
		}
		els = append(els, markdown(equitySection(snap)))
	}
	if c.Narration != "" {
		els = append(els, hr, markdown("**AI Commentary**\n\n"+utils.Truncate(c.Narration, CardNarrationLimit)))
	}
	if c.FeedSummary != "" {
		els = append(els, hr, markdown("**Headlines**\n\n"+c.FeedSummary))
	}
	if c.DashboardURL != "" {
		els = append(els, hr, Element{
			Tag: "action",
			Actions: []Button{{
				Tag:  "button",
				Text: PlainText{Tag: "plain_text", Content: "Open full dashboard"},
				Type: "primary",
				URL:  c.DashboardURL,
			}},
		})
	}

	template := "blue"
	switch analysis.ComputeSentiment(snap).Overall {
	case analysis.Bullish:
		template = "green"
	case analysis.Bearish:
		template = "red"
	}

	return Card{
		MsgType: "interactive",
		Card: CardBody{
			Config:   CardConfig{WideScreenMode: true},
			Header:   CardHeader{Title: PlainText{Tag: "plain_text", Content: "Market Snapshot"}, Template: template},
			Elements: els,
		},
	}
}

// RenderText builds the markdown text variant for chats without card
// support.
func RenderText(c Content) string {
	snap := c.Snapshot
	parts := []string{
		"**Market Dashboard**",
		fmt.Sprintf("<font color='grey'>%s</font>", snap.Label()),
		"---",
	}
	if snap.HasCryptoData() {
		parts = append(parts, cryptoSection(snap), "---")
	}
	if snap.HasEquityData() {
		parts = append(parts, equitySection(snap), "---")
	}
	if c.Narration != "" {
		parts = append(parts, "**AI Commentary**", utils.Truncate(c.Narration, TextNarrationLimit), "---")
	}
	if c.FeedSummary != "" {
		parts = append(parts, "**Headlines**", c.FeedSummary)
	}
	parts = append(parts, "<font color='grey'>Data: CoinGecko, Yahoo Finance</font>")
	return strings.Join(parts, "\n\n")
}

// NewTextMessage wraps text as a Feishu text message.
func NewTextMessage(text string) TextMessage {
	var m TextMessage
	m.MsgType = "text"
	m.Content.Text = text
	return m
}

// Summary is a one-line headline such as
// "Market brief: crypto 3 up 2 down | equities broadly higher".
// A zero change counts as up.
func Summary(snap *models.Snapshot) string {
	var parts []string

	if crypto := snap.SortedCrypto(); len(crypto) > 0 {
		up := countUp(crypto)
		switch {
		case up == len(crypto):
			parts = append(parts, "crypto all up")
		case up == 0:
			parts = append(parts, "crypto all down")
		default:
			parts = append(parts, fmt.Sprintf("crypto %d up %d down", up, len(crypto)-up))
		}
	}

	if equity := snap.SortedEquity(); len(equity) > 0 {
		up := float64(countUp(equity))
		total := float64(len(equity))
		switch {
		case up > total*0.7:
			parts = append(parts, "equities broadly higher")
		case up < total*0.3:
			parts = append(parts, "equities broadly lower")
		default:
			parts = append(parts, "equities mixed")
		}
	}

	if len(parts) == 0 {
		return "Market data update"
	}
	return "Market brief: " + strings.Join(parts, " | ")
}

// ── Sections ──

func cryptoSection(snap *models.Snapshot) string {
	lines := []string{"**Crypto**", ""}
	for _, q := range snap.SortedCrypto() {
		lines = append(lines,
			fmt.Sprintf("%s **%s**: $%s %s", arrow(q), q.Symbol, utils.FormatPrice(q.Price), colored(q)),
			fmt.Sprintf("   Volume: $%s", utils.FormatCompact(q.Volume)),
		)
	}
	return strings.Join(lines, "\n")
}

var marketLabels = map[models.Category]string{
	models.MarketUS: "US",
	models.MarketHK: "Hong Kong",
	models.MarketCN: "China A-shares",
}

func equitySection(snap *models.Snapshot) string {
	lines := []string{"**Global Indices**"}
	byMarket := snap.EquityByMarket()
	for _, m := range models.EquityMarkets() {
		quotes := byMarket[m]
		if len(quotes) == 0 {
			continue
		}
		lines = append(lines, "", "**"+marketLabels[m]+"**")
		for _, q := range quotes {
			lines = append(lines, fmt.Sprintf("%s **%s**: %s %s",
				arrow(q), q.DisplayName(), utils.FormatPrice(q.Price), colored(q)))
		}
	}
	return strings.Join(lines, "\n")
}

func arrow(q models.Quote) string {
	if q.IsGain() {
		return "▲"
	}
	return "▼"
}

func colored(q models.Quote) string {
	color := "green"
	if !q.IsGain() {
		color = "red"
	}
	return fmt.Sprintf("<font color='%s'>(%s)</font>", color, utils.FormatPct(q.ChangePct))
}

func countUp(quotes []models.Quote) int {
	n := 0
	for _, q := range quotes {
		if q.IsGain() {
			n++
		}
	}
	return n
}
