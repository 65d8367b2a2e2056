package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
)

var at = time.Date(2025, 1, 3, 1, 0, 0, 0, time.UTC)

func snapshot(t *testing.T, cryptoPct []float64, equityPct []float64) *models.Snapshot {
	t.Helper()
	crypto := map[string]models.Quote{}
	for i, pct := range cryptoPct {
		sym := string(rune('A'+i)) + "COIN"
		crypto[sym] = models.NewCryptoQuote(sym, 100, pct, 1e6, at)
	}
	equity := map[string]models.Quote{}
	symbols := []string{"^GSPC", "^HSI", "000001.SS", "^DJI", "^IXIC"}
	for i, pct := range equityPct {
		sym := symbols[i]
		equity[sym] = models.NewEquityQuote(sym, sym, 100+pct, 100, 0, at)
	}
	snap, err := models.NewSnapshot("2025-01-03", "09:00", crypto, equity, nil)
	require.NoError(t, err)
	return snap
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name   string
		crypto []float64
		equity []float64
		want   string
	}{
		{"all up, flat counts as up", []float64{1, 0}, nil, "Market brief: crypto all up"},
		{"all down", []float64{-1, -2}, nil, "Market brief: crypto all down"},
		{"mixed crypto", []float64{1, -1, 2}, nil, "Market brief: crypto 2 up 1 down"},
		{"equities higher", nil, []float64{1, 1, 1, 1, -1}, "Market brief: equities broadly higher"},
		{"two of three up is mixed", nil, []float64{1, 1, -1}, "Market brief: equities mixed"},
		{"equities lower", nil, []float64{-1, -1, -1, -1, 1}, "Market brief: equities broadly lower"},
		{"both", []float64{1}, []float64{-1}, "Market brief: crypto all up | equities broadly lower"},
		{"empty", nil, nil, "Market data update"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summary(snapshot(t, tc.crypto, tc.equity)))
		})
	}
}

func TestRenderCard(t *testing.T) {
	snap := snapshot(t, []float64{2, 3}, []float64{1, -2, 0.5})
	card := RenderCard(Content{
		Snapshot:     snap,
		Narration:    strings.Repeat("x", 1000),
		FeedSummary:  "- Fed holds rates",
		DashboardURL: "https://dash.example.com",
	})

	assert.Equal(t, "interactive", card.MsgType)
	assert.True(t, card.Card.Config.WideScreenMode)

	var markdowns []string
	var actions []Element
	for _, el := range card.Card.Elements {
		switch el.Tag {
		case "markdown":
			markdowns = append(markdowns, el.Content)
		case "action":
			actions = append(actions, el)
		}
	}
	require.Len(t, markdowns, 5)
	assert.Contains(t, markdowns[0], "2025-01-03 09:00")
	assert.Contains(t, markdowns[1], "**ACOIN**: $100.00 <font color='green'>(+2.00%)</font>")

	equity := markdowns[2]
	us := strings.Index(equity, "**US**")
	hk := strings.Index(equity, "**Hong Kong**")
	cn := strings.Index(equity, "**China A-shares**")
	assert.True(t, us >= 0 && us < hk && hk < cn, "markets in US, HK, CN order")
	assert.Contains(t, equity, "<font color='red'>(-2.00%)</font>")

	ai := strings.TrimPrefix(markdowns[3], "**AI Commentary**\n\n")
	assert.Len(t, []rune(ai), CardNarrationLimit)
	assert.True(t, strings.HasSuffix(ai, "..."))

	assert.Contains(t, markdowns[4], "Fed holds rates")
	require.Len(t, actions, 1)
	assert.Equal(t, "https://dash.example.com", actions[0].Actions[0].URL)

	raw, err := json.Marshal(card)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg_type":"interactive"`)
	assert.Contains(t, string(raw), `"wide_screen_mode":true`)
}

func TestRenderCardMinimal(t *testing.T) {
	card := RenderCard(Content{Snapshot: snapshot(t, nil, []float64{-1, -1})})
	for _, el := range card.Card.Elements {
		assert.NotEqual(t, "action", el.Tag)
		assert.NotContains(t, el.Content, "AI Commentary")
	}
	assert.Equal(t, "blue", card.Card.Header.Template, "no crypto data keeps sentiment neutral")

	card = RenderCard(Content{Snapshot: snapshot(t, []float64{1, 2}, []float64{1, 1})})
	assert.Equal(t, "green", card.Card.Header.Template)
}

func TestRenderText(t *testing.T) {
	text := RenderText(Content{
		Snapshot:  snapshot(t, []float64{1}, []float64{1}),
		Narration: strings.Repeat("y", 600),
	})
	assert.Contains(t, text, "**Crypto**")
	assert.Contains(t, text, "**Global Indices**")
	assert.Contains(t, text, strings.Repeat("y", TextNarrationLimit-3)+"...")
	assert.NotContains(t, text, strings.Repeat("y", TextNarrationLimit-2))
	assert.NotContains(t, text, "**Headlines**")
	assert.True(t, strings.HasSuffix(text, "Data: CoinGecko, Yahoo Finance</font>"))

	msg := NewTextMessage(text)
	assert.Equal(t, "text", msg.MsgType)
	assert.Equal(t, text, msg.Content.Text)
}

func TestWebhookSender(t *testing.T) {
	var got Card
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, time.Second, infra.NopLogger())
	card := RenderCard(Content{Snapshot: snapshot(t, []float64{1}, nil)})
	require.NoError(t, s.Send(context.Background(), card))
	assert.Equal(t, "interactive", got.MsgType)
}

func TestWebhookSenderRequires2xx(t *testing.T) {
	for _, status := range []int{http.StatusFound, http.StatusNotModified} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := NewWebhookSender(srv.URL, time.Second, infra.NopLogger()).Send(context.Background(), NewTextMessage("hi"))
		srv.Close()

		var he *infra.HTTPError
		require.ErrorAs(t, err, &he, "status %d", status)
		assert.Equal(t, status, he.StatusCode)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	assert.NoError(t, NewWebhookSender(srv.URL, time.Second, infra.NopLogger()).Send(context.Background(), NewTextMessage("hi")))
}

func TestWebhookSenderFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, time.Second, infra.NopLogger())
	err := s.Send(context.Background(), NewTextMessage("hi"))
	var he *infra.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	assert.Equal(t, 1, calls, "webhook posts are not retried")

	err = NewWebhookSender("", 0, nil).Send(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoWebhook)
}
