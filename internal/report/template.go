package report

// DashboardTemplate is the HTML template for the market dashboard.
// It is embedded as a Go constant so the page needs no external assets.
const DashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1100px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-end;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }
  .sentiment-badge {
    display: inline-block;
    padding: 2px 10px;
    border-radius: 4px;
    font-weight: 700;
    text-transform: uppercase;
    font-size: 0.8rem;
  }
  .sentiment-badge.bullish { background: #dcfce7; color: var(--green); }
  .sentiment-badge.bearish { background: #fef2f2; color: var(--red); }
  .sentiment-badge.neutral { background: #f3f4f6; color: var(--muted); }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  td.num, th.num { text-align: right; font-variant-numeric: tabular-nums; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  .narration {
    background: var(--section-bg);
    padding: 12px 16px;
    border-radius: 6px;
    white-space: pre-wrap;
    font-size: 0.95rem;
    line-height: 1.7;
  }

  .overview { display: flex; flex-wrap: wrap; gap: 16px; align-items: center; }
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  .symbol-card { border: 1px solid var(--border); border-radius: 8px; padding: 12px; margin: 12px 0; }
  .range-tabs input { display: none; }
  .range-tabs label {
    display: inline-block;
    padding: 2px 12px;
    margin-right: 4px;
    border-radius: 4px;
    cursor: pointer;
    background: var(--section-bg);
    font-size: 0.85rem;
  }
  .range-panel { display: none; }
  {{range .Charts}}{{$id := .ID}}{{range .Ranges}}
  #{{$id}}-{{.Range}}:checked ~ .panel-{{.Range}} { display: block; }
  #{{$id}}-{{.Range}}:checked + label { background: var(--accent); color: #fff; }{{end}}{{end}}

  .feed-list { list-style: none; }
  .feed-list li { padding: 6px 0; border-bottom: 1px solid var(--border); }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div>
    <h1>Market Dashboard</h1>
    <p class="muted">{{.Date}} {{.CrawlTime}} · {{.TotalItems}} assets</p>
  </div>
  <div class="header-right">
    <span class="sentiment-badge {{.Sentiment}}">{{.Sentiment}}</span>
    <p class="muted">Generated {{.GeneratedAt}}</p>
  </div>
</div>

<!-- ═══════ COMMENTARY ═══════ -->
{{if .Narration}}
<div class="section">
  <h2>Commentary</h2>
  <div class="narration">{{.Narration}}</div>
  {{if eq .NarrationBy "fallback"}}<p class="muted">Statistical summary</p>{{end}}
</div>
{{end}}

<!-- ═══════ OVERVIEW ═══════ -->
<div class="section overview">
  {{range .Gauges}}<div>{{.}}</div>{{end}}
  {{if .ChangeChart}}<div class="chart-container">{{.ChangeChart}}</div>{{end}}
</div>

<!-- ═══════ CRYPTO ═══════ -->
{{if .CryptoRows}}
<div class="section">
  <h2>Crypto</h2>
  <table>
    <tr><th>Symbol</th><th class="num">Price (USD)</th><th class="num">24h</th><th class="num">Volume 24h</th><th>Segment</th></tr>
    {{range .CryptoRows}}
    <tr>
      <td><strong>{{.Symbol}}</strong></td>
      <td class="num">{{.Price}}</td>
      <td class="num {{.ChangeCSS}}">{{.ChangePct}}</td>
      <td class="num">{{.Volume}}</td>
      <td>{{.Category}}</td>
    </tr>
    {{end}}
  </table>
</div>
{{end}}

<!-- ═══════ EQUITIES ═══════ -->
{{if .EquityGroups}}
<div class="section">
  <h2>Equity Indices</h2>
  {{range .EquityGroups}}
  <h3>{{.Market}}</h3>
  <table>
    <tr><th>Name</th><th>Symbol</th><th class="num">Last</th><th class="num">Change</th><th class="num">%</th></tr>
    {{range .Rows}}
    <tr>
      <td><strong>{{.Name}}</strong></td>
      <td class="muted">{{.Symbol}}</td>
      <td class="num">{{.Price}}</td>
      <td class="num {{.ChangeCSS}}">{{.Change}}</td>
      <td class="num {{.ChangeCSS}}">{{.ChangePct}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}
</div>
{{end}}

<!-- ═══════ HISTORY ═══════ -->
{{if .Charts}}
<div class="section">
  <h2>History</h2>
  {{range .Charts}}{{$id := .ID}}
  <div class="symbol-card" id="{{$id}}">
    <h3>{{.Name}} <span class="muted">{{.Symbol}}</span></h3>
    <div class="range-tabs">
      {{range $i, $r := .Ranges}}
      <input type="radio" name="{{$id}}" id="{{$id}}-{{$r.Range}}"{{if eq $i 0}} checked{{end}}>
      <label for="{{$id}}-{{$r.Range}}">{{$r.Range}}{{if $r.Change}} {{$r.Change}}{{end}}</label>
      {{end}}
      {{range .Ranges}}
      <div class="range-panel panel-{{.Range}} chart-container">{{.SVG}}</div>
      {{end}}
    </div>
  </div>
  {{end}}
</div>
{{end}}

<!-- ═══════ FEEDS ═══════ -->
{{if .Feeds}}
<div class="section">
  <h2>Headlines</h2>
  <ul class="feed-list">
    {{range .Feeds}}
    <li>{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a>{{else}}{{.Title}}{{end}}
      <span class="muted">{{.Source}}{{if .Published}} · {{.Published}}{{end}}</span></li>
    {{end}}
  </ul>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  {{if .Failed}}<p>Unavailable this run: {{range $i, $f := .Failed}}{{if $i}}, {{end}}{{$f}}{{end}}</p>{{end}}
  <p>MarketRadar · data from CoinGecko and Yahoo Finance · not investment advice</p>
</div>

</body>
</html>`
