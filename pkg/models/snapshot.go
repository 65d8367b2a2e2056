package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDuplicateSymbol is returned when a symbol appears in both quote sets.
var ErrDuplicateSymbol = errors.New("symbol present in both crypto and equity sets")

// Snapshot is one complete fetch cycle's combined market data.
//
// A Snapshot is immutable: the constructor copies its inputs and every
// accessor returns a copy.
type Snapshot struct {
	date      string
	crawlTime string
	crypto    map[string]Quote
	equity    map[string]Quote
	failed    []string
}

// NewSnapshot constructs a snapshot labelled with a day bucket (2006-01-02)
// and a time of day (15:04). Failed sources are deduplicated and sorted.
func NewSnapshot(date, crawlTime string, crypto, equity map[string]Quote, failed []string) (*Snapshot, error) {
	if date == "" {
		return nil, errors.New("snapshot date is required")
	}
	s := &Snapshot{
		date:      date,
		crawlTime: crawlTime,
		crypto:    make(map[string]Quote, len(crypto)),
		equity:    make(map[string]Quote, len(equity)),
		failed:    make([]string, 0, len(failed)),
	}
	for sym, q := range crypto {
		s.crypto[sym] = q.normalized(AssetCrypto)
	}
	for sym, q := range equity {
		if _, dup := s.crypto[sym]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, sym)
		}
		s.equity[sym] = q.normalized(AssetStock)
	}

	seen := make(map[string]bool, len(failed))
	for _, f := range failed {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		s.failed = append(s.failed, f)
	}
	sort.Strings(s.failed)
	return s, nil
}

func (s *Snapshot) Date() string      { return s.date }
func (s *Snapshot) CrawlTime() string { return s.crawlTime }

// Label returns "date crawl_time".
func (s *Snapshot) Label() string {
	if s.crawlTime == "" {
		return s.date
	}
	return s.date + " " + s.crawlTime
}

// CryptoQuotes returns a copy of the crypto quotes keyed by symbol.
func (s *Snapshot) CryptoQuotes() map[string]Quote { return copyQuotes(s.crypto) }

// EquityQuotes returns a copy of the equity quotes keyed by symbol.
func (s *Snapshot) EquityQuotes() map[string]Quote { return copyQuotes(s.equity) }

// Quotes returns a copy of the quotes of one asset class.
func (s *Snapshot) Quotes(class AssetClass) map[string]Quote {
	if class == AssetCrypto {
		return s.CryptoQuotes()
	}
	return s.EquityQuotes()
}

// Crypto looks up a single crypto quote.
func (s *Snapshot) Crypto(symbol string) (Quote, bool) {
	q, ok := s.crypto[symbol]
	return q, ok
}

// Equity looks up a single equity quote.
func (s *Snapshot) Equity(symbol string) (Quote, bool) {
	q, ok := s.equity[symbol]
	return q, ok
}

// FailedSources is a best-effort diagnostic list; it is not exhaustive.
func (s *Snapshot) FailedSources() []string {
	return append([]string(nil), s.failed...)
}

// CryptoSymbols returns the crypto symbols in sorted order.
func (s *Snapshot) CryptoSymbols() []string { return sortedKeys(s.crypto) }

// EquitySymbols returns the equity symbols in sorted order.
func (s *Snapshot) EquitySymbols() []string { return sortedKeys(s.equity) }

// SortedCrypto returns crypto quotes ordered by symbol.
func (s *Snapshot) SortedCrypto() []Quote { return sortedQuotes(s.crypto) }

// SortedEquity returns equity quotes ordered by symbol.
func (s *Snapshot) SortedEquity() []Quote { return sortedQuotes(s.equity) }

// EquityByMarket groups equity quotes by market, each group ordered by symbol.
func (s *Snapshot) EquityByMarket() map[Category][]Quote {
	out := make(map[Category][]Quote)
	for _, q := range sortedQuotes(s.equity) {
		out[q.Category] = append(out[q.Category], q)
	}
	return out
}

func (s *Snapshot) HasCryptoData() bool { return len(s.crypto) > 0 }
func (s *Snapshot) HasEquityData() bool { return len(s.equity) > 0 }
func (s *Snapshot) HasAnyData() bool    { return s.HasCryptoData() || s.HasEquityData() }
func (s *Snapshot) TotalItems() int     { return len(s.crypto) + len(s.equity) }

// ── Storable form ──

// StorableSnapshot is the JSON document persisted for a snapshot.
type StorableSnapshot struct {
	Date          string                  `json:"date"`
	CrawlTime     string                  `json:"crawl_time"`
	CryptoItems   map[string]StorableItem `json:"crypto_items"`
	StockItems    map[string]StorableItem `json:"stock_items"`
	FailedSources []string                `json:"failed_sources"`
}

// StorableItem is the persisted form of a Quote.
type StorableItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
	Timestamp     string  `json:"timestamp"`
	Category      string  `json:"category"`
	Source        string  `json:"source,omitempty"`
}

// Storable converts the snapshot to its persisted form.
func (s *Snapshot) Storable() StorableSnapshot {
	return StorableSnapshot{
		Date:          s.date,
		CrawlTime:     s.crawlTime,
		CryptoItems:   toStorableItems(s.crypto),
		StockItems:    toStorableItems(s.equity),
		FailedSources: s.FailedSources(),
	}
}

// MarshalJSON encodes the storable form.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Storable())
}

// SnapshotFromStorable rebuilds a snapshot from its persisted form.
func SnapshotFromStorable(st StorableSnapshot) (*Snapshot, error) {
	crypto, err := fromStorableItems(st.CryptoItems, AssetCrypto)
	if err != nil {
		return nil, err
	}
	equity, err := fromStorableItems(st.StockItems, AssetStock)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(st.Date, st.CrawlTime, crypto, equity, st.FailedSources)
}

// DecodeSnapshot parses a JSON-encoded storable snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var st StorableSnapshot
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return SnapshotFromStorable(st)
}

func toStorableItems(quotes map[string]Quote) map[string]StorableItem {
	out := make(map[string]StorableItem, len(quotes))
	for sym, q := range quotes {
		out[sym] = StorableItem{
			Symbol:        q.Symbol,
			Name:          q.Name,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePct,
			Volume:        q.Volume,
			Timestamp:     q.CapturedAt.Format(time.RFC3339Nano),
			Category:      string(q.Category),
			Source:        q.Source,
		}
	}
	return out
}

func fromStorableItems(items map[string]StorableItem, class AssetClass) (map[string]Quote, error) {
	out := make(map[string]Quote, len(items))
	for sym, it := range items {
		ts, err := time.Parse(time.RFC3339Nano, it.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("item %s: parse timestamp: %w", sym, err)
		}
		out[sym] = Quote{
			Class:      class,
			Symbol:     it.Symbol,
			Name:       it.Name,
			Price:      it.Price,
			Change:     it.Change,
			ChangePct:  it.ChangePercent,
			Volume:     it.Volume,
			CapturedAt: ts,
			Category:   Category(it.Category),
			Source:     it.Source,
		}
	}
	return out, nil
}

func copyQuotes(in map[string]Quote) map[string]Quote {
	out := make(map[string]Quote, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]Quote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedQuotes(m map[string]Quote) []Quote {
	out := make([]Quote, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
