// Package pipeline runs one aggregation cycle: fetch, persist, history,
// narration, dashboard and notification.
//
// Fetch and persist are fatal stages; the run fails if either does. The
// remaining stages degrade: their failures are logged and recorded in the
// RunResult, and the run still succeeds.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/marketradar/internal/datasource"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/internal/narrate"
	"github.com/seenimoa/marketradar/internal/notify"
	"github.com/seenimoa/marketradar/internal/report"
	"github.com/seenimoa/marketradar/internal/store"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

var (
	// ErrNoData means no quote could be fetched; nothing was persisted.
	ErrNoData = errors.New("pipeline: no market data fetched")
	// ErrInvalidSnapshot means the fetched quotes could not form a snapshot,
	// for example a symbol configured as both crypto and equity.
	ErrInvalidSnapshot = errors.New("pipeline: invalid snapshot")
	// ErrPersist means the snapshot could not be stored.
	ErrPersist = errors.New("pipeline: persist snapshot")
)

// Stage names a pipeline step.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StagePersist Stage = "persist"
	StageHistory Stage = "history"
	StageNarrate Stage = "narrate"
	StageRender  Stage = "render"
	StageNotify  Stage = "notify"
	StageFeeds   Stage = "feeds"
)

const defaultIOWait = 15 * time.Second

// ── Collaborators ──

// MarketFetcher fetches one round of quotes. Implemented by
// *datasource.Aggregator.
//
//go:generate mockgen -package=pipeline -destination=mock_pipeline_test.go -source=pipeline.go MarketFetcher Store FeedSource
type MarketFetcher interface {
	Fetch(ctx context.Context) datasource.Market
}

// Store is the time-series store. Implemented by *store.Store.
type Store interface {
	Persist(ctx context.Context, snap *models.Snapshot) error
	QueryHistory(ctx context.Context, class models.AssetClass, symbol string, lookbackHours int) []models.Point
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// FeedSource yields external headlines. Implemented by *datasource.Feeds.
type FeedSource interface {
	Latest(ctx context.Context) []models.FeedItem
}

// ── Orchestrator ──

// Orchestrator sequences the stages of a run. Optional collaborators left
// nil skip their stage.
type Orchestrator struct {
	fetcher  MarketFetcher
	store    Store
	narrator *narrate.Narrator
	feeds    FeedSource
	sender   notify.Sender

	dashboardDir string
	dashboardURL string
	reportCfg    report.Config
	clock        utils.Clock
	ioTimeout    time.Duration
	metrics      *Metrics
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNarrator enables the narration stage.
func WithNarrator(n *narrate.Narrator) Option {
	return func(o *Orchestrator) { o.narrator = n }
}

// WithFeeds adds external headlines to the narration, dashboard and card.
func WithFeeds(f FeedSource) Option {
	return func(o *Orchestrator) { o.feeds = f }
}

// WithSender enables the notification stage.
func WithSender(s notify.Sender) Option {
	return func(o *Orchestrator) { o.sender = s }
}

// WithDashboard enables the render stage, writing into dir. url, when set,
// is linked from the notification card.
func WithDashboard(dir, url string) Option {
	return func(o *Orchestrator) {
		o.dashboardDir = dir
		o.dashboardURL = url
	}
}

// WithReportConfig overrides the dashboard rendering config.
func WithReportConfig(cfg report.Config) Option {
	return func(o *Orchestrator) { o.reportCfg = cfg }
}

// WithClock sets the clock used for day buckets and crawl times.
func WithClock(c utils.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithIOTimeout bounds each store call.
func WithIOTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.ioTimeout = d
		}
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator over a fetcher and a store.
func New(fetcher MarketFetcher, st Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		store:     st,
		ioTimeout: defaultIOWait,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = infra.OrDefault(o.logger)
	if o.reportCfg.Title == "" {
		o.reportCfg = report.DefaultConfig()
		if o.clock.Loc != nil {
			o.reportCfg.Location = o.clock.Loc
		}
	}
	return o
}

// RunResult summarizes one run.
type RunResult struct {
	Date          string         `json:"date"`
	CrawlTime     string         `json:"crawl_time"`
	Crypto        int            `json:"crypto"`
	Equity        int            `json:"equity"`
	Failed        []string       `json:"failed_sources,omitempty"`
	Narration     narrate.Source `json:"narration,omitempty"`
	DashboardPath string         `json:"dashboard_path,omitempty"`
	Notified      bool           `json:"notified"`
	Degraded      []Stage        `json:"degraded,omitempty"`
	Duration      time.Duration  `json:"duration"`

	Snapshot *models.Snapshot `json:"-"`
}

// Run executes one aggregation cycle. It returns ErrNoData,
// ErrInvalidSnapshot or ErrPersist when a fatal stage fails; all other failures are reported in
// RunResult.Degraded.
func (o *Orchestrator) Run(ctx context.Context) (res RunResult, err error) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		o.metrics.observeRun(res, err, res.Duration)
		if err != nil {
			o.logger.Error("run failed", "error", err, "duration", res.Duration)
			return
		}
		o.logger.Info("run completed",
			"date", res.Date, "crawl_time", res.CrawlTime,
			"crypto", res.Crypto, "equity", res.Equity,
			"narration", res.Narration, "degraded", res.Degraded,
			"duration", res.Duration)
	}()

	// 1. Fetch
	snap, err := o.fetch(ctx)
	if err != nil {
		o.metrics.stageFailed(StageFetch)
		return res, err
	}
	res.Crypto = len(snap.CryptoSymbols())
	res.Equity = len(snap.EquitySymbols())
	res.Failed = snap.FailedSources()

	// The previous snapshot is read before this one is stored.
	prev := o.previous(ctx)

	// 2. Persist
	if err := o.persist(ctx, snap); err != nil {
		o.metrics.stageFailed(StagePersist)
		return res, err
	}
	res.Snapshot = snap
	res.Date = snap.Date()
	res.CrawlTime = snap.CrawlTime()

	degrade := func(s Stage) {
		res.Degraded = append(res.Degraded, s)
		o.metrics.stageFailed(s)
	}

	// 3. History
	history, complete := o.history(ctx, snap)
	if !complete {
		degrade(StageHistory)
	}

	var news []models.FeedItem
	if o.feeds != nil {
		news = o.feeds.Latest(ctx)
		if len(news) == 0 {
			degrade(StageFeeds)
		}
	}

	// 4. Narration
	var narration narrate.Result
	if o.narrator != nil {
		narration = o.narrator.Narrate(ctx, narrate.Input{
			Snapshot: snap,
			Previous: prev,
			History:  history,
			News:     news,
		})
		res.Narration = narration.Source
		if narration.Source == narrate.SourceFallback {
			degrade(StageNarrate)
		}
	}

	// 5. Dashboard
	if o.dashboardDir != "" {
		path, err := o.render(snap, history, narration, news)
		if err != nil {
			o.logger.Warn("dashboard not rendered", "error", err)
			degrade(StageRender)
		}
		res.DashboardPath = path
	}

	// 6. Notification
	if o.sender != nil {
		card := notify.RenderCard(notify.Content{
			Snapshot:     snap,
			Narration:    narration.Text,
			FeedSummary:  datasource.Titles(news),
			DashboardURL: o.dashboardURL,
		})
		if err := o.sender.Send(ctx, card); err != nil {
			o.logger.Warn("notification not sent", "error", err)
			degrade(StageNotify)
		} else {
			res.Notified = true
		}
	}

	return res, nil
}

// ── Stages ──

func (o *Orchestrator) fetch(ctx context.Context) (*models.Snapshot, error) {
	m := o.fetcher.Fetch(ctx)
	now := o.clock.Now()
	snap, err := models.NewSnapshot(o.clock.DayBucket(now), o.clock.CrawlTime(now), m.Crypto, m.Equity, m.Failed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if !snap.HasAnyData() {
		return nil, fmt.Errorf("%w (failed: %v)", ErrNoData, m.Failed)
	}
	o.logger.Info("snapshot built",
		"date", snap.Date(), "crawl_time", snap.CrawlTime(),
		"crypto", len(m.Crypto), "equity", len(m.Equity), "failed", len(m.Failed))
	return snap, nil
}

func (o *Orchestrator) previous(ctx context.Context) *models.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, o.ioTimeout)
	defer cancel()
	prev, err := o.store.LatestSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrEmpty) {
			o.logger.Warn("previous snapshot unavailable", "error", err)
		}
		return nil
	}
	return prev
}

func (o *Orchestrator) persist(ctx context.Context, snap *models.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, o.ioTimeout)
	defer cancel()
	if err := o.store.Persist(ctx, snap); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// history loads every range for every snapshot symbol. complete is false
// when any symbol has no points at all in the widest range.
func (o *Orchestrator) history(ctx context.Context, snap *models.Snapshot) (models.MarketHistory, bool) {
	ctx, cancel := context.WithTimeout(ctx, o.ioTimeout)
	defer cancel()

	h := models.MarketHistory{}
	complete := true
	for _, class := range []models.AssetClass{models.AssetCrypto, models.AssetStock} {
		for sym := range snap.Quotes(class) {
			for _, r := range models.HistoryRanges() {
				pts := o.store.QueryHistory(ctx, class, sym, r.LookbackHours())
				h.Set(class, sym, r, pts)
			}
			if len(h.Get(class, sym, models.Range1y)) == 0 {
				complete = false
			}
		}
	}
	return h, complete
}

func (o *Orchestrator) render(snap *models.Snapshot, h models.MarketHistory, n narrate.Result, news []models.FeedItem) (string, error) {
	html, err := report.Render(report.Dashboard{
		Snapshot:    snap,
		History:     h,
		Narration:   n.Text,
		NarrationBy: string(n.Source),
		Feeds:       news,
		GeneratedAt: o.clock.Now(),
	}, o.reportCfg)
	if err != nil {
		return "", err
	}
	path, err := report.WriteFiles(o.dashboardDir, snap, html)
	if err != nil {
		return "", err
	}
	o.logger.Info("dashboard written", "path", path)
	return path, nil
}
