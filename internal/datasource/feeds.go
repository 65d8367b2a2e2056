package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/pkg/models"
	"github.com/seenimoa/marketradar/pkg/utils"
)

// Feeds pulls headlines from RSS/Atom feeds.
type Feeds struct {
	urls    []string
	limit   int
	timeout time.Duration
	cache   *infra.Cache[[]models.FeedItem]
	parser  *gofeed.Parser
	logger  *slog.Logger
}

// NewFeeds creates a feed source returning at most limit items per call.
func NewFeeds(urls []string, limit int, logger *slog.Logger) *Feeds {
	return &Feeds{
		urls:    urls,
		limit:   limit,
		timeout: 10 * time.Second,
		cache:   infra.NewCache[[]models.FeedItem](10 * time.Minute),
		parser:  gofeed.NewParser(),
		logger:  infra.OrDefault(logger),
	}
}

// Name returns the data source name.
func (f *Feeds) Name() string { return "feeds" }

// Latest returns the newest items across all feeds. Failing feeds are
// skipped.
func (f *Feeds) Latest(ctx context.Context) []models.FeedItem {
	cacheKey := fmt.Sprintf("feeds:%d", f.limit)
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached
	}

	var all []models.FeedItem
	for _, u := range f.urls {
		items, err := f.fetch(ctx, u)
		if err != nil {
			f.logger.Warn("feed fetch failed", "url", u, "error", err)
			continue
		}
		all = append(all, items...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	if f.limit > 0 && len(all) > f.limit {
		all = all[:f.limit]
	}

	f.cache.Set(cacheKey, all)
	return all
}

// Titles returns the headlines of items, one per line.
func Titles(items []models.FeedItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it.Title)
	}
	return strings.Join(lines, "\n")
}

// --- Internal helpers ---

func (f *Feeds) fetch(ctx context.Context, u string) ([]models.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", u, err)
	}

	source := feed.Title
	if source == "" {
		source = u
	}
	items := make([]models.FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		it := models.FeedItem{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  source,
			Summary: utils.Truncate(cleanHTML(item.Description), 280),
		}
		if item.PublishedParsed != nil {
			it.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			it.PublishedAt = *item.UpdatedParsed
		}
		items = append(items, it)
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
