package models

import "time"

// FeedItem is a headline pulled from an external RSS/Atom feed.
type FeedItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
