// Package narrate produces the daily market commentary: a cached narration
// when one exists for the day, otherwise one LLM call, otherwise a local
// statistical summary.
package narrate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/seenimoa/marketradar/internal/analysis"
	"github.com/seenimoa/marketradar/internal/infra"
	"github.com/seenimoa/marketradar/internal/llm"
)

// Source records where a narration came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Cache is the daily narration store. Implemented by *store.Store.
//
//go:generate mockgen -package=narrate -destination=mock_narrate_test.go -source=narrate.go Cache
type Cache interface {
	Narration(ctx context.Context, day string) (string, bool, error)
	SaveNarration(ctx context.Context, day, text string) (bool, error)
}

// Result is a narration and its origin.
type Result struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Narrator generates and caches narrations.
type Narrator struct {
	provider llm.Provider
	cache    Cache
	chat     llm.ChatOptions
	logger   *slog.Logger
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithChatOptions sets the model parameters of the narration request.
func WithChatOptions(o llm.ChatOptions) Option {
	return func(n *Narrator) { n.chat = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Narrator) { n.logger = l }
}

// New creates a Narrator. A nil provider disables the LLM step; a nil cache
// disables caching.
func New(provider llm.Provider, cache Cache, opts ...Option) *Narrator {
	n := &Narrator{
		provider: provider,
		cache:    cache,
		chat:     llm.ChatOptions{Temperature: 0.3, MaxTokens: 2000},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = infra.OrDefault(n.logger)
	return n
}

// Narrate returns the narration for the snapshot's day. The cache is read
// first and written only after a successful LLM call, so fallback text is
// never cached and the next run retries the LLM. Narrate never fails.
func (n *Narrator) Narrate(ctx context.Context, in Input) Result {
	if in.Snapshot == nil {
		return Result{Text: analysis.FallbackNarration(nil), Source: SourceFallback}
	}
	day := in.Snapshot.Date()

	if n.cache != nil {
		text, ok, err := n.cache.Narration(ctx, day)
		switch {
		case err != nil:
			n.logger.Warn("narration cache read failed", "day", day, "error", err)
		case ok:
			n.logger.Info("using cached narration", "day", day)
			return Result{Text: text, Source: SourceCache}
		}
	}

	text, err := n.generate(ctx, in)
	if err != nil {
		n.logger.Warn("narration unavailable, using statistical summary", "day", day, "error", err)
		return Result{Text: analysis.FallbackNarration(in.Snapshot), Source: SourceFallback}
	}

	if n.cache != nil {
		stored, err := n.cache.SaveNarration(ctx, day, text)
		if err != nil {
			n.logger.Warn("narration cache write failed", "day", day, "error", err)
		} else if !stored {
			// Another run cached the day first; keep the stored text.
			if cached, ok, err := n.cache.Narration(ctx, day); err == nil && ok {
				return Result{Text: cached, Source: SourceCache}
			}
		}
	}
	return Result{Text: text, Source: SourceLLM}
}

func (n *Narrator) generate(ctx context.Context, in Input) (string, error) {
	if n.provider == nil {
		return "", errors.New("narrate: no provider configured")
	}
	if !in.Snapshot.HasAnyData() {
		return "", errors.New("narrate: snapshot is empty")
	}

	opts := n.chat
	resp, err := n.provider.Chat(ctx, []llm.Message{
		llm.SystemMessage(SystemPrompt),
		llm.UserMessage(BuildPrompt(in)),
	}, &opts)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	n.logger.Info("narration generated",
		"provider", resp.Provider, "model", resp.Model,
		"tokens", resp.Usage.TotalTokens, "latency", resp.Latency)
	return text, nil
}
