package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/seenimoa/marketradar/internal/config"
	"github.com/seenimoa/marketradar/internal/infra"
)

// Route is one step of a Router's fallback chain.
type Route struct {
	Provider string
	Model    string // empty uses the provider default
}

// Router sends requests down a chain of provider/model routes, returning
// the first success.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	chain     []Route
	logger    *slog.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithRoutes sets the fallback chain.
func WithRoutes(routes ...Route) RouterOption {
	return func(r *Router) { r.chain = routes }
}

// WithRouterLogger sets the logger used for fallback diagnostics.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates an empty router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{providers: make(map[string]Provider)}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = infra.OrDefault(r.logger)
	return r
}

// RegisterProvider adds a provider. Without explicit routes each registered
// provider becomes one route with its default model.
func (r *Router) RegisterProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Name returns the router identifier.
func (r *Router) Name() string {
	routes := r.routes()
	if len(routes) == 0 {
		return "router"
	}
	return "router/" + routes[0].Provider
}

// Routes returns the effective fallback chain.
func (r *Router) Routes() []Route { return r.routes() }

// Chat tries each route in order. Context cancellation stops the chain;
// any other failure moves on to the next route.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	routes := r.routes()
	if len(routes) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, route := range routes {
		r.mu.RLock()
		p, ok := r.providers[route.Provider]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		routeOpts := ChatOptions{}
		if opts != nil {
			routeOpts = *opts
		}
		if route.Model != "" {
			routeOpts.Model = route.Model
		}

		resp, err := p.Chat(ctx, messages, &routeOpts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("llm route failed", "provider", route.Provider, "model", route.Model, "error", err)
	}
	if lastErr == nil {
		return nil, ErrNoProviders
	}
	return nil, fmt.Errorf("llm/router: all routes failed, last error: %w", lastErr)
}

func (r *Router) routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.chain) > 0 {
		return append([]Route(nil), r.chain...)
	}
	out := make([]Route, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, Route{Provider: name})
	}
	return out
}

// NewRouterFromConfig registers every provider with a key and builds the
// chain: primary model, then the fallback model on the same provider, then
// the other provider with its default model.
func NewRouterFromConfig(cfg config.LLMConfig, logger *slog.Logger) (*Router, error) {
	primary := strings.ToLower(cfg.Primary)
	if primary == "" {
		primary = ProviderAnthropic
	}

	common := []Option{WithTimeout(cfg.Timeout)}
	providerOpts := func(name string) []Option {
		opts := append([]Option(nil), common...)
		if name == primary {
			opts = append(opts, WithBaseURL(cfg.BaseURL), WithModel(cfg.Model))
		}
		return opts
	}

	router := NewRouter(WithRouterLogger(logger))
	var chain []Route
	var errs []error

	register := func(name string, p Provider, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		router.RegisterProvider(p)
	}
	if cfg.AnthropicKey != "" {
		p, err := NewAnthropicProvider(cfg.AnthropicKey, providerOpts(ProviderAnthropic)...)
		register(ProviderAnthropic, p, err)
	}
	if cfg.OpenAIKey != "" {
		p, err := NewOpenAIProvider(cfg.OpenAIKey, providerOpts(ProviderOpenAI)...)
		register(ProviderOpenAI, p, err)
	}
	if len(router.providers) == 0 {
		return nil, errors.Join(append([]error{ErrNoProviders}, errs...)...)
	}

	if _, ok := router.providers[primary]; ok {
		chain = append(chain, Route{Provider: primary})
		if cfg.FallbackModel != "" && cfg.FallbackModel != cfg.Model {
			chain = append(chain, Route{Provider: primary, Model: cfg.FallbackModel})
		}
	}
	for _, name := range []string{ProviderAnthropic, ProviderOpenAI} {
		if _, ok := router.providers[name]; ok && name != primary {
			chain = append(chain, Route{Provider: name})
		}
	}
	router.chain = chain
	return router, nil
}
