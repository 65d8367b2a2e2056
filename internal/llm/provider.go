// Package llm provides narration clients for hosted LLM APIs (Anthropic,
// OpenAI) behind a single Provider interface, plus a Router that falls back
// through a chain of provider/model pairs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
)

// Provider names for routing and configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Common errors returned by providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrUnauthorized  = errors.New("llm: API key rejected")
	ErrRateLimit     = errors.New("llm: rate limit exceeded")
	ErrProviderDown  = errors.New("llm: provider unavailable")
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrNoProviders   = errors.New("llm: no providers configured")
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
)

// Message is a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a complete response from a provider.
type Response struct {
	Content      string        `json:"content"`
	FinishReason FinishReason  `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	Latency      time.Duration `json:"latency"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatOptions configures a single chat request. Zero fields use the
// provider defaults.
type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Provider is implemented by every LLM backend and by Router.
//
//go:generate mockgen -package=llm -destination=mock_provider_test.go -source=provider.go Provider
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Chat sends a conversation and returns the complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// String returns a short human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, truncated, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}

// --- Shared client settings ---

// Option configures a provider.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	model      string
	timeout    time.Duration
	retry      infra.RetryPolicy
	httpClient *http.Client
}

// WithBaseURL sets a custom API base URL (proxies, compatible gateways).
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p infra.RetryPolicy) Option {
	return func(o *clientOptions) { o.retry = p }
}

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

func newClientOptions(baseURL, model string, opts []Option) clientOptions {
	o := clientOptions{
		baseURL:    baseURL,
		model:      model,
		timeout:    60 * time.Second,
		retry:      infra.RetryPolicy{MaxRetries: 1, BaseDelay: time.Second, MaxDelay: 4 * time.Second},
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o clientOptions) client() *infra.HTTPClient {
	return infra.NewHTTPClient(
		infra.WithHTTPClient(o.httpClient),
		infra.WithTimeout(o.timeout),
		infra.WithRetryPolicy(o.retry),
	)
}

func (o clientOptions) resolveModel(opts *ChatOptions) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return o.model
}

// classify maps transport errors to the package sentinels.
func classify(provider string, err error, apiMessage func(string) string) error {
	var he *infra.HTTPError
	if !errors.As(err, &he) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrProviderDown, provider, err)
	}
	msg := apiMessage(he.Body)
	if msg == "" {
		msg = he.Status
	}
	switch {
	case he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %s", ErrUnauthorized, provider, msg)
	case he.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %s", ErrRateLimit, provider, msg)
	case he.StatusCode >= 500:
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrProviderDown, provider, he.StatusCode, msg)
	default:
		return fmt.Errorf("%s: API error (%d): %s", provider, he.StatusCode, msg)
	}
}
