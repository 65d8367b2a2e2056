package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
)

// DefaultAnthropicURL is the Anthropic Messages API base URL.
const DefaultAnthropicURL = "https://api.anthropic.com/v1"

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider implements Provider for Anthropic's Messages API.
type AnthropicProvider struct {
	apiKey string
	opts   clientOptions
	http   *infra.HTTPClient
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...Option) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	o := newClientOptions(DefaultAnthropicURL, DefaultAnthropicModel, opts)
	o.baseURL = strings.TrimRight(o.baseURL, "/")
	return &AnthropicProvider{apiKey: apiKey, opts: o, http: o.client()}, nil
}

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

// Chat sends a messages request to Anthropic.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body := p.buildRequest(messages, opts)

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	var result anthropicResponse
	if err := p.http.PostJSON(ctx, p.opts.baseURL+"/messages", headers, body, &result); err != nil {
		return nil, classify(ProviderAnthropic, err, anthropicErrorMessage)
	}

	resp := p.parseResponse(&result, body.Model, start)
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: anthropic", ErrEmptyResponse)
	}
	return resp, nil
}

// ── Internal Types ──

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Helpers ──

func (p *AnthropicProvider) buildRequest(messages []Message, opts *ChatOptions) anthropicRequest {
	r := anthropicRequest{
		Model:     p.opts.resolveModel(opts),
		MaxTokens: 2000,
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			r.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			t := opts.Temperature
			r.Temperature = &t
		}
	}

	// The system prompt travels outside the message list.
	for _, m := range messages {
		if m.Role == RoleSystem {
			r.System = m.Content
			continue
		}
		r.Messages = append(r.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return r
}

func (p *AnthropicProvider) parseResponse(raw *anthropicResponse, model string, start time.Time) *Response {
	r := &Response{
		Model:    coalesceModel(raw.Model, model),
		Provider: ProviderAnthropic,
		Latency:  time.Since(start),
		Usage: Usage{
			PromptTokens:     raw.Usage.InputTokens,
			CompletionTokens: raw.Usage.OutputTokens,
			TotalTokens:      raw.Usage.InputTokens + raw.Usage.OutputTokens,
		},
		FinishReason: mapAnthropicStopReason(raw.StopReason),
	}

	var textParts []string
	for _, block := range raw.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	r.Content = strings.Join(textParts, "")
	return r
}

func anthropicErrorMessage(body string) string {
	var apiErr anthropicErrorResponse
	if json.Unmarshal([]byte(body), &apiErr) == nil {
		return apiErr.Error.Message
	}
	return ""
}

func mapAnthropicStopReason(reason string) FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return FinishStop
	case "max_tokens":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}

func coalesceModel(reported, requested string) string {
	if reported != "" {
		return reported
	}
	return requested
}
