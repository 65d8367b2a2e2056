package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
)

// DefaultOpenAIURL is the OpenAI API base URL.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIProvider implements Provider for OpenAI's Chat Completions API and
// compatible gateways.
type OpenAIProvider struct {
	apiKey string
	opts   clientOptions
	http   *infra.HTTPClient
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	o := newClientOptions(DefaultOpenAIURL, DefaultOpenAIModel, opts)
	o.baseURL = strings.TrimRight(o.baseURL, "/")
	return &OpenAIProvider{apiKey: apiKey, opts: o, http: o.client()}, nil
}

func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body := p.buildRequest(messages, opts)

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	var result openAIChatResponse
	if err := p.http.PostJSON(ctx, p.opts.baseURL+"/chat/completions", headers, body, &result); err != nil {
		return nil, classify(ProviderOpenAI, err, openAIErrorMessage)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: openai", ErrEmptyResponse)
	}

	choice := result.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: mapOpenAIFinishReason(choice.FinishReason),
		Model:        coalesceModel(result.Model, body.Model),
		Provider:     ProviderOpenAI,
		Latency:      time.Since(start),
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}

// ── Internal Types ──

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ── Helpers ──

func (p *OpenAIProvider) buildRequest(messages []Message, opts *ChatOptions) openAIChatRequest {
	r := openAIChatRequest{Model: p.opts.resolveModel(opts)}
	for _, m := range messages {
		r.Messages = append(r.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	if opts != nil {
		if opts.Temperature > 0 {
			t := opts.Temperature
			r.Temperature = &t
		}
		if opts.MaxTokens > 0 {
			n := opts.MaxTokens
			r.MaxTokens = &n
		}
	}
	return r
}

func openAIErrorMessage(body string) string {
	var apiErr openAIErrorResponse
	if json.Unmarshal([]byte(body), &apiErr) == nil {
		return apiErr.Error.Message
	}
	return ""
}

func mapOpenAIFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}
