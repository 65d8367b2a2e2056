package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/seenimoa/marketradar/internal/config"
	"github.com/seenimoa/marketradar/internal/infra"
)

var noRetry = WithRetryPolicy(infra.RetryPolicy{MaxRetries: 0})

// ════════════════════════════════════════════════════════════════════
// provider.go: types and helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "sys"}, SystemMessage("sys"))
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, UserMessage("hi"))
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Provider: "openai", Model: "gpt-4o",
		Content: "short answer",
		Usage:   Usage{TotalTokens: 50},
		Latency: 100 * time.Millisecond,
	}
	s := r.String()
	assert.Contains(t, s, "openai/gpt-4o")
	assert.Contains(t, s, "50 tokens")

	r.Content = strings.Repeat("x", 200)
	assert.Contains(t, r.String(), "...")
}

// ════════════════════════════════════════════════════════════════════
// anthropic.go
// ════════════════════════════════════════════════════════════════════

func TestAnthropicProviderNew(t *testing.T) {
	_, err := NewAnthropicProvider("")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	p, err := NewAnthropicProvider("sk-ant-test")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Name())
}

func TestAnthropicChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, "You are a market analyst.", req.System)
		assert.Len(t, req.Messages, 1)
		assert.Equal(t, 800, req.MaxTokens)
		if assert.NotNil(t, req.Temperature) {
			assert.Equal(t, 0.3, *req.Temperature)
		}

		fmt.Fprint(w, `{"id":"msg_1","model":"claude-test","stop_reason":"end_turn",
			"content":[{"type":"text","text":"Markets "},{"type":"text","text":"rose."}],
			"usage":{"input_tokens":100,"output_tokens":20}}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("sk-ant-test", WithBaseURL(srv.URL+"/"), WithModel("claude-test"), noRetry)
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("You are a market analyst."), UserMessage("Summarize.")},
		&ChatOptions{Temperature: 0.3, MaxTokens: 800})
	require.NoError(t, err)
	assert.Equal(t, "Markets rose.", resp.Content)
	assert.Equal(t, FinishStop, resp.FinishReason)
	assert.Equal(t, 120, resp.Usage.TotalTokens)
	assert.Equal(t, ProviderAnthropic, resp.Provider)
}

func TestAnthropicErrorHandling(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimit},
		{"overloaded", 529, ErrProviderDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"type":"error","error":{"type":"x","message":"nope"}}`)
			}))
			defer srv.Close()

			p, err := NewAnthropicProvider("k", WithBaseURL(srv.URL), noRetry)
			require.NoError(t, err)
			_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestAnthropicEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[],"stop_reason":"end_turn"}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("k", WithBaseURL(srv.URL), noRetry)
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

// ════════════════════════════════════════════════════════════════════
// openai.go
// ════════════════════════════════════════════════════════════════════

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Nil(t, req.Temperature)

		fmt.Fprint(w, `{"id":"c1","model":"gpt-4o-mini","choices":[{"index":0,
			"message":{"role":"assistant","content":"Mixed session."},"finish_reason":"length"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", WithBaseURL(srv.URL), noRetry)
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("s"), UserMessage("u")},
		&ChatOptions{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "Mixed session.", resp.Content)
	assert.Equal(t, FinishLength, resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestOpenAIErrorHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", WithBaseURL(srv.URL), noRetry)
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
	assert.False(t, errors.Is(err, ErrProviderDown))
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", WithBaseURL(srv.URL),
		WithRetryPolicy(infra.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	require.NoError(t, err)
	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, calls)
	assert.Equal(t, DefaultOpenAIModel, resp.Model)
}

// ════════════════════════════════════════════════════════════════════
// router.go
// ════════════════════════════════════════════════════════════════════

func TestRouterNoProviders(t *testing.T) {
	_, err := NewRouter().Chat(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestRouterFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := NewMockProvider(ctrl)
	backup := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return(ProviderAnthropic).AnyTimes()
	backup.EXPECT().Name().Return(ProviderOpenAI).AnyTimes()

	gomock.InOrder(
		primary.EXPECT().Chat(gomock.Any(), gomock.Any(), &ChatOptions{MaxTokens: 100}).
			Return(nil, ErrRateLimit),
		primary.EXPECT().Chat(gomock.Any(), gomock.Any(), &ChatOptions{MaxTokens: 100, Model: "claude-haiku"}).
			Return(nil, ErrProviderDown),
		backup.EXPECT().Chat(gomock.Any(), gomock.Any(), &ChatOptions{MaxTokens: 100}).
			Return(&Response{Content: "from backup", Provider: ProviderOpenAI}, nil),
	)

	r := NewRouter(WithRoutes(
		Route{Provider: ProviderAnthropic},
		Route{Provider: ProviderAnthropic, Model: "claude-haiku"},
		Route{Provider: ProviderOpenAI},
	), WithRouterLogger(infra.NopLogger()))
	r.RegisterProvider(primary)
	r.RegisterProvider(backup)

	resp, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, &ChatOptions{MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Content)
	assert.Equal(t, "router/anthropic", r.Name())
}

func TestRouterAllFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockProvider(ctrl)
	p.EXPECT().Name().Return(ProviderOpenAI).AnyTimes()
	p.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, ErrUnauthorized).Times(1)

	r := NewRouter(WithRouterLogger(infra.NopLogger()))
	r.RegisterProvider(p)

	_, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "all routes failed")
}

func TestRouterStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewMockProvider(ctrl)
	p.EXPECT().Name().Return(ProviderAnthropic).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	p.EXPECT().Chat(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, []Message, *ChatOptions) (*Response, error) {
			cancel()
			return nil, context.Canceled
		}).Times(1)

	r := NewRouter(WithRoutes(Route{Provider: ProviderAnthropic}, Route{Provider: ProviderAnthropic, Model: "other"}))
	r.RegisterProvider(p)

	_, err := r.Chat(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRouterFromConfig(t *testing.T) {
	_, err := NewRouterFromConfig(config.LLMConfig{Primary: ProviderAnthropic}, nil)
	assert.ErrorIs(t, err, ErrNoProviders)

	r, err := NewRouterFromConfig(config.LLMConfig{
		Primary:       ProviderAnthropic,
		AnthropicKey:  "a",
		OpenAIKey:     "o",
		Model:         "claude-sonnet-4-20250514",
		FallbackModel: "claude-3-5-haiku-20241022",
		Timeout:       time.Second,
	}, infra.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, []Route{
		{Provider: ProviderAnthropic},
		{Provider: ProviderAnthropic, Model: "claude-3-5-haiku-20241022"},
		{Provider: ProviderOpenAI},
	}, r.Routes())

	r, err = NewRouterFromConfig(config.LLMConfig{Primary: ProviderAnthropic, OpenAIKey: "o"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Route{{Provider: ProviderOpenAI}}, r.Routes())
}
