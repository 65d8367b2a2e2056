package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seenimoa/marketradar/internal/infra"
)

// ErrNoWebhook is returned when no webhook URL is configured.
var ErrNoWebhook = errors.New("notify: webhook URL not configured")

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, payload any) error
}

// WebhookSender posts JSON payloads to a bot webhook. Any 2xx response is
// success; failures are not retried.
type WebhookSender struct {
	url    string
	http   *infra.HTTPClient
	logger *slog.Logger
}

// NewWebhookSender creates a sender for url with a per-request timeout.
func NewWebhookSender(url string, timeout time.Duration, logger *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = infra.OrDefault(logger)
	return &WebhookSender{
		url:    url,
		logger: logger,
		http: infra.NewHTTPClient(
			infra.WithTimeout(timeout),
			infra.WithRetryPolicy(infra.RetryPolicy{}),
			infra.WithLogger(logger),
		),
	}
}

// Send posts payload as JSON.
func (s *WebhookSender) Send(ctx context.Context, payload any) error {
	if s.url == "" {
		return ErrNoWebhook
	}
	s.logger.Debug("sending webhook")
	return s.http.PostJSON(ctx, s.url, nil, payload, nil)
}
