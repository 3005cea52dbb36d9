package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/saucerest/internal/logger"
	"github.com/samvad-hq/saucerest/pkg/httpclient"
)

const (
	headerJobAction      = "X-Saucerest-Action"
	headerJobID          = "X-Saucerest-Job"
	headerIdempotencyKey = "Idempotency-Key"
	maxErrorSnippet      = 512
)

// webhookPublisher posts job events to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     logger.OrNop(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

// Publish sends the event as JSON. Routing headers let receivers filter
// without decoding the body; configured headers may override them.
func (w *webhookPublisher) Publish(ctx context.Context, evt JobEvent) error {
	body, err := evt.payload()
	if err != nil {
		return err
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerJobAction, string(evt.Action)).
		SetHeader(headerJobID, evt.JobID).
		SetHeader(headerIdempotencyKey, evt.Key()).
		SetHeaders(w.headers).
		SetBody(body).
		Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook response status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	w.log.DebugObj("webhook delivered job event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"job_id":       evt.JobID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
