package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"
)

// httpPublisher posts events as JSON to a webhook.
type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
}

func newHTTPPublisher(_ context.Context, cfg SinkConfig, _ Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	h := cfg.HTTP
	return &httpPublisher{
		id:      cfg.ID,
		method:  h.Method,
		url:     h.URL,
		headers: h.Headers,
		client:  httpclient.NewRestyClient(time.Duration(h.TimeoutSeconds) * time.Second),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish fails on transport errors and non 2xx answers.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.Do(ctx, p.method, p.url, p.headers, evt)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		body := strings.TrimSpace(resp.String())
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("webhook answered %d: %s", code, body)
	}
	return nil
}
