package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"
)

// ProviderTypeNewsBlog is the listing layout served by the news blog search page.
const ProviderTypeNewsBlog = "newsblog"

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Provider describes one listing source.
type Provider struct {
	ID             string            `mapstructure:"id"`
	Type           string            `mapstructure:"type"`
	Name           string            `mapstructure:"name"`
	BaseURL        string            `mapstructure:"base_url"`
	SourceURL      string            `mapstructure:"source_url"`
	Headers        map[string]string `mapstructure:"headers"`
	RequestDelayMS int               `mapstructure:"request_delay_ms"`
}

// RequestDelay returns the configured pause between requests.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// Fetcher turns a provider listing into post references.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.PostRef, error)
}

// Headers returns a copy of the provider headers with blank entries dropped.
func Headers(cfg Provider) map[string]string {
	out := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
