package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"

// Client is the minimal HTTP surface used by fetchers, the summarizer and publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient returns a Client backed by resty with the given timeout.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &restyClient{rc: rc}
}

// Get issues a GET request with the provided headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, "GET", url, headers, nil)
}

// Do issues a request with an optional body. Non-nil bodies are JSON encoded
// unless they are already a string or byte slice.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}

	req := c.rc.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	if body != nil {
		switch body.(type) {
		case string, []byte:
		default:
			req.SetHeader("Content-Type", "application/json")
		}
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}
