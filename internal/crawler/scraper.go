package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/internal/logger"
	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	maxHTMLBodyBytes = 4 << 20 // 4 MiB
	articleSelector  = ".detail"
	dateSelector     = ".LocalizedDateMount time"
)

// ErrEmptyContent marks a post whose article body could not be read.
var ErrEmptyContent = errors.New("article body is empty")

// ParseOptions tweaks how article markup is read.
type ParseOptions struct {
	// ReadabilityFallback runs readability over the page when the article
	// body element is missing.
	ReadabilityFallback bool
}

// ParseArticle reads the article body and publish datetime from rendered
// markup. Missing elements yield empty strings.
func ParseArticle(body []byte, pageURL string, opts ParseOptions) (domain.ArticleContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ArticleContent{}, fmt.Errorf("parse html: %w", err)
	}

	out := domain.ArticleContent{}
	if node := doc.Find(articleSelector).First(); node.Length() > 0 {
		out.Text = strings.TrimSpace(node.Text())
	} else if opts.ReadabilityFallback {
		out.Text = readabilityText(body, pageURL)
	}
	if val, ok := doc.Find(dateSelector).First().Attr("datetime"); ok {
		out.PublishedAt = strings.TrimSpace(val)
	}
	return out, nil
}

func readabilityText(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// HTTPExtractor reads posts with a plain GET, for pages that render server side.
type HTTPExtractor struct {
	client  httpclient.Client
	headers map[string]string
	opts    ParseOptions
	log     logger.Logger
}

// NewHTTPExtractor creates an extractor using client. headers are sent with
// every article request.
func NewHTTPExtractor(client httpclient.Client, headers map[string]string, opts ParseOptions, log logger.Logger) *HTTPExtractor {
	if client == nil {
		client = httpclient.NewRestyClient(defaultNavigationTimeout * 5)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &HTTPExtractor{client: client, headers: headers, opts: opts, log: log}
}

// Extract fetches url and parses the article out of the response body.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) (domain.ArticleContent, error) {
	e.log.DebugObj("fetching article", "extract_start", map[string]any{"url": url, "mode": "http"})

	resp, err := e.client.Get(ctx, url, e.headers)
	if err != nil {
		return domain.ArticleContent{}, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return domain.ArticleContent{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		e.log.InfoObj("html body truncated", "truncation", map[string]any{
			"url":      url,
			"original": len(body),
			"kept":     maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	return ParseArticle(body, url, e.opts)
}
