package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/blog-digest/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	listItemSelector  = ".List-item"
	listTitleSelector = ".NewsBlog-title"
	listLinkSelector  = ".NewsBlog-link"
)

// newsBlogFetcher scrapes the news blog search listing.
type newsBlogFetcher struct {
	client HTTPClient
}

// NewNewsBlogFetcher builds a fetcher for news blog listing pages.
func NewNewsBlogFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsBlogFetcher{client: client}
}

func (f *newsBlogFetcher) ID() string {
	return ProviderTypeNewsBlog
}

// Fetch downloads the listing and returns its posts in document order.
// Entries without a link come back with an empty ID; callers skip them.
func (f *newsBlogFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.PostRef, error) {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	raw, err := fetchPage(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	posts, err := ParseListing(raw, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s listing: %w", cfg.ID, err)
	}
	return posts, nil
}

// ParseListing extracts post references from listing markup. Relative links
// are resolved against baseURL.
func ParseListing(body []byte, baseURL string) ([]domain.PostRef, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	items := doc.Find(listItemSelector)
	posts := make([]domain.PostRef, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		ref := domain.PostRef{
			Title: strings.TrimSpace(item.Find(listTitleSelector).First().Text()),
		}
		if href, ok := item.Find(listLinkSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			ref.URL = ResolveURL(href, baseURL)
			ref.ID = lastPathSegment(href)
		}
		posts = append(posts, ref)
	})
	return posts, nil
}
