package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"
)

const defaultFetchTimeout = 15 * time.Second

// Registry resolves fetchers by listing layout.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry registers each non-nil fetcher under its ID.
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[string]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds f, replacing any fetcher with the same ID.
func (r *Registry) Register(f Fetcher) {
	if f == nil {
		return
	}
	key := normalizeKey(f.ID())
	if key == "" {
		return
	}
	r.mu.Lock()
	r.fetchers[key] = f
	r.mu.Unlock()
}

// Types lists the registered layouts in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fetchers))
	for k := range r.fetchers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FetcherFor selects by provider type and falls back to the provider id.
func (r *Registry) FetcherFor(cfg Provider) (Fetcher, error) {
	key := normalizeKey(cfg.Type)
	if key == "" {
		key = normalizeKey(cfg.ID)
	}
	if key == "" {
		return nil, fmt.Errorf("provider has neither type nor id")
	}

	r.mu.RLock()
	f, ok := r.fetchers[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no fetcher for %q (known: %s)", key, strings.Join(r.Types(), ", "))
	}
	return f, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultHTTPClient is the transport used for listing pages.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(defaultFetchTimeout) }

// DefaultRegistry knows every listing layout shipped in this package.
func DefaultRegistry(client HTTPClient) *Registry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewRegistry(NewNewsBlogFetcher(client))
}
