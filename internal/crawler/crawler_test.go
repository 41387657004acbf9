package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/pkg/providers"
	"github.com/Adda-Baaj/blog-digest/pkg/publishers"
	"github.com/Adda-Baaj/blog-digest/pkg/summarizer"
)

type fakeFetcher struct {
	posts []domain.PostRef
	err   error
	calls int
}

func (f *fakeFetcher) ID() string { return "fake" }

func (f *fakeFetcher) Fetch(context.Context, providers.Provider) ([]domain.PostRef, error) {
	f.calls++
	return f.posts, f.err
}

type fakeExtractor struct {
	articles map[string]domain.ArticleContent
	errs     map[string]error
	calls    []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (domain.ArticleContent, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return domain.ArticleContent{}, err
	}
	return f.articles[url], nil
}

// fakeSummarizer answers every request with answer unless the facet key is
// listed in results.
type fakeSummarizer struct {
	answer  string
	results map[string]summarizer.Result
	keys    []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, req summarizer.Request) summarizer.Result {
	f.keys = append(f.keys, req.Key())
	if r, ok := f.results[req.Key()]; ok {
		return r
	}
	return summarizer.Result{Status: summarizer.StatusOK, Text: f.answer}
}

type memStore struct {
	records []domain.BlogRecord
	saves   int
	saveErr error
	loadErr error
}

func (m *memStore) Load() ([]domain.BlogRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.BlogRecord(nil), m.records...), nil
}

func (m *memStore) Save(records []domain.BlogRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records = append([]domain.BlogRecord(nil), records...)
	return nil
}

type memAttempts struct {
	mu      sync.Mutex
	counts  map[string]int
	cleared []string
}

func newMemAttempts() *memAttempts { return &memAttempts{counts: map[string]int{}} }

func (m *memAttempts) Failures(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[id], nil
}

func (m *memAttempts) RecordFailure(id string, _ error) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[id]++
	return m.counts[id], nil
}

func (m *memAttempts) Clear(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, id)
	m.cleared = append(m.cleared, id)
	return nil
}

type recordingPublisher struct {
	events []publishers.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) error {
	r.events = append(r.events, evt)
	return r.err
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

type harness struct {
	provider  providers.Provider
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	summ      *fakeSummarizer
	store     *memStore
	attempts  *memAttempts
	pub       *recordingPublisher
	sleeps    []time.Duration
}

func newHarness() *harness {
	return &harness{
		fetcher: &fakeFetcher{posts: []domain.PostRef{
			{ID: "a1", Title: "Alpha", URL: "https://news.example.test/a1"},
			{ID: "b1", Title: "Beta", URL: "https://news.example.test/b1"},
		}},
		extractor: &fakeExtractor{articles: map[string]domain.ArticleContent{
			"https://news.example.test/a1": {Text: words(200), PublishedAt: "2025-01-02T10:00:00Z"},
			"https://news.example.test/b1": {Text: words(200), PublishedAt: "2025-01-03T09:30:00Z"},
		}, errs: map[string]error{}},
		provider: providers.Provider{ID: "wow", Name: "World of Warcraft"},
		summ:     &fakeSummarizer{answer: words(50)},
		store:    &memStore{},
		attempts: newMemAttempts(),
		pub:      &recordingPublisher{},
	}
}

func (h *harness) crawler(t *testing.T, opts Options) *Crawler {
	t.Helper()
	c, err := New(Deps{
		Provider:   h.provider,
		Fetcher:    h.fetcher,
		Extractor:  h.extractor,
		Summarizer: h.summ,
		Store:      h.store,
		Attempts:   h.attempts,
		Publisher:  h.pub,
	}, opts)
	require.NoError(t, err)
	c.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return c
}

func TestRunProcessesNewPosts(t *testing.T) {
	h := newHarness()
	c := h.crawler(t, Options{CallDelay: time.Second, PostDelay: 2 * time.Second})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Listed: 2, Processed: 2, Total: 2}, report)

	require.Len(t, h.store.records, 2)
	assert.Equal(t, 2, h.store.saves)

	rec := h.store.records[0]
	assert.Equal(t, "a1", rec.ID)
	assert.Equal(t, "Alpha", rec.Title)
	assert.Equal(t, "2025-01-02", rec.Date)
	assert.Equal(t, "https://news.example.test/a1", rec.OriginalURL)
	assert.Equal(t, "World of Warcraft", rec.Source)
	assert.Len(t, rec.Summaries, len(domain.FacetKeys()))
	for _, key := range domain.FacetKeys() {
		fs, ok := rec.Summaries[key]
		require.True(t, ok, key)
		assert.Equal(t, domain.WordStats{Original: 200, Summary: 50, ReductionPercent: 75.0}, fs.WordStats, key)
	}
	assert.Equal(t, "2025-01-03", h.store.records[1].Date)

	// one general call then every facet, per post
	perPost := len(domain.Facets()) + 1
	require.Len(t, h.summ.keys, 2*perPost)
	assert.Equal(t, domain.GeneralKey, h.summ.keys[0])
	assert.Equal(t, domain.GeneralKey, h.summ.keys[perPost])

	callSleeps, postSleeps := 0, 0
	for _, d := range h.sleeps {
		switch d {
		case time.Second:
			callSleeps++
		case 2 * time.Second:
			postSleeps++
		}
	}
	assert.Equal(t, 2*len(domain.Facets()), callSleeps)
	assert.Equal(t, 2, postSleeps)

	require.Len(t, h.pub.events, 2)
	assert.Equal(t, "wow", h.pub.events[0].SourceID)
	assert.Equal(t, "a1", h.pub.events[0].RecordID)
	assert.ElementsMatch(t, []string{"a1", "b1"}, h.attempts.cleared)
}

func TestRunPacesArticleRequests(t *testing.T) {
	h := newHarness()
	h.provider.RequestDelayMS = 750
	c := h.crawler(t, Options{CallDelay: time.Second})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)

	// the pause comes before the extraction of each post
	require.NotEmpty(t, h.sleeps)
	assert.Equal(t, 750*time.Millisecond, h.sleeps[0])
	paced := 0
	for _, d := range h.sleeps {
		if d == 750*time.Millisecond {
			paced++
		}
	}
	assert.Equal(t, 2, paced)
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness()
	c := h.crawler(t, Options{})

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	calls := len(h.summ.keys)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Listed: 2, Skipped: 2, Total: 2}, report)
	assert.Len(t, h.store.records, 2)
	assert.Equal(t, calls, len(h.summ.keys))
	assert.Len(t, h.extractor.calls, 2)
}

func TestRunSkipsEmptyAndKnownIDs(t *testing.T) {
	h := newHarness()
	h.store.records = []domain.BlogRecord{{ID: "a1", Title: "Alpha"}}
	h.fetcher.posts = append(h.fetcher.posts, domain.PostRef{Title: "No link"})
	c := h.crawler(t, Options{})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Listed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, []string{"https://news.example.test/b1"}, h.extractor.calls)
}

func TestRunStoresFallbackAndFailureMarkers(t *testing.T) {
	h := newHarness()
	h.fetcher.posts = h.fetcher.posts[:1]
	h.summ.results = map[string]summarizer.Result{
		"Mage":    {Status: summarizer.StatusNoContent, Text: "<p>Please refer to the general summary.</p>"},
		"Raiding": {Status: summarizer.StatusFailed, Err: errors.New("quota")},
	}
	c := h.crawler(t, Options{})

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.store.records, 1)

	sums := h.store.records[0].Summaries
	assert.Equal(t, domain.FallbackSummary, sums["Mage"].Summary)
	assert.Equal(t, 200, sums["Mage"].WordStats.Original)
	assert.Equal(t, domain.CountWords(domain.FallbackSummary), sums["Mage"].WordStats.Summary)

	assert.Equal(t, domain.SummaryFailed, sums["Raiding"].Summary)
	assert.Equal(t, domain.WordStats{Original: 200, Summary: 1, ReductionPercent: 99.5}, sums["Raiding"].WordStats)

	for key, fs := range sums {
		if key == "Mage" || key == "Raiding" {
			continue
		}
		assert.Equal(t, words(50), fs.Summary, key)
	}
}

func TestRunExtractionFailureIsRetriedUntilLimit(t *testing.T) {
	h := newHarness()
	h.extractor.errs["https://news.example.test/a1"] = errors.New("navigation failed")
	c := h.crawler(t, Options{MaxAttempts: 2})

	for i := 0; i < 2; i++ {
		report, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
	}
	assert.Equal(t, 2, h.attempts.counts["a1"])

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Exhausted)
	assert.Zero(t, report.Failed)

	require.Len(t, h.store.records, 1)
	assert.Equal(t, "b1", h.store.records[0].ID)
	// a1 and b1 on the first run, a1 again on the second
	assert.Len(t, h.extractor.calls, 3)
}

func TestRunEmptyArticleCountsAsFailure(t *testing.T) {
	h := newHarness()
	h.extractor.articles["https://news.example.test/a1"] = domain.ArticleContent{Text: "  "}
	c := h.crawler(t, Options{})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, h.attempts.counts["a1"])
	assert.Len(t, h.summ.keys, len(domain.Facets())+1)
}

func TestRunListingFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness()
	h.store.records = []domain.BlogRecord{{ID: "old"}}
	h.fetcher.err = errors.New("status 503")
	c := h.crawler(t, Options{})

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listing")
	assert.Zero(t, h.store.saves)
	assert.Equal(t, []domain.BlogRecord{{ID: "old"}}, h.store.records)
	assert.Empty(t, h.summ.keys)
}

func TestRunSaveFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.store.saveErr = errors.New("disk full")
	c := h.crawler(t, Options{})

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, h.extractor.calls, 1)
	assert.Empty(t, h.pub.events)
}

func TestRunPublishErrorsAreNotFatal(t *testing.T) {
	h := newHarness()
	h.pub.err = errors.New("webhook down")
	c := h.crawler(t, Options{})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Len(t, h.pub.events, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness()
	c := h.crawler(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.store.saves)
}

func TestNewValidatesDeps(t *testing.T) {
	h := newHarness()
	_, err := New(Deps{Extractor: h.extractor, Summarizer: h.summ, Store: h.store}, Options{})
	assert.Error(t, err)

	_, err = New(Deps{Fetcher: h.fetcher, Extractor: h.extractor, Summarizer: h.summ, Store: h.store}, Options{CallDelay: -1})
	assert.Error(t, err)

	c, err := New(Deps{Fetcher: h.fetcher, Extractor: h.extractor, Summarizer: h.summ, Store: h.store}, Options{})
	require.NoError(t, err)
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
