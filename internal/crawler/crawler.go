package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/internal/logger"
	"github.com/Adda-Baaj/blog-digest/pkg/providers"
	"github.com/Adda-Baaj/blog-digest/pkg/publishers"
	"github.com/Adda-Baaj/blog-digest/pkg/summarizer"
)

// Options tunes the pacing and retry behaviour of a run.
type Options struct {
	// CallDelay is the pause after every facet summarization call.
	CallDelay time.Duration
	// PostDelay is the pause after each persisted post.
	PostDelay time.Duration
	// MaxAttempts caps failed extractions per post. 0 means unlimited.
	MaxAttempts int
}

// Deps are the collaborators of a Crawler. Attempts and Publisher are optional.
type Deps struct {
	Provider   providers.Provider
	Fetcher    providers.Fetcher
	Extractor  ArticleExtractor
	Summarizer summarizer.Summarizer
	Store      RecordStore
	Attempts   AttemptTracker
	Publisher  EventPublisher
	Log        logger.Logger
}

// Report summarizes one run.
type Report struct {
	Listed    int
	Skipped   int
	Exhausted int
	Processed int
	Failed    int
	Total     int
}

// Crawler runs the incremental fetch, summarize and persist pipeline. It is
// single threaded and assumes it is the only writer of its store.
type Crawler struct {
	deps  Deps
	opts  Options
	log   logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// New validates deps and returns a Crawler.
func New(deps Deps, opts Options) (*Crawler, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("crawler: fetcher is required")
	case deps.Extractor == nil:
		return nil, errors.New("crawler: extractor is required")
	case deps.Summarizer == nil:
		return nil, errors.New("crawler: summarizer is required")
	case deps.Store == nil:
		return nil, errors.New("crawler: store is required")
	}
	if opts.CallDelay < 0 || opts.PostDelay < 0 {
		return nil, errors.New("crawler: delays must not be negative")
	}

	log := deps.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Crawler{deps: deps, opts: opts, log: log, sleep: sleepCtx}, nil
}

// Run processes every listed post that is not in the store yet. A listing or
// store failure aborts the run; a post that cannot be extracted is logged and
// left for a later run.
func (c *Crawler) Run(ctx context.Context) (Report, error) {
	var report Report

	records, err := c.deps.Store.Load()
	if err != nil {
		return report, fmt.Errorf("load store: %w", err)
	}
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.ID] = struct{}{}
	}

	posts, err := c.deps.Fetcher.Fetch(ctx, c.deps.Provider)
	if err != nil {
		return report, fmt.Errorf("fetch listing: %w", err)
	}
	report.Listed = len(posts)

	c.log.InfoObj("listing fetched", "listing_fetched", map[string]any{
		"provider_id": c.deps.Provider.ID,
		"listed":      len(posts),
		"stored":      len(records),
	})

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			report.Total = len(records)
			return report, err
		}

		if strings.TrimSpace(post.ID) == "" {
			report.Skipped++
			c.log.DebugObj("skipping post without id", "post_skip", map[string]any{"title": post.Title})
			continue
		}
		if _, ok := seen[post.ID]; ok {
			report.Skipped++
			c.log.DebugObj("skipping existing post", "post_skip", map[string]any{"post_id": post.ID, "title": post.Title})
			continue
		}
		if c.exhausted(post) {
			report.Exhausted++
			continue
		}

		rec, err := c.processPost(ctx, post)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.Total = len(records)
				return report, ctxErr
			}
			report.Failed++
			c.recordFailure(post, err)
			continue
		}

		records = append(records, rec)
		seen[rec.ID] = struct{}{}
		if err := c.deps.Store.Save(records); err != nil {
			report.Total = len(records) - 1
			return report, fmt.Errorf("persist record %q: %w", rec.ID, err)
		}
		report.Processed++

		c.log.InfoObj("post saved", "post_saved", map[string]any{
			"post_id": rec.ID,
			"title":   rec.Title,
			"total":   len(records),
		})

		c.clearFailures(rec.ID)
		c.publish(ctx, rec)

		if err := c.sleep(ctx, c.opts.PostDelay); err != nil {
			report.Total = len(records)
			return report, err
		}
	}

	report.Total = len(records)
	c.log.InfoObj("processing complete", "run_complete", map[string]any{
		"listed":    report.Listed,
		"skipped":   report.Skipped,
		"exhausted": report.Exhausted,
		"processed": report.Processed,
		"failed":    report.Failed,
		"total":     report.Total,
	})
	return report, nil
}

// processPost extracts and summarizes one post. Any returned error means no
// record was produced.
func (c *Crawler) processPost(ctx context.Context, post domain.PostRef) (domain.BlogRecord, error) {
	c.log.InfoObj("processing post", "post_start", map[string]any{"post_id": post.ID, "title": post.Title, "url": post.URL})

	if err := c.sleep(ctx, c.deps.Provider.RequestDelay()); err != nil {
		return domain.BlogRecord{}, err
	}
	article, err := c.deps.Extractor.Extract(ctx, post.URL)
	if err != nil {
		return domain.BlogRecord{}, fmt.Errorf("extract %s: %w", post.URL, err)
	}
	if strings.TrimSpace(article.Text) == "" {
		return domain.BlogRecord{}, fmt.Errorf("extract %s: %w", post.URL, ErrEmptyContent)
	}

	original := domain.CountWords(article.Text)
	summaries := make(map[string]domain.FacetSummary, len(domain.Facets())+1)

	general := c.deps.Summarizer.Summarize(ctx, summarizer.Request{Text: article.Text})
	summaries[domain.GeneralKey] = facetSummary(original, general)

	failed := 0
	if general.Status == summarizer.StatusFailed {
		failed++
	}
	for _, facet := range domain.Facets() {
		if err := ctx.Err(); err != nil {
			return domain.BlogRecord{}, err
		}
		c.log.DebugObj("summarizing facet", "facet_start", map[string]any{
			"post_id": post.ID,
			"kind":    string(facet.Kind),
			"facet":   facet.Name,
		})
		res := c.deps.Summarizer.Summarize(ctx, summarizer.Request{Text: article.Text, Facet: &facet})
		if res.Status == summarizer.StatusFailed {
			failed++
		}
		summaries[facet.Key()] = facetSummary(original, res)

		if err := c.sleep(ctx, c.opts.CallDelay); err != nil {
			return domain.BlogRecord{}, err
		}
	}

	if failed > 0 {
		c.log.WarnObj("some summaries failed", "summaries_failed", map[string]any{
			"post_id": post.ID,
			"failed":  failed,
		})
	}

	return domain.BlogRecord{
		ID:          post.ID,
		Title:       post.Title,
		Date:        domain.DateOnly(article.PublishedAt),
		OriginalURL: post.URL,
		Source:      c.deps.Provider.Name,
		Summaries:   summaries,
	}, nil
}

func facetSummary(original int, res summarizer.Result) domain.FacetSummary {
	text := res.Stored()
	return domain.FacetSummary{
		Summary:   text,
		WordStats: domain.NewWordStats(original, text),
	}
}

// exhausted reports whether post already failed MaxAttempts times.
func (c *Crawler) exhausted(post domain.PostRef) bool {
	if c.deps.Attempts == nil || c.opts.MaxAttempts <= 0 {
		return false
	}
	n, err := c.deps.Attempts.Failures(post.ID)
	if err != nil {
		c.log.WarnObj("reading attempt ledger failed", "attempts_error", map[string]any{
			"post_id": post.ID,
			"error":   err.Error(),
		})
		return false
	}
	if n >= c.opts.MaxAttempts {
		c.log.InfoObj("skipping post after repeated failures", "post_exhausted", map[string]any{
			"post_id":  post.ID,
			"failures": n,
			"max":      c.opts.MaxAttempts,
		})
		return true
	}
	return false
}

func (c *Crawler) recordFailure(post domain.PostRef, cause error) {
	fields := map[string]any{
		"post_id": post.ID,
		"url":     post.URL,
		"error":   cause.Error(),
	}
	if c.deps.Attempts != nil {
		n, err := c.deps.Attempts.RecordFailure(post.ID, cause)
		if err != nil {
			fields["attempts_error"] = err.Error()
		} else {
			fields["failures"] = n
		}
	}
	c.log.ErrorObj("post processing failed", "post_failed", fields)
}

func (c *Crawler) clearFailures(id string) {
	if c.deps.Attempts == nil {
		return
	}
	if err := c.deps.Attempts.Clear(id); err != nil {
		c.log.WarnObj("clearing attempt ledger failed", "attempts_error", map[string]any{
			"post_id": id,
			"error":   err.Error(),
		})
	}
}

func (c *Crawler) publish(ctx context.Context, rec domain.BlogRecord) {
	if c.deps.Publisher == nil {
		return
	}
	evt := publishers.NewRecordEvent(c.deps.Provider.ID, rec)
	if err := c.deps.Publisher.Publish(ctx, evt); err != nil {
		c.log.WarnObj("publishing record failed", "publish_error", map[string]any{
			"post_id": rec.ID,
			"error":   err.Error(),
		})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
