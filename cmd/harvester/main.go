package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/config"
	"github.com/Adda-Baaj/blog-digest/internal/crawler"
	"github.com/Adda-Baaj/blog-digest/internal/logger"
	"github.com/Adda-Baaj/blog-digest/internal/scheduler"
	"github.com/Adda-Baaj/blog-digest/internal/store"
	"github.com/Adda-Baaj/blog-digest/pkg/httpclient"
	"github.com/Adda-Baaj/blog-digest/pkg/providers"
	"github.com/Adda-Baaj/blog-digest/pkg/publishers"
	"github.com/Adda-Baaj/blog-digest/pkg/summarizer"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("startup failed", "startup_error", map[string]any{"error": err.Error()})
		return 1
	}
	defer app.Close()

	if cfg.Run.Schedule == "" {
		if _, err := app.crawler.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.WarnObj("run interrupted", "run_interrupted", nil)
				return 130
			}
			log.ErrorObj("run failed", "run_error", map[string]any{"error": err.Error()})
			return 1
		}
		return 0
	}

	sched, err := scheduler.New(cfg.Run.Timezone, log)
	if err != nil {
		log.ErrorObj("scheduler setup failed", "startup_error", map[string]any{"error": err.Error()})
		return 1
	}
	job := func(ctx context.Context) error {
		_, err := app.crawler.Run(ctx)
		return err
	}
	if err := sched.Schedule(ctx, cfg.Run.Schedule, job); err != nil {
		log.ErrorObj("scheduler setup failed", "startup_error", map[string]any{"error": err.Error()})
		return 1
	}
	sched.Run(ctx)
	return 0
}

// app owns the long lived resources behind one Crawler.
type app struct {
	crawler *crawler.Crawler
	closers []func() error
	log     logger.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WarnObj("shutdown step failed", "shutdown_error", map[string]any{"error": err.Error()})
		}
	}
}

func newApp(ctx context.Context, cfg config.Config, log logger.Logger) (*app, error) {
	a := &app{log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	provider := providers.Provider{
		ID:             cfg.Provider.ID,
		Type:           providers.ProviderTypeNewsBlog,
		Name:           cfg.Provider.Name,
		BaseURL:        cfg.Provider.BaseURL,
		SourceURL:      cfg.Provider.SourceURL,
		Headers:        cfg.Provider.Headers,
		RequestDelayMS: cfg.Provider.RequestDelayMS,
	}
	fetcher, err := providers.DefaultRegistry(providers.DefaultHTTPClient()).FetcherFor(provider)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(cfg.Extractor, providers.Headers(provider), log)
	if err != nil {
		return nil, err
	}
	if closer, isCloser := extractor.(interface{ Close() error }); isCloser {
		a.closers = append(a.closers, closer.Close)
	}

	gemini := summarizer.NewGemini(cfg.Summarizer.APIKey,
		summarizer.WithBaseURL(cfg.Summarizer.BaseURL),
		summarizer.WithModel(cfg.Summarizer.Model),
		summarizer.WithTemperature(cfg.Summarizer.Temperature),
		summarizer.WithProfile(cfg.Summarizer.Profile),
		summarizer.WithHTTPClient(httpclient.NewRestyClient(cfg.Summarizer.Timeout())),
		summarizer.WithLogger(log),
	)

	records, err := store.NewJSONStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	deps := crawler.Deps{
		Provider:   provider,
		Fetcher:    fetcher,
		Extractor:  extractor,
		Summarizer: gemini,
		Store:      records,
		Log:        log,
	}

	if cfg.Store.AttemptsPath != "" {
		ledger, err := store.OpenAttemptLedger(cfg.Store.AttemptsPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ledger.Close)
		deps.Attempts = ledger
	}

	if cfg.Publishers.File != "" {
		sinks, err := publishers.LoadFile(cfg.Publishers.File)
		if err != nil {
			return nil, err
		}
		fanout, err := publishers.DefaultBuilders().Build(ctx, sinks, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fanout.Close)
		if fanout.Len() > 0 {
			deps.Publisher = fanout
		}
	}

	c, err := crawler.New(deps, crawler.Options{
		CallDelay:   cfg.Pipeline.CallDelay(),
		PostDelay:   cfg.Pipeline.PostDelay(),
		MaxAttempts: cfg.Pipeline.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	a.crawler = c
	ok = true
	return a, nil
}

func newExtractor(cfg config.ExtractorConfig, headers map[string]string, log logger.Logger) (crawler.ArticleExtractor, error) {
	parse := crawler.ParseOptions{ReadabilityFallback: cfg.ReadabilityFallback}
	switch cfg.Mode {
	case config.ExtractorHTTP:
		client := httpclient.NewRestyClient(cfg.Timeout() + 10*time.Second)
		return crawler.NewHTTPExtractor(client, headers, parse, log), nil
	default:
		ex, err := crawler.NewBrowserExtractor(crawler.BrowserOptions{
			Timeout:         cfg.Timeout(),
			UserAgent:       cfg.UserAgent,
			Headers:         headers,
			Headless:        cfg.Headless,
			InstallBrowsers: cfg.InstallBrowsers,
			Parse:           parse,
		}, log)
		if err != nil {
			return nil, err
		}
		return ex, nil
	}
}
