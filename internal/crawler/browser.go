package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/Adda-Baaj/blog-digest/internal/logger"

	"github.com/playwright-community/playwright-go"
)

const (
	defaultNavigationTimeout = 3 * time.Second
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"
	viewportWidth            = 1280
	viewportHeight           = 800
)

// BrowserOptions configures the headless browser extractor.
type BrowserOptions struct {
	// Timeout bounds navigation until the network goes idle. A timeout that
	// is too tight tends to yield an empty article rather than an error.
	Timeout         time.Duration
	UserAgent       string
	// Headers are added to every request the page makes.
	Headers         map[string]string
	Headless        bool
	InstallBrowsers bool
	Parse           ParseOptions
}

// BrowserExtractor renders posts in headless Chromium through playwright.
type BrowserExtractor struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    BrowserOptions
	log     logger.Logger
}

// NewBrowserExtractor starts playwright and launches Chromium. Call Close
// when done.
func NewBrowserExtractor(opts BrowserOptions, log logger.Logger) (*BrowserExtractor, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultNavigationTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	if opts.InstallBrowsers {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	log.InfoObj("headless browser ready", "browser_ready", map[string]any{
		"version":    browser.Version(),
		"timeout_ms": opts.Timeout.Milliseconds(),
	})

	return &BrowserExtractor{pw: pw, browser: browser, opts: opts, log: log}, nil
}

// Extract opens url in a fresh browser context, waits for the network to
// settle and reads the rendered article. The context is always closed.
func (e *BrowserExtractor) Extract(ctx context.Context, url string) (domain.ArticleContent, error) {
	if err := ctx.Err(); err != nil {
		return domain.ArticleContent{}, err
	}

	bctx, err := e.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(e.opts.UserAgent),
		Viewport:         &playwright.Size{Width: viewportWidth, Height: viewportHeight},
		ExtraHttpHeaders: e.opts.Headers,
	})
	if err != nil {
		return domain.ArticleContent{}, fmt.Errorf("new browser context: %w", err)
	}
	defer func() {
		if cerr := bctx.Close(); cerr != nil {
			e.log.WarnObj("closing browser context failed", "browser_context_close", map[string]any{
				"url":   url,
				"error": cerr.Error(),
			})
		}
	}()

	page, err := bctx.NewPage()
	if err != nil {
		return domain.ArticleContent{}, fmt.Errorf("new page: %w", err)
	}

	e.log.DebugObj("navigating to article", "extract_start", map[string]any{"url": url, "mode": "browser"})

	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(e.opts.Timeout.Milliseconds())),
	})
	if err != nil {
		if !errors.Is(err, playwright.ErrTimeout) {
			return domain.ArticleContent{}, fmt.Errorf("navigate %s: %w", url, err)
		}
		e.log.WarnObj("navigation did not settle before timeout, reading partial page", "navigation_timeout", map[string]any{
			"url":        url,
			"timeout_ms": e.opts.Timeout.Milliseconds(),
		})
	}

	html, err := page.Content()
	if err != nil {
		return domain.ArticleContent{}, fmt.Errorf("read page content: %w", err)
	}

	return ParseArticle([]byte(html), url, e.opts.Parse)
}

// Close shuts down the browser and the playwright driver.
func (e *BrowserExtractor) Close() error {
	var errs []error
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
