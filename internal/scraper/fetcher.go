package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maltedev/amazon-search-ranker/internal/browser"
	"github.com/maltedev/amazon-search-ranker/internal/ratelimit"
	"github.com/playwright-community/playwright-go"
)

const resultsSection = "span.rush-component.s-latency-cf-section"

// BrowserFetcher loads search pages in a single playwright tab.
type BrowserFetcher struct {
	browser *browser.Browser
	limiter ratelimit.Limiter
	logger  *slog.Logger

	mu   sync.Mutex
	page playwright.Page
}

func NewBrowserFetcher(b *browser.Browser, limiter ratelimit.Limiter, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		browser: b,
		limiter: limiter,
		logger:  logger.With("component", "fetcher"),
	}
}

func (f *BrowserFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	html, err := f.fetch(ctx, url)
	if fb, ok := f.limiter.(ratelimit.Feedback); ok {
		if err != nil {
			fb.RecordError()
		} else {
			fb.RecordSuccess()
		}
	}

	return html, err
}

func (f *BrowserFetcher) fetch(ctx context.Context, url string) (string, error) {
	if f.page == nil {
		page, err := f.browser.NewPage()
		if err != nil {
			return "", err
		}
		f.page = page
	}

	if err := f.browser.NavigateWithRetry(ctx, f.page, url); err != nil {
		return "", err
	}

	html, err := f.page.InnerHTML(resultsSection)
	if err != nil {
		return "", fmt.Errorf("results section not found: %w", err)
	}

	f.logger.Debug("page fetched", "url", url, "bytes", len(html))

	return html, nil
}

func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.page == nil {
		return nil
	}

	err := f.page.Close()
	f.page = nil
	return err
}
