package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/parser"
)

// ErrFetch wraps any failure to obtain a result page.
var ErrFetch = errors.New("failed to fetch search page")

// PageFetcher returns the HTML of the search results on url.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// DomainURL returns the storefront root for a region such as "es".
func DomainURL(region string) string {
	return "https://www.amazon." + region
}

// SearchURL builds the first result page URL for term.
func SearchURL(region, term string) string {
	return DomainURL(region) + "/s?k=" + url.QueryEscape(term)
}

type Result struct {
	Records   []models.ProductRecord
	Elapsed   time.Duration
	Pages     int
	Skipped   int
	Truncated bool
}

// Driver walks the pagination chain of a search.
type Driver struct {
	fetcher   PageFetcher
	collector *parser.Collector
	maxPages  int
	logger    *slog.Logger
}

// NewDriver creates a driver. maxPages <= 0 follows every next link.
func NewDriver(fetcher PageFetcher, collector *parser.Collector, maxPages int, logger *slog.Logger) *Driver {
	return &Driver{
		fetcher:   fetcher,
		collector: collector,
		maxPages:  maxPages,
		logger:    logger.With("component", "driver"),
	}
}

// ScrapeAll collects records from startURL and every following page. Records
// keep discovery order. Any fetch or extraction error aborts the run.
func (d *Driver) ScrapeAll(ctx context.Context, startURL, domainURL string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	next := startURL
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if d.maxPages > 0 && result.Pages >= d.maxPages {
			d.logger.Warn("page budget reached, stopping",
				"maxPages", d.maxPages,
				"next", next)
			result.Truncated = true
			break
		}

		d.logger.Info("fetching page", "page", result.Pages+1, "url", next)

		html, err := d.fetcher.FetchPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, next, err)
		}

		page, err := d.collector.Collect(html, domainURL)
		if err != nil {
			return nil, err
		}

		result.Pages++
		result.Skipped += page.Skipped
		result.Records = append(result.Records, page.Records...)
		next = page.NextURL
	}

	result.Elapsed = time.Since(start)

	d.logger.Info("scrape completed",
		"pages", result.Pages,
		"records", len(result.Records),
		"skipped", result.Skipped,
		"elapsed", result.Elapsed)

	return result, nil
}
