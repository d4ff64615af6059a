package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/amazon-search-ranker/internal/models"
)

// Page is what a single search result page yields.
type Page struct {
	Records []models.ProductRecord
	// NextURL is empty on the last page.
	NextURL string
	Skipped int
}

// Collector extracts every product of a search result page.
type Collector struct {
	extractor *Extractor
	selectors Selectors
	logger    *slog.Logger
}

func NewCollector(extractor *Extractor, selectors Selectors, logger *slog.Logger) *Collector {
	return &Collector{
		extractor: extractor,
		selectors: selectors,
		logger:    logger.With("component", "collector"),
	}
}

func (c *Collector) Collect(html, domainURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{}
	var fatal error

	doc.Find(c.selectors.Container).EachWithBreak(func(i int, s *goquery.Selection) bool {
		// Banners and sponsored widgets share the container class but carry no name.
		if strings.TrimSpace(s.Find(c.selectors.Name).First().Text()) == "" {
			return true
		}

		record, err := c.extractor.Extract(s, domainURL)
		if errors.Is(err, ErrSkip) {
			page.Skipped++
			return true
		}
		if err != nil {
			fatal = err
			return false
		}

		page.Records = append(page.Records, *record)
		return true
	})

	if fatal != nil {
		return nil, fatal
	}

	if href, ok := doc.Find(c.selectors.NextPage).First().Attr("href"); ok && href != "" {
		page.NextURL = absoluteURL(domainURL, href)
	}

	c.logger.Debug("page collected",
		"records", len(page.Records),
		"skipped", page.Skipped,
		"hasNext", page.NextURL != "")

	return page, nil
}
