package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/events"
	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
	"github.com/maltedev/amazon-search-ranker/internal/scraper"
)

var ErrEmptyTerm = errors.New("search term is required")

// Scraper walks the result pages of a search.
type Scraper interface {
	ScrapeAll(ctx context.Context, startURL, domainURL string) (*scraper.Result, error)
}

// ResultSet receives the finalized records of a search.
type ResultSet interface {
	Replace(ctx context.Context, term string, records []models.ScoredRecord) error
}

type Publisher interface {
	Publish(ctx context.Context, eventType events.EventType, payload *events.SearchPayload) error
}

type Request struct {
	JobID  string
	Term   string
	Region string
}

// Summary reports what a search run produced.
type Summary struct {
	Term       string        `json:"term"`
	Region     string        `json:"region"`
	Pages      int           `json:"pages"`
	Elapsed    time.Duration `json:"elapsed"`
	Scraped    int           `json:"scraped"`
	Skipped    int           `json:"skipped"`
	Unnamed    int           `json:"unnamed"`
	Duplicates int           `json:"duplicates"`
	OutOfRange int           `json:"out_of_range"`
	Final      int           `json:"final"`
	Truncated  bool          `json:"truncated"`
}

// Service runs a search end to end: scrape, finalize, persist.
type Service struct {
	scraper   Scraper
	results   ResultSet
	publisher Publisher
	region    string
	logger    *slog.Logger
}

// NewService creates the service. publisher may be nil.
func NewService(s Scraper, results ResultSet, publisher Publisher, region string, logger *slog.Logger) *Service {
	return &Service{
		scraper:   s,
		results:   results,
		publisher: publisher,
		region:    region,
		logger:    logger.With("component", "search_service"),
	}
}

func (s *Service) Run(ctx context.Context, req Request) (*Summary, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	region := req.Region
	if region == "" {
		region = s.region
	}

	s.logger.Info("search started", "term", term, "region", region, "job_id", req.JobID)

	result, err := s.scraper.ScrapeAll(ctx, scraper.SearchURL(region, term), scraper.DomainURL(region))
	if err != nil {
		s.publish(ctx, events.EventTypeSearchFailed, &events.SearchPayload{
			JobID:  req.JobID,
			Term:   term,
			Region: region,
			Error:  err.Error(),
		})
		return nil, fmt.Errorf("search %q failed: %w", term, err)
	}

	scored, stats := ranking.Finalize(result.Records)

	if err := s.results.Replace(ctx, term, scored); err != nil {
		return nil, err
	}

	summary := &Summary{
		Term:       term,
		Region:     region,
		Pages:      result.Pages,
		Elapsed:    result.Elapsed,
		Scraped:    stats.Input,
		Skipped:    result.Skipped,
		Unnamed:    stats.Unnamed,
		Duplicates: stats.Duplicates,
		OutOfRange: stats.OutOfRange,
		Final:      stats.Final,
		Truncated:  result.Truncated,
	}

	s.logger.Info("search completed",
		"term", term,
		"pages", summary.Pages,
		"elapsed", summary.Elapsed,
		"scraped", summary.Scraped,
		"skipped", summary.Skipped,
		"unnamed", summary.Unnamed,
		"duplicates", summary.Duplicates,
		"out_of_range", summary.OutOfRange,
		"final", summary.Final,
		"truncated", summary.Truncated)

	s.publish(ctx, events.EventTypeSearchCompleted, &events.SearchPayload{
		JobID:      req.JobID,
		Term:       term,
		Region:     region,
		Pages:      summary.Pages,
		Scraped:    summary.Scraped,
		Skipped:    summary.Skipped,
		Unnamed:    summary.Unnamed,
		Duplicates: summary.Duplicates,
		OutOfRange: summary.OutOfRange,
		Final:      summary.Final,
		Truncated:  summary.Truncated,
		ElapsedMS:  summary.Elapsed.Milliseconds(),
		Currency:   headerCurrency(scored),
	})

	return summary, nil
}

// headerCurrency is the currency of the first record that has a known one.
func headerCurrency(scored []models.ScoredRecord) string {
	for _, r := range scored {
		if r.HasKnownCurrency() {
			return r.Currency
		}
	}
	return models.UnknownCurrency
}

// publish never fails the search; event delivery is best effort.
func (s *Service) publish(ctx context.Context, eventType events.EventType, payload *events.SearchPayload) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "term", payload.Term, "error", err)
	}
}
