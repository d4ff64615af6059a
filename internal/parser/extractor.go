package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/amazon-search-ranker/internal/models"
)

// PerUnitPredicate reports whether the last price of a result block is a
// per-unit annotation ("11.900,00 €/kg") rather than a struck-through price.
type PerUnitPredicate func(price string) bool

// DefaultPerUnit flags prices containing both '.' and ','.
func DefaultPerUnit(price string) bool {
	return strings.Contains(price, ".") && strings.Contains(price, ",")
}

// Extractor builds a ProductRecord from one search result block.
type Extractor struct {
	normalizer *Normalizer
	selectors  Selectors
	perUnit    PerUnitPredicate
	logger     *slog.Logger
}

func NewExtractor(normalizer *Normalizer, selectors Selectors, logger *slog.Logger) *Extractor {
	return &Extractor{
		normalizer: normalizer,
		selectors:  selectors,
		perUnit:    DefaultPerUnit,
		logger:     logger.With("component", "extractor"),
	}
}

func (e *Extractor) SetPerUnit(p PerUnitPredicate) {
	if p == nil {
		p = DefaultPerUnit
	}
	e.perUnit = p
}

// Extract returns ErrSkip for products without a price (out of stock, not
// shipped to the region, second hand only). Any other error is an
// *ExtractionError and must abort the run.
func (e *Extractor) Extract(item *goquery.Selection, domainURL string) (*models.ProductRecord, error) {
	name := strings.TrimSpace(item.Find(e.selectors.Name).First().Text())

	image, ok := item.Find(e.selectors.Image).First().Attr("src")
	if !ok {
		return nil, &ExtractionError{Product: name, Err: fmt.Errorf("%w: image", ErrMissingField)}
	}

	href, ok := item.Find(e.selectors.Link).First().Attr("href")
	if !ok {
		return nil, &ExtractionError{Product: name, Err: fmt.Errorf("%w: product link", ErrMissingField)}
	}
	url := absoluteURL(domainURL, href)

	prices := e.priceTexts(item)
	if len(prices) == 0 {
		e.logger.Info("product skipped: no price", "name", name, "url", url)
		return nil, ErrSkip
	}

	originalText, discountedText := e.choosePrices(prices)

	original, err := e.normalizer.Normalize(originalText)
	if err != nil {
		return nil, &ExtractionError{Product: name, URL: url, Err: err}
	}

	discounted, err := e.normalizer.ParseAmount(discountedText, original.Currency)
	if err != nil {
		return nil, &ExtractionError{Product: name, URL: url, Err: err}
	}

	review := item.Find(e.selectors.Review).First()
	stars, count, err := e.normalizer.NormalizeReview(review.Text(), review.Length() > 0, original.Currency)
	if err != nil {
		return nil, &ExtractionError{Product: name, URL: url, Err: err}
	}

	return &models.ProductRecord{
		Name:            name,
		Stars:           stars,
		ReviewCount:     count,
		DiscountedPrice: discounted,
		OriginalPrice:   original.Value,
		Currency:        original.Currency,
		ImageURL:        image,
		ProductURL:      url,
	}, nil
}

func (e *Extractor) priceTexts(item *goquery.Selection) []string {
	var prices []string
	item.Find(e.selectors.Price).Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			prices = append(prices, text)
		}
	})
	return prices
}

// choosePrices returns (original, discounted). Amazon lists the price to pay
// first and the struck-through price last.
func (e *Extractor) choosePrices(prices []string) (string, string) {
	first, last := prices[0], prices[len(prices)-1]

	if len(prices) == 1 || e.perUnit(last) {
		return first, first
	}
	return last, first
}
