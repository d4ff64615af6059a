package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSkip marks a product that is unavailable (no price shown) and is left out.
	ErrSkip = errors.New("product skipped")
	// ErrParse is returned when a normalized string still is not a number.
	ErrParse = errors.New("failed to parse number")
	// ErrMissingField is returned when a result block lacks image or link markup.
	ErrMissingField = errors.New("required field missing")
)

// ExtractionError aborts a whole scrape run. It means the page markup no
// longer matches what the extractor expects.
type ExtractionError struct {
	Product string
	URL     string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of %q (%s) failed: %v", e.Product, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Selectors locate product fields inside an Amazon search result page.
type Selectors struct {
	Container string
	Name      string
	Image     string
	Link      string
	Price     string
	Review    string
	NextPage  string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Container: "div.sg-col-inner",
		Name:      "h2 a span",
		Image:     `span[data-component-type="s-product-image"] img`,
		Link:      `span[data-component-type="s-product-image"] a`,
		Price:     `div[data-cy="price-recipe"] span.a-offscreen`,
		Review:    "div.a-row.a-size-small",
		NextPage:  "a.s-pagination-item.s-pagination-next.s-pagination-button.s-pagination-separator",
	}
}

func absoluteURL(domainURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	// Protocol relative: "//www.amazon.es/dp/..." keeps the domain's scheme.
	if strings.HasPrefix(href, "//") {
		scheme, _, ok := strings.Cut(domainURL, "://")
		if !ok {
			scheme = "https"
		}
		return scheme + ":" + href
	}
	return domainURL + href
}
