package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/amazon-search-ranker/internal/locale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domainURL = "https://www.amazon.es"

func productBlock(name string, prices []string, review string) string {
	var b strings.Builder
	b.WriteString(`<div class="sg-col-inner">`)
	b.WriteString(`<span data-component-type="s-product-image"><a href="/dp/` + strings.ReplaceAll(name, " ", "-") + `">`)
	b.WriteString(`<img src="https://m.media-amazon.com/images/` + strings.ReplaceAll(name, " ", "_") + `.jpg"></a></span>`)
	b.WriteString(`<h2><a href="#"><span>` + name + `</span></a></h2>`)
	if review != "" {
		b.WriteString(`<div class="a-row a-size-small">` + review + `</div>`)
	}
	b.WriteString(`<div data-cy="price-recipe">`)
	for _, p := range prices {
		b.WriteString(`<span class="a-price"><span class="a-offscreen">` + p + `</span></span>`)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func newTestExtractor() *Extractor {
	return NewExtractor(NewNormalizer(locale.DefaultTable()), DefaultSelectors(), slog.Default())
}

func itemSelection(t *testing.T, html string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("div.sg-col-inner").First()
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		prices     []string
		review     string
		discounted float64
		original   float64
		stars      float64
		count      int
	}{
		{
			name:       "discounted product",
			prices:     []string{"6,59 €", "10,99 €"},
			review:     "4,6 de 5 estrellas 30.047",
			discounted: 6.59,
			original:   10.99,
			stars:      4.6,
			count:      30047,
		},
		{
			name:       "single price",
			prices:     []string{"1.299,00 €"},
			review:     "4,2 de 5 estrellas 812",
			discounted: 1299,
			original:   1299,
			stars:      4.2,
			count:      812,
		},
		{
			name:       "per-unit annotation",
			prices:     []string{"5,95 €", "11.900,00 €/kg"},
			discounted: 5.95,
			original:   5.95,
		},
		{
			name:       "three prices uses first and last",
			prices:     []string{"20,00 €", "22,00 €", "25,00 €"},
			discounted: 20,
			original:   25,
		},
	}

	e := newTestExtractor()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := itemSelection(t, productBlock(tt.name, tt.prices, tt.review))

			record, err := e.Extract(item, domainURL)
			require.NoError(t, err)

			assert.Equal(t, tt.name, record.Name)
			assert.InDelta(t, tt.discounted, record.DiscountedPrice, 1e-9)
			assert.InDelta(t, tt.original, record.OriginalPrice, 1e-9)
			assert.InDelta(t, tt.stars, record.Stars, 1e-9)
			assert.Equal(t, tt.count, record.ReviewCount)
			assert.Equal(t, "€", record.Currency)
			assert.Equal(t, domainURL+"/dp/"+strings.ReplaceAll(tt.name, " ", "-"), record.ProductURL)
			assert.Contains(t, record.ImageURL, "https://m.media-amazon.com/images/")
		})
	}
}

func TestExtractSkipsProductWithoutPrice(t *testing.T) {
	item := itemSelection(t, productBlock("Agotado", nil, "4,0 de 5 estrellas 3"))

	record, err := newTestExtractor().Extract(item, domainURL)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrSkip)
}

func TestExtractFatalOnUnparsablePrice(t *testing.T) {
	item := itemSelection(t, productBlock("Roto", []string{"Ver opciones"}, ""))

	_, err := newTestExtractor().Extract(item, domainURL)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "Roto", extractionErr.Product)
	assert.ErrorIs(t, err, ErrParse)
}

func TestExtractFatalOnMissingImage(t *testing.T) {
	html := `<div class="sg-col-inner"><h2><a><span>Sin imagen</span></a></h2></div>`

	_, err := newTestExtractor().Extract(itemSelection(t, html), domainURL)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestExtractCustomPerUnitPredicate(t *testing.T) {
	e := newTestExtractor()
	e.SetPerUnit(func(price string) bool { return strings.Contains(price, "/") })

	item := itemSelection(t, productBlock("Queso", []string{"9,00 €", "12.000,50 €"}, ""))

	record, err := e.Extract(item, domainURL)
	require.NoError(t, err)
	assert.Equal(t, 9.0, record.DiscountedPrice)
	assert.Equal(t, 12000.5, record.OriginalPrice)
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		href     string
		expected string
	}{
		{"relative", domainURL, "/dp/B0TAZA", "https://www.amazon.es/dp/B0TAZA"},
		{"absolute", domainURL, "https://aax-eu.amazon.es/x/c/sp", "https://aax-eu.amazon.es/x/c/sp"},
		{"protocol relative", domainURL, "//www.amazon.es/dp/B0TAZA", "https://www.amazon.es/dp/B0TAZA"},
		{"protocol relative keeps scheme", "http://localhost:8080", "//cdn.test/dp/1", "http://cdn.test/dp/1"},
		{"protocol relative without scheme", "www.amazon.es", "//www.amazon.es/dp/1", "https://www.amazon.es/dp/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, absoluteURL(tt.domain, tt.href))
		})
	}
}

func TestExtractProtocolRelativeLink(t *testing.T) {
	html := strings.Replace(productBlock("Taza azul", []string{"7,99 €"}, ""),
		`href="/dp/Taza-azul"`, `href="//www.amazon.es/dp/Taza-azul"`, 1)

	record, err := newTestExtractor().Extract(itemSelection(t, html), domainURL)
	require.NoError(t, err)
	assert.Equal(t, "https://www.amazon.es/dp/Taza-azul", record.ProductURL)
}

func TestDefaultPerUnit(t *testing.T) {
	assert.True(t, DefaultPerUnit("11.900,00 €/kg"))
	assert.False(t, DefaultPerUnit("10,99 €"))
	assert.False(t, DefaultPerUnit("$10.99"))
}

func TestCollect(t *testing.T) {
	html := fmt.Sprintf(`<div class="s-main-slot">%s%s%s<div class="sg-col-inner">banner</div></div>
		<a class="s-pagination-item s-pagination-next s-pagination-button s-pagination-separator" href="/s?k=taza&amp;page=2">Siguiente</a>`,
		productBlock("Taza azul", []string{"7,99 €"}, "4,4 de 5 estrellas 1.024"),
		productBlock("Taza agotada", nil, ""),
		productBlock("Taza roja", []string{"5,49 €", "8,99 €"}, "3,9 de 5 estrellas 87"),
	)

	e := newTestExtractor()
	c := NewCollector(e, DefaultSelectors(), slog.Default())

	page, err := c.Collect(html, domainURL)
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, "Taza azul", page.Records[0].Name)
	assert.Equal(t, "Taza roja", page.Records[1].Name)
	assert.Equal(t, 1, page.Skipped)
	assert.Equal(t, domainURL+"/s?k=taza&page=2", page.NextURL)
}

func TestCollectLastPage(t *testing.T) {
	html := productBlock("Taza azul", []string{"7,99 €"}, "")

	c := NewCollector(newTestExtractor(), DefaultSelectors(), slog.Default())

	page, err := c.Collect(html, domainURL)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Empty(t, page.NextURL)
}

func TestCollectIgnoresBlankNames(t *testing.T) {
	html := productBlock("Taza azul", []string{"7,99 €"}, "") +
		productBlock("   ", []string{"4,99 €"}, "") +
		productBlock("\n\t", []string{"consultar"}, "")

	c := NewCollector(newTestExtractor(), DefaultSelectors(), slog.Default())

	page, err := c.Collect(html, domainURL)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Taza azul", page.Records[0].Name)
	assert.Zero(t, page.Skipped)
}

func TestCollectStopsOnFatalError(t *testing.T) {
	html := productBlock("Taza azul", []string{"7,99 €"}, "") +
		productBlock("Taza rota", []string{"consultar"}, "")

	c := NewCollector(newTestExtractor(), DefaultSelectors(), slog.Default())

	page, err := c.Collect(html, domainURL)
	assert.Nil(t, page)

	var extractionErr *ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}
