package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/maltedev/amazon-search-ranker/internal/locale"
	"github.com/maltedev/amazon-search-ranker/internal/models"
)

type Price struct {
	Value    float64
	Currency string
}

// Normalizer turns locale formatted prices and review summaries into numbers.
type Normalizer struct {
	locales *locale.Table
}

func NewNormalizer(locales *locale.Table) *Normalizer {
	if locales == nil {
		locales = locale.DefaultTable()
	}
	return &Normalizer{locales: locales}
}

// Normalize parses a raw price such as "1.299,00 €" or "$1,042.98".
// A missing currency symbol yields models.UnknownCurrency, not an error.
func (n *Normalizer) Normalize(raw string) (Price, error) {
	currency := CurrencySymbol(raw)

	value, err := n.ParseAmount(raw, currency)
	if err != nil {
		return Price{}, err
	}

	return Price{Value: value, Currency: currency}, nil
}

// ParseAmount parses raw with the number convention of currency.
func (n *Normalizer) ParseAmount(raw, currency string) (float64, error) {
	cleaned := cleanNumber(raw)
	canonical := canonicalNumber(cleaned, n.locales.Lookup(currency))

	value, err := strconv.ParseFloat(canonical, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", ErrParse, raw)
	}

	return value, nil
}

// CurrencySymbol returns the longest run of characters that are neither
// digits nor separators, normalized by locale.NormalizeSymbol.
func CurrencySymbol(raw string) string {
	best := ""
	bestLen := 0

	for _, run := range strings.FieldsFunc(raw, isNumberRune) {
		symbol := locale.NormalizeSymbol(run)
		if symbol == "" {
			continue
		}
		if l := utf8.RuneCountInString(symbol); l > bestLen {
			best, bestLen = symbol, l
		}
	}

	if best == "" {
		return models.UnknownCurrency
	}
	return best
}

func isNumberRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == ','
}

func cleanNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if isNumberRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalNumber rewrites cleaned digits into strconv syntax. Comma-decimal
// strings longer than 6 characters carry thousands separators ("1.299,00"),
// shorter ones only a decimal comma ("165,00").
func canonicalNumber(cleaned string, c locale.Convention) string {
	if !c.CommaDecimal() {
		return strings.ReplaceAll(cleaned, c.ThousandsSep, "")
	}

	if len(cleaned) > 6 {
		cleaned = strings.ReplaceAll(cleaned, c.ThousandsSep, "")
	}
	return strings.ReplaceAll(cleaned, c.DecimalSep, ".")
}
