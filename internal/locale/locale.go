// Package locale maps currency symbols to the number formatting conventions
// used by the storefronts that display them.
package locale

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConvention = errors.New("invalid locale convention")

// Convention describes how a storefront formats prices and review summaries.
type Convention struct {
	DecimalSep   string `yaml:"decimal_separator"`
	ThousandsSep string `yaml:"thousands_separator"`
	// StarsPosition is the index of the rating among the numbers of a review
	// summary. Storefronts that print "5 stars, 4.3" put it at index 1.
	StarsPosition int `yaml:"stars_position"`
}

// DefaultConvention applies to every currency absent from a Table.
var DefaultConvention = Convention{
	DecimalSep:    ".",
	ThousandsSep:  ",",
	StarsPosition: 0,
}

func (c Convention) CommaDecimal() bool {
	return c.DecimalSep == ","
}

func (c Convention) validate() error {
	if c.DecimalSep != "." && c.DecimalSep != "," {
		return fmt.Errorf("%w: decimal separator %q", ErrInvalidConvention, c.DecimalSep)
	}
	if c.ThousandsSep != "." && c.ThousandsSep != "," {
		return fmt.Errorf("%w: thousands separator %q", ErrInvalidConvention, c.ThousandsSep)
	}
	if c.DecimalSep == c.ThousandsSep {
		return fmt.Errorf("%w: decimal and thousands separator are both %q", ErrInvalidConvention, c.DecimalSep)
	}
	if c.StarsPosition < 0 || c.StarsPosition > 1 {
		return fmt.Errorf("%w: stars position %d", ErrInvalidConvention, c.StarsPosition)
	}
	return nil
}

// Table is a read-only lookup from currency symbol to Convention.
type Table struct {
	conventions map[string]Convention
}

func NewTable() *Table {
	return &Table{conventions: make(map[string]Convention)}
}

// DefaultTable covers the Amazon storefronts known to deviate from
// DefaultConvention.
func DefaultTable() *Table {
	t := NewTable()
	commaDecimal := Convention{DecimalSep: ",", ThousandsSep: "."}

	t.Set("€", commaDecimal)  // es, de, fr, it, nl
	t.Set("zł", commaDecimal) // pl
	t.Set("kr", commaDecimal) // se
	t.Set("¥", Convention{DecimalSep: ".", ThousandsSep: ",", StarsPosition: 1})

	return t
}

// Set registers c for symbol. The symbol is normalized the same way lookups are.
func (t *Table) Set(symbol string, c Convention) {
	t.conventions[NormalizeSymbol(symbol)] = c
}

// Lookup returns the convention for symbol, or DefaultConvention when unknown.
func (t *Table) Lookup(symbol string) Convention {
	if t == nil {
		return DefaultConvention
	}
	if c, ok := t.conventions[NormalizeSymbol(symbol)]; ok {
		return c
	}
	return DefaultConvention
}

func (t *Table) Len() int {
	return len(t.conventions)
}

// NormalizeSymbol folds compatibility forms (no-break spaces, full-width
// yen) and trims surrounding whitespace.
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(norm.NFKC.String(symbol))
}

type fileEntry struct {
	Currency   string `yaml:"currency"`
	Convention `yaml:",inline"`
}

type fileFormat struct {
	Conventions []fileEntry `yaml:"conventions"`
}

// Parse reads a YAML table:
//
//	conventions:
//	  - currency: "€"
//	    decimal_separator: ","
//	    thousands_separator: "."
//	  - currency: "¥"
//	    stars_position: 1
//
// Omitted separators fall back to DefaultConvention.
func Parse(data []byte) (*Table, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode locale table: %w", err)
	}

	t := NewTable()
	for i, e := range f.Conventions {
		if NormalizeSymbol(e.Currency) == "" {
			return nil, fmt.Errorf("%w: entry %d has no currency", ErrInvalidConvention, i)
		}

		c := e.Convention
		if c.DecimalSep == "" {
			c.DecimalSep = DefaultConvention.DecimalSep
		}
		if c.ThousandsSep == "" {
			if c.DecimalSep == "," {
				c.ThousandsSep = "."
			} else {
				c.ThousandsSep = DefaultConvention.ThousandsSep
			}
		}

		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("currency %q: %w", e.Currency, err)
		}
		t.Set(e.Currency, c)
	}

	return t, nil
}

func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale table: %w", err)
	}
	return Parse(data)
}
