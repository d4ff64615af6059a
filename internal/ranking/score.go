package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/maltedev/amazon-search-ranker/internal/models"
)

var (
	ErrInvalidWeight = errors.New("weight must be between 0 and 1")
	ErrInvalidOrder  = errors.New("invalid sort order")
)

// Weights defines the relative importance of each normalized score.
// They are expected, not required, to sum to 1.
type Weights struct {
	Popularity float64 `json:"popularity" mapstructure:"popularity"`
	Price      float64 `json:"price" mapstructure:"price"`
	Discount   float64 `json:"discount" mapstructure:"discount"`
}

func DefaultWeights() Weights {
	return Weights{
		Popularity: 0.7,
		Price:      0.2,
		Discount:   0.1,
	}
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"popularity": w.Popularity,
		"price":      w.Price,
		"discount":   w.Discount,
	} {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, name, v)
		}
	}
	return nil
}

func (w Weights) Sum() float64 {
	return w.Popularity + w.Price + w.Discount
}

// SumsToOne allows for float noise such as 0.7+0.2+0.1.
func (w Weights) SumsToOne() bool {
	return math.Abs(w.Sum()-1) < 1e-9
}

type Order string

const (
	Descending Order = "desc"
	Ascending  Order = "asc"
)

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "highest":
		return Descending, nil
	case "asc", "ascending", "lowest":
		return Ascending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
}

// CustomizedScore combines the normalized scores of s, rounded to 2 decimals.
func CustomizedScore(s models.ScoredRecord, w Weights) float64 {
	return round2(w.Popularity*s.PopularityNorm + w.Price*s.InversePriceNorm + w.Discount*s.DiscountAmountNorm)
}

// Score ranks records by their customized score. Ties keep input order.
func Score(records []models.ScoredRecord, w Weights, order Order) []models.RankedRecord {
	ranked := make([]models.RankedRecord, len(records))
	for i, s := range records {
		ranked[i] = models.RankedRecord{
			ScoredRecord:    s,
			CustomizedScore: CustomizedScore(s, w),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if order == Ascending {
			return ranked[i].CustomizedScore < ranked[j].CustomizedScore
		}
		return ranked[i].CustomizedScore > ranked[j].CustomizedScore
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Total = len(ranked)
	}

	return ranked
}
