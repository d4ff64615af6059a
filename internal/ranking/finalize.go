// Package ranking deduplicates scraped products, derives their scores and
// orders them by a caller weighted composite score.
package ranking

import (
	"math"
	"strings"

	"github.com/maltedev/amazon-search-ranker/internal/models"
)

const (
	scaleMin = 0.0
	scaleMax = 100.0
)

// Stats summarizes what Finalize dropped.
type Stats struct {
	Input      int `json:"input"`
	Unnamed    int `json:"unnamed"`
	Duplicates int `json:"duplicates"`
	OutOfRange int `json:"out_of_range"`
	Final      int `json:"final"`
}

// Finalize drops records without a name, deduplicates by name (first
// occurrence wins), drops ratings outside [0,5], lifts original prices below the discounted price and
// computes the derived and min-max scaled columns over the remaining set.
func Finalize(records []models.ProductRecord) ([]models.ScoredRecord, Stats) {
	stats := Stats{Input: len(records)}

	seen := make(map[string]struct{}, len(records))
	scored := make([]models.ScoredRecord, 0, len(records))

	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			stats.Unnamed++
			continue
		}

		if _, dup := seen[r.Name]; dup {
			stats.Duplicates++
			continue
		}
		seen[r.Name] = struct{}{}

		if !(r.Stars >= 0 && r.Stars <= 5) {
			stats.OutOfRange++
			continue
		}

		// Unit prices ("1,40 €/unidad") can end up as the original price.
		if r.DiscountedPrice > r.OriginalPrice {
			r.OriginalPrice = r.DiscountedPrice
		}

		scored = append(scored, derive(r))
	}

	normalize(scored)
	stats.Final = len(scored)

	return scored, stats
}

// Records strips the derived columns, e.g. to finalize a loaded set again.
func Records(scored []models.ScoredRecord) []models.ProductRecord {
	records := make([]models.ProductRecord, len(scored))
	for i, s := range scored {
		records[i] = s.ProductRecord
	}
	return records
}

func derive(r models.ProductRecord) models.ScoredRecord {
	s := models.ScoredRecord{ProductRecord: r}

	s.DiscountAmount = r.OriginalPrice - r.DiscountedPrice
	if r.OriginalPrice > 0 {
		s.DiscountPercent = round2(s.DiscountAmount / r.OriginalPrice * 100)
	}
	s.PopularityScore = r.Stars + math.Log10(1+float64(r.ReviewCount))
	if r.DiscountedPrice > 0 {
		s.InversePrice = 1 / r.DiscountedPrice
	}

	return s
}

func normalize(scored []models.ScoredRecord) {
	inverse := make([]float64, len(scored))
	popularity := make([]float64, len(scored))
	discount := make([]float64, len(scored))

	for i, s := range scored {
		inverse[i] = s.InversePrice
		popularity[i] = s.PopularityScore
		discount[i] = s.DiscountAmount
	}

	inverse = minMaxScale(inverse, scaleMin, scaleMax)
	popularity = minMaxScale(popularity, scaleMin, scaleMax)
	discount = minMaxScale(discount, scaleMin, scaleMax)

	for i := range scored {
		scored[i].InversePriceNorm = inverse[i]
		scored[i].PopularityNorm = popularity[i]
		scored[i].DiscountAmountNorm = discount[i]
	}
}

// minMaxScale maps values linearly onto [lo, hi]. A constant column maps to lo.
func minMaxScale(values []float64, lo, hi float64) []float64 {
	scaled := make([]float64, len(values))
	if len(values) == 0 {
		return scaled
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	span := max - min
	for i, v := range values {
		if span == 0 {
			scaled[i] = lo
			continue
		}
		scaled[i] = lo + (v-min)/span*(hi-lo)
	}

	return scaled
}

// round2 rounds half to even, like numpy.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
