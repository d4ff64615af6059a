package ranking

import (
	"math"
	"testing"

	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.ProductRecord {
	return []models.ProductRecord{
		{Name: "A", Stars: 4.8, ReviewCount: 1000, DiscountedPrice: 50, OriginalPrice: 50, Currency: "€"},
		{Name: "B", Stars: 3.0, ReviewCount: 10, DiscountedPrice: 10, OriginalPrice: 10, Currency: "€"},
		{Name: "C", Stars: 4.0, ReviewCount: 100, DiscountedPrice: 30, OriginalPrice: 40, Currency: "€"},
	}
}

func names(ranked []models.RankedRecord) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Name
	}
	return out
}

func TestFinalizeDerivedColumns(t *testing.T) {
	scored, stats := Finalize(sampleRecords())
	require.Len(t, scored, 3)
	assert.Equal(t, Stats{Input: 3, Final: 3}, stats)

	c := scored[2]
	assert.Equal(t, 25.0, c.DiscountPercent)
	assert.Equal(t, 10.0, c.DiscountAmount)
	assert.InDelta(t, 4+math.Log10(101), c.PopularityScore, 1e-9)
	assert.InDelta(t, 1.0/30, c.InversePrice, 1e-12)

	assert.Equal(t, 100.0, scored[0].PopularityNorm)
	assert.Equal(t, 0.0, scored[1].PopularityNorm)
	assert.Equal(t, 100.0, scored[1].InversePriceNorm)
	assert.Equal(t, 0.0, scored[0].InversePriceNorm)
	assert.Equal(t, 100.0, c.DiscountAmountNorm)

	for _, s := range scored {
		for _, v := range []float64{s.PopularityNorm, s.InversePriceNorm, s.DiscountAmountNorm} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestFinalizeDeduplicatesFirstWins(t *testing.T) {
	records := sampleRecords()
	dup := records[0]
	dup.Stars = 1
	records = append(records, dup, records[1])

	scored, stats := Finalize(records)

	assert.Equal(t, 2, stats.Duplicates)
	require.Len(t, scored, 3)
	assert.Equal(t, 4.8, scored[0].Stars)
}

func TestFinalizeDropsUnnamed(t *testing.T) {
	records := sampleRecords()
	records = append(records,
		models.ProductRecord{Name: "", Stars: 4, ReviewCount: 5, DiscountedPrice: 1, OriginalPrice: 1, Currency: "€"},
		models.ProductRecord{Name: "  ", Stars: 2, ReviewCount: 9, DiscountedPrice: 2, OriginalPrice: 3, Currency: "€"},
	)

	scored, stats := Finalize(records)
	require.Len(t, scored, 3)
	assert.Equal(t, Stats{Input: 5, Unnamed: 2, Final: 3}, stats)
	for _, s := range scored {
		assert.NotEmpty(t, s.Name)
	}
}

func TestFinalizeFiltersOutOfRangeStars(t *testing.T) {
	records := append(sampleRecords(),
		models.ProductRecord{Name: "D", Stars: 7, DiscountedPrice: 1, OriginalPrice: 1},
		models.ProductRecord{Name: "E", Stars: math.NaN(), DiscountedPrice: 1, OriginalPrice: 1},
	)

	scored, stats := Finalize(records)

	assert.Equal(t, 2, stats.OutOfRange)
	assert.Len(t, scored, 3)
}

func TestFinalizeClampsInvertedPrices(t *testing.T) {
	records := []models.ProductRecord{
		{Name: "Unit price", DiscountedPrice: 12, OriginalPrice: 1.4},
		{Name: "Normal", DiscountedPrice: 5, OriginalPrice: 8},
	}

	scored, _ := Finalize(records)

	require.Len(t, scored, 2)
	assert.Equal(t, 12.0, scored[0].OriginalPrice)
	assert.Equal(t, 0.0, scored[0].DiscountPercent)
	assert.Empty(t, scored[0].Validate())
}

func TestFinalizeConstantColumn(t *testing.T) {
	records := []models.ProductRecord{
		{Name: "X", Stars: 4, ReviewCount: 5, DiscountedPrice: 20, OriginalPrice: 20},
		{Name: "Y", Stars: 4, ReviewCount: 5, DiscountedPrice: 20, OriginalPrice: 20},
		{Name: "Z", Stars: 4, ReviewCount: 5, DiscountedPrice: 20, OriginalPrice: 20},
	}

	scored, _ := Finalize(records)

	for _, s := range scored {
		assert.Equal(t, scaleMin, s.InversePriceNorm)
		assert.Equal(t, scaleMin, s.PopularityNorm)
		assert.Equal(t, scaleMin, s.DiscountAmountNorm)
		assert.False(t, math.IsNaN(s.InversePriceNorm))
	}
}

func TestFinalizeZeroPrice(t *testing.T) {
	scored, _ := Finalize([]models.ProductRecord{
		{Name: "Free", DiscountedPrice: 0, OriginalPrice: 0},
		{Name: "Paid", DiscountedPrice: 4, OriginalPrice: 4},
	})

	require.Len(t, scored, 2)
	assert.Equal(t, 0.0, scored[0].InversePrice)
	assert.Equal(t, 0.0, scored[0].DiscountPercent)
	assert.False(t, math.IsInf(scored[1].InversePriceNorm, 0))
}

func TestFinalizeIdempotent(t *testing.T) {
	first, _ := Finalize(sampleRecords())
	second, stats := Finalize(Records(first))

	assert.Equal(t, first, second)
	assert.Zero(t, stats.Duplicates)
	assert.Zero(t, stats.OutOfRange)
}

func TestFinalizeEmpty(t *testing.T) {
	scored, stats := Finalize(nil)
	assert.Empty(t, scored)
	assert.Zero(t, stats.Final)
}

func TestScoreWeightsChangeOrdering(t *testing.T) {
	scored, _ := Finalize(sampleRecords())

	blended := Score(scored, Weights{Popularity: 0.7, Price: 0.2, Discount: 0.1}, Ascending)
	popularOnly := Score(scored, Weights{Popularity: 1}, Descending)

	assert.Equal(t, []string{"B", "C", "A"}, names(blended))
	assert.Equal(t, []string{"A", "C", "B"}, names(popularOnly))
	assert.NotEqual(t, names(blended), names(popularOnly))

	assert.Equal(t, 70.0, blended[2].CustomizedScore)
	assert.Equal(t, 1, popularOnly[0].Rank)
	assert.Equal(t, 3, popularOnly[2].Total)
}

func TestScoreStableOnTies(t *testing.T) {
	records := []models.ProductRecord{
		{Name: "first", Stars: 4, DiscountedPrice: 10, OriginalPrice: 10},
		{Name: "second", Stars: 4, DiscountedPrice: 10, OriginalPrice: 10},
		{Name: "third", Stars: 4, DiscountedPrice: 10, OriginalPrice: 10},
	}
	scored, _ := Finalize(records)

	assert.Equal(t, []string{"first", "second", "third"}, names(Score(scored, DefaultWeights(), Descending)))
	assert.Equal(t, []string{"first", "second", "third"}, names(Score(scored, DefaultWeights(), Ascending)))
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.True(t, DefaultWeights().SumsToOne())

	assert.ErrorIs(t, Weights{Popularity: 1.5}.Validate(), ErrInvalidWeight)
	assert.ErrorIs(t, Weights{Price: -0.1}.Validate(), ErrInvalidWeight)
	assert.ErrorIs(t, Weights{Discount: math.NaN()}.Validate(), ErrInvalidWeight)

	unbalanced := Weights{Popularity: 1, Price: 1}
	assert.NoError(t, unbalanced.Validate())
	assert.False(t, unbalanced.SumsToOne())
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected Order
		hasError bool
	}{
		{"", Descending, false},
		{"desc", Descending, false},
		{"Highest", Descending, false},
		{"asc", Ascending, false},
		{"lowest", Ascending, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			order, err := ParseOrder(tt.input)
			if tt.hasError {
				assert.ErrorIs(t, err, ErrInvalidOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order)
		})
	}
}

func TestMinMaxScale(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100}, minMaxScale([]float64{1, 2, 3}, 0, 100))
	assert.Equal(t, []float64{0, 0}, minMaxScale([]float64{7, 7}, 0, 100))
	assert.Empty(t, minMaxScale(nil, 0, 100))
}
