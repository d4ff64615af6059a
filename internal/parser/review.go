package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reviewNumberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	groupingReplacer    = strings.NewReplacer(".", "", ",", "")
)

const maxStars = 5.0

// NormalizeReview reads the rating and review count out of a review summary
// such as "4,6 de 5 estrellas 30.047". present is false when the product has
// no review block at all.
//
// Summaries that do not split into three or four numbers carry no usable
// review data and yield (0, 0). A rating above 5 is implausible and also
// yields (0, 0).
func (n *Normalizer) NormalizeReview(text string, present bool, currency string) (float64, int, error) {
	if !present {
		return 0, 0, nil
	}

	numbers := reviewNumberPattern.FindAllString(text, -1)
	pos := n.locales.Lookup(currency).StarsPosition
	if pos < 0 || pos > 1 {
		pos = 0
	}

	var starsText, countText string
	switch len(numbers) {
	case 3:
		starsText, countText = numbers[pos], numbers[2]
	case 4:
		// "30 047" is split in two by a no-break space.
		starsText, countText = numbers[pos], numbers[2]+numbers[3]
	default:
		return 0, 0, nil
	}

	stars, err := strconv.ParseFloat(strings.ReplaceAll(starsText, ",", "."), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: rating %q", ErrParse, starsText)
	}

	if stars > maxStars {
		return 0, 0, nil
	}

	count, err := strconv.Atoi(groupingReplacer.Replace(countText))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: review count %q", ErrParse, countText)
	}

	return stars, count, nil
}
