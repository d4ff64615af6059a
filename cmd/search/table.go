package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/mattn/go-runewidth"
)

const nameWidth = 48

func printSummary(w io.Writer, s *search.Summary) {
	fmt.Fprintf(w, "%q on amazon.%s: %d pages in %s\n", s.Term, s.Region, s.Pages, s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "scraped %d, skipped %d, unnamed %d, duplicates %d, out of range %d, final %d\n",
		s.Scraped, s.Skipped, s.Unnamed, s.Duplicates, s.OutOfRange, s.Final)
	if s.Truncated {
		fmt.Fprintln(w, "page limit reached, results are incomplete")
	}
}

// printTable writes one aligned row per product. Names are cut to a fixed
// display width so wide runes keep the columns straight.
func printTable(w io.Writer, ranked []models.RankedRecord, currency string, top int) {
	header := fmt.Sprintf("%4s  %s  %7s  %5s  %7s  %10s  %10s  %6s",
		"#", runewidth.FillRight("Name", nameWidth), "Score", "Stars", "Reviews",
		"Price "+currency, "Was", "Disc%")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(header)))

	for i, r := range ranked {
		if top > 0 && i >= top {
			break
		}
		name := runewidth.FillRight(runewidth.Truncate(r.Name, nameWidth, "…"), nameWidth)
		fmt.Fprintf(w, "%4d  %s  %7.2f  %5.1f  %7d  %10.2f  %10.2f  %6.2f\n",
			r.Rank, name, r.CustomizedScore, r.Stars, r.ReviewCount,
			r.DiscountedPrice, r.OriginalPrice, r.DiscountPercent)
	}
}
