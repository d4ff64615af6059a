package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(rank int, name string) models.RankedRecord {
	return models.RankedRecord{
		ScoredRecord: models.ScoredRecord{
			ProductRecord: models.ProductRecord{Name: name, Stars: 4.5, ReviewCount: 12, DiscountedPrice: 9.99, OriginalPrice: 12.99, Currency: "€"},
		},
		CustomizedScore: 55.5,
		Rank:            rank,
		Total:           3,
	}
}

func TestPrintTableAlignsWideNames(t *testing.T) {
	var buf bytes.Buffer
	ranked := []models.RankedRecord{
		row(1, "Taza de cerámica"),
		row(2, "マグカップ 大容量 電子レンジ対応 食洗機対応 おしゃれ 北欧 ギフト"),
		row(3, "Tetera"),
	}

	printTable(&buf, ranked, "€", 0)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Price €")

	width := runewidth.StringWidth(lines[2])
	for _, l := range lines[3:] {
		assert.Equal(t, width, runewidth.StringWidth(l))
	}
	assert.Contains(t, lines[3], "…")
}

func TestPrintTableTop(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []models.RankedRecord{row(1, "a"), row(2, "b"), row(3, "c")}, "€", 2)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &search.Summary{Term: "taza", Region: "es", Pages: 20, Elapsed: 1500 * time.Millisecond, Scraped: 300, Final: 280, Duplicates: 20, Truncated: true})

	out := buf.String()
	assert.Contains(t, out, `"taza" on amazon.es: 20 pages in 1.5s`)
	assert.Contains(t, out, "final 280")
	assert.Contains(t, out, "page limit reached")
}
