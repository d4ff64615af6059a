package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/maltedev/amazon-search-ranker/internal/config"
	"github.com/maltedev/amazon-search-ranker/internal/locale"
	"github.com/maltedev/amazon-search-ranker/internal/ratelimit"
	"github.com/maltedev/amazon-search-ranker/internal/scraper"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  dir: "+filepath.Join(t.TempDir(), "results")+"\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

type staticFetcher map[string]string

func (f staticFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	return f[url], nil
}

func TestLoadLocales(t *testing.T) {
	cfg := testConfig(t)

	table, err := LoadLocales(cfg)
	require.NoError(t, err)
	assert.True(t, table.Lookup("€").CommaDecimal())

	path := filepath.Join(t.TempDir(), "locales.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conventions:\n  - currency: CHF\n    decimal_separator: \".\"\n"), 0644))
	cfg.Locale.File = path

	table, err = LoadLocales(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, locale.DefaultConvention, table.Lookup("€"))
}

func TestNewLimiter(t *testing.T) {
	cfg := testConfig(t)

	_, adaptive := NewLimiter(cfg).(*ratelimit.AdaptiveLimiter)
	assert.True(t, adaptive)

	cfg.Scraper.Adaptive = false
	_, simple := NewLimiter(cfg).(*ratelimit.SimpleLimiter)
	assert.True(t, simple)
}

func TestNewStoreFileBackend(t *testing.T) {
	cfg := testConfig(t)

	store, closeStore, err := NewStore(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*storage.FileStore)
	assert.True(t, ok)
}

func TestNewPublisherDisabled(t *testing.T) {
	cfg := testConfig(t)

	publisher, closePublisher, err := NewPublisher(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer closePublisher()
	assert.Nil(t, publisher)
}

func TestNewDriverUsesLocales(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	html := `<div class="sg-col-inner">` +
		`<span data-component-type="s-product-image"><a href="/dp/x"><img src="https://m.media-amazon.com/x.jpg"></a></span>` +
		`<h2><a href="#"><span>Taza</span></a></h2>` +
		`<div data-cy="price-recipe"><span class="a-offscreen">1.299,00 €</span></div></div>`

	start := scraper.SearchURL("es", "taza")
	driver := NewDriver(cfg, staticFetcher{start: html}, locale.DefaultTable(), logger)

	result, err := driver.ScrapeAll(context.Background(), start, scraper.DomainURL("es"))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 1299.0, result.Records[0].OriginalPrice)
}
