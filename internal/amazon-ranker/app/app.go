// Package app wires configuration into the scraping pipeline and the result
// stores shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/events"
	"github.com/maltedev/amazon-search-ranker/internal/browser"
	"github.com/maltedev/amazon-search-ranker/internal/cache"
	"github.com/maltedev/amazon-search-ranker/internal/config"
	"github.com/maltedev/amazon-search-ranker/internal/database"
	"github.com/maltedev/amazon-search-ranker/internal/locale"
	"github.com/maltedev/amazon-search-ranker/internal/parser"
	"github.com/maltedev/amazon-search-ranker/internal/ratelimit"
	"github.com/maltedev/amazon-search-ranker/internal/scraper"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Pipeline owns the browser behind a Driver.
type Pipeline struct {
	Driver  *scraper.Driver
	browser *browser.Browser
	fetcher *scraper.BrowserFetcher
}

func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	locales, err := LoadLocales(cfg)
	if err != nil {
		return nil, err
	}

	b, err := browser.New(cfg.BrowserOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	fetcher := scraper.NewBrowserFetcher(b, NewLimiter(cfg), logger)

	return &Pipeline{
		Driver:  NewDriver(cfg, fetcher, locales, logger),
		browser: b,
		fetcher: fetcher,
	}, nil
}

func (p *Pipeline) Close() error {
	if err := p.fetcher.Close(); err != nil {
		return err
	}
	return p.browser.Close()
}

// NewDriver assembles the parser chain on top of fetcher.
func NewDriver(cfg *config.Config, fetcher scraper.PageFetcher, locales *locale.Table, logger *slog.Logger) *scraper.Driver {
	selectors := parser.DefaultSelectors()
	extractor := parser.NewExtractor(parser.NewNormalizer(locales), selectors, logger)
	collector := parser.NewCollector(extractor, selectors, logger)
	return scraper.NewDriver(fetcher, collector, cfg.Scraper.MaxPages, logger)
}

func NewLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.Scraper.Adaptive {
		return ratelimit.NewAdaptiveLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	}
	return ratelimit.NewSimpleLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
}

// LoadLocales returns the configured locale table or the built-in one.
func LoadLocales(cfg *config.Config) (*locale.Table, error) {
	if cfg.Locale.File == "" {
		return locale.DefaultTable(), nil
	}
	return locale.LoadFile(cfg.Locale.File)
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// NewStore opens the configured result store. The returned func releases its
// connections.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		db, err := database.New(ctx, cfg.DatabaseConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := database.NewResultStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	case config.StorageRedis:
		client := NewRedisClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		store := cache.NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL, logger)
		return store, func() { client.Close() }, nil

	default:
		store, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// NewPublisher returns nil when no event stream is configured.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*events.Publisher, func(), error) {
	if cfg.Redis.Stream == "" {
		return nil, func() {}, nil
	}

	client := NewRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return events.NewPublisher(client, cfg.Redis.Stream, logger), func() { client.Close() }, nil
}
