package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/app"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/config"
	"github.com/maltedev/amazon-search-ranker/internal/logging"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
	"github.com/maltedev/amazon-search-ranker/internal/render"
	"github.com/maltedev/amazon-search-ranker/internal/session"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		region     = flag.String("region", "", "Amazon storefront, e.g. es or de (default from config)")
		pages      = flag.Int("pages", -1, "Maximum number of result pages, 0 for all (default from config)")
		pop        = flag.Float64("pop", -1, "Popularity weight (default from config)")
		price      = flag.Float64("price", -1, "Price weight (default from config)")
		disc       = flag.Float64("disc", -1, "Discount weight (default from config)")
		order      = flag.String("order", "", "Sort order: asc or desc (default from config)")
		top        = flag.Int("top", 20, "Number of rows to print, 0 for all")
		htmlFile   = flag.String("html", "", "Also write the ranked cards to this HTML file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <search term>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	term := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if term == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *pages >= 0 {
		cfg.Scraper.MaxPages = *pages
	}

	weights := cfg.Ranking.Weights
	if *pop >= 0 {
		weights.Popularity = *pop
	}
	if *price >= 0 {
		weights.Price = *price
	}
	if *disc >= 0 {
		weights.Discount = *disc
	}

	sortOrder := cfg.Order()
	if *order != "" {
		if sortOrder, err = ranking.ParseOrder(*order); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	if err := weights.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, "text")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	store, closeStore, err := app.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scraper", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	sess := session.New(store)
	service := search.NewService(pipeline.Driver, sess, nil, cfg.Scraper.Region, logger)

	summary, err := service.Run(ctx, search.Request{Term: term, Region: *region})
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	_, ranked, err := sess.Rank(ctx, weights, sortOrder)
	if err != nil {
		logger.Error("failed to rank results", "error", err)
		os.Exit(1)
	}

	printSummary(os.Stdout, summary)
	if !weights.SumsToOne() {
		fmt.Fprintf(os.Stdout, "warning: weights sum to %.2f, not 1\n", weights.Sum())
	}
	printTable(os.Stdout, ranked, render.HeaderCurrency(ranked), *top)

	if *htmlFile != "" {
		f, err := os.Create(*htmlFile)
		if err != nil {
			logger.Error("failed to create HTML file", "error", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := render.HTML(f, render.NewPage(term, weights, sortOrder, ranked)); err != nil {
			logger.Error("failed to write HTML file", "error", err)
			os.Exit(1)
		}
		logger.Info("HTML written", "file", *htmlFile)
	}
}
