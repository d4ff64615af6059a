package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/api"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/app"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/jobs"
	"github.com/maltedev/amazon-search-ranker/internal/amazon-ranker/search"
	"github.com/maltedev/amazon-search-ranker/internal/config"
	"github.com/maltedev/amazon-search-ranker/internal/logging"
	"github.com/maltedev/amazon-search-ranker/internal/queue"
	"github.com/maltedev/amazon-search-ranker/internal/session"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := app.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open result store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	publisher, closePublisher, err := app.NewPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize event publisher", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scraper", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	sess := session.New(store)

	var searchPublisher search.Publisher
	if publisher != nil {
		searchPublisher = publisher
	}
	searchService := search.NewService(pipeline.Driver, sess, searchPublisher, cfg.Scraper.Region, logger)

	q := queue.NewInMemoryQueue(cfg.Server.QueueSize)
	jobManager := jobs.NewManager(q, searchService, logger)

	// Start job worker
	go jobManager.StartWorker(ctx)

	handlers := api.NewHandlers(jobManager, sess, cfg.Ranking.Weights, cfg.Order(), logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handlers, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		q.Close()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting",
		"addr", server.Addr,
		"region", cfg.Scraper.Region,
		"storage", cfg.Storage.Backend)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
