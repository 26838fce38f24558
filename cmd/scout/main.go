package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/scoutlabs/brandscout/internal/archive"
	"github.com/scoutlabs/brandscout/internal/config"
	"github.com/scoutlabs/brandscout/internal/discovery"
	"github.com/scoutlabs/brandscout/internal/extraction"
	"github.com/scoutlabs/brandscout/internal/fetch"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/notifications"
	"github.com/scoutlabs/brandscout/internal/pipeline"
	"github.com/scoutlabs/brandscout/internal/scheduler"
	"github.com/scoutlabs/brandscout/internal/scoring"
	"github.com/scoutlabs/brandscout/internal/server"
	"github.com/scoutlabs/brandscout/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting brandscout")

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db); err != nil {
		logrus.Fatalf("Failed to prepare database schema: %v", err)
	}

	cacheStore := store.NewPostgresCacheStore(db)
	rateStore := store.NewPostgresRateLimitStore(db)

	var archiver archive.Archiver = archive.NoopArchiver{}
	if cfg.StorageAccount != "" {
		azureArchiver, err := archive.NewAzureArchiver(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize archival storage: %v", err)
		}
		archiver = azureArchiver
	} else {
		logrus.Info("No storage account configured, run archival disabled")
	}

	lists := discovery.DefaultFallbackLists()
	if cfg.FallbackCreatorsFile != "" {
		lists, err = discovery.LoadFallbackLists(cfg.FallbackCreatorsFile)
		if err != nil {
			logrus.Fatalf("Failed to load fallback creators from %s: %v", cfg.FallbackCreatorsFile, err)
		}
	}

	var scorer scoring.Scorer
	var nicher scoring.NicheDetector
	if cfg.GeminiAPIKey != "" {
		gemini, err := scoring.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logrus.Fatalf("Failed to initialize scorer: %v", err)
		}
		defer gemini.Close()
		scorer = gemini
		nicher = gemini
	} else {
		logrus.Warn("No Gemini API key configured, similarity scoring degraded to neutral scores")
	}

	fetchers := make(map[models.Platform]fetch.Fetcher)
	if cfg.ApifyToken != "" {
		fetchers[models.PlatformInstagram] = fetch.NewInstagramFetcher(cfg.ApifyToken)
		fetchers[models.PlatformTikTok] = fetch.NewTikTokFetcher(cfg.ApifyToken)
	} else {
		logrus.Warn("No Apify token configured, Instagram and TikTok disabled")
	}
	if cfg.YouTubeAPIKey != "" {
		fetchers[models.PlatformYouTube] = fetch.NewYouTubeFetcher(cfg.YouTubeAPIKey)
	} else {
		logrus.Warn("No YouTube API key configured, YouTube disabled")
	}
	if len(fetchers) == 0 {
		logrus.Fatal("No platform credentials configured, nothing to serve")
	}

	discoverers := make(map[models.Platform]*discovery.Service)
	extractors := make(map[models.Platform]*extraction.Service)
	for platform, fetcher := range fetchers {
		rules := pipeline.RulesFor(platform, cfg.MinDistinctCreators)
		discoverers[platform] = discovery.NewService(fetcher, lists, cfg.MinFollowers, cfg.DefaultNiche)
		extractors[platform] = extraction.NewService(fetcher, cfg.ExtractionConcurrency, rules.PostsPerCreator)
	}

	pipelineService := pipeline.NewService(pipeline.Dependencies{
		Fetchers:    fetchers,
		Discoverers: discoverers,
		Extractors:  extractors,
		Scorer:      scorer,
		Nicher:      nicher,
		Cache:       cacheStore,
		Rates:       rateStore,
		Archiver:    archiver,
	}, pipeline.Settings{
		FallbackScore:       cfg.FallbackScore,
		NeutralScore:        cfg.NeutralScore,
		ScoringBatchSize:    cfg.ScoringBatchSize,
		MinDistinctCreators: cfg.MinDistinctCreators,
		CacheTTL:            cfg.CacheTTL,
		RateLimit:           cfg.RateLimitPerHour,
		RateWindow:          cfg.RateLimitWindow,
		DefaultNiche:        cfg.DefaultNiche,
	})

	notificationService := notifications.NewService(cfg)
	schedulerService := scheduler.NewService(cfg, pipelineService, cacheStore, notificationService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      server.New(pipelineService).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // discovery runs fan out to external APIs
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
