package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phishscan/internal/api"
	"phishscan/internal/api/handlers"
	"phishscan/internal/config"
	"phishscan/internal/domain/services"
	"phishscan/internal/infrastructure/cache"
	"phishscan/internal/infrastructure/database"
	"phishscan/internal/infrastructure/database/repository"
	"phishscan/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting phishscan")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Load the frozen model artifact. A missing or inconsistent artifact
	// means every scan would fail, so refuse to start.
	artifact, err := services.LoadArtifact(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Model.ArtifactPath).Msg("failed to load model artifact")
	}
	scorer, err := services.NewModelScorer(artifact, log)
	if err != nil {
		log.Fatal().Err(err).Msg("model artifact is inconsistent")
	}
	log.Info().
		Str("version", artifact.Version).
		Int("features", len(artifact.FeatureNames)).
		Msg("model artifact loaded")

	// Load reference lists (legit domains, phishing feed)
	refs := services.LoadReferenceSets(ctx, services.RefDataConfig{
		LegitDomainsURL: cfg.RefData.LegitDomainsURL,
		PhishingFeedURL: cfg.RefData.PhishingFeedURL,
		FetchTimeout:    cfg.RefData.FetchTimeout,
	}, log)

	// WHOIS over RDAP, cached in Redis when available
	whoisOpts := []services.RDAPOption{
		services.WithWhoisTimeout(cfg.Scan.ProbeTimeout),
	}
	if redisCache != nil {
		whoisOpts = append(whoisOpts, services.WithWhoisCache(redisCache, cfg.Scan.WhoisTTL))
	}
	whois := services.NewRDAPWhoisClient(log, whoisOpts...)

	fetcher := services.NewFetcher(services.FetcherConfig{
		UserAgent:    cfg.Scan.UserAgent,
		FetchTimeout: cfg.Scan.FetchTimeout,
		ProbeTimeout: cfg.Scan.ProbeTimeout,
		MaxBodyBytes: cfg.Scan.MaxBodyBytes,
	}, whois, log)

	extractor := services.NewFeatureExtractor(scorer.FeatureNames(), refs, log)

	// Blocklist lookups need an API key; without one the probe is disabled
	var blocklist services.BlocklistClient
	if cfg.SafeBrowsing.APIKey != "" {
		blocklist = services.NewGoogleSafeBrowsingClient(services.SafeBrowsingConfig{
			APIKey: cfg.SafeBrowsing.APIKey,
			APIURL: cfg.SafeBrowsing.APIURL,
		}, log)
		log.Info().Msg("Safe Browsing blocklist enabled")
	} else {
		log.Warn().Msg("no Safe Browsing API key, blocklist probe disabled")
	}

	reputation := services.NewReputationChecker(services.ReputationConfig{
		MaxRedirects:  cfg.Scan.MaxRedirects,
		DomainAgeDays: cfg.Scan.DomainAgeDays,
		ProbeTimeout:  cfg.Scan.ProbeTimeout,
		BlocklistTTL:  cfg.Scan.BlocklistTTL,
	}, blocklist, redisCache, refs, log)

	// Repositories and the scan recorder
	var (
		detections *repository.DetectionRepository
		scanLogs   *repository.ScanLogRepository
		recorder   services.ScanRecorder
	)
	if db != nil {
		detections = repository.NewDetectionRepository(db.Pool())
		scanLogs = repository.NewScanLogRepository(db.Pool())
		recorder = services.NewPostgresScanRecorder(db, detections, scanLogs, log)
		log.Info().Msg("repositories initialized with database")
	} else {
		recorder = services.NewMemoryScanRecorder()
		log.Warn().Msg("running without database, scan records are kept in memory")
	}

	scanService := services.NewScanService(fetcher, extractor, scorer, reputation, recorder, refs, cfg.Scan.ScanBudget, log)
	smsAnalyzer := services.NewSMSAnalyzer(scanService, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		ScanService: scanService,
		SMSAnalyzer: smsAnalyzer,
		Detections:  detections,
		ScanLogs:    scanLogs,
		DB:          db,
		Cache:       redisCache,
		Logger:      log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections. Both are
// optional: the service degrades to in-memory records and uncached probes.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		db = nil
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}
