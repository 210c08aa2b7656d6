package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skybox-manifest/internal/domain/repository"
	"skybox-manifest/internal/infrastructure/config"
	"skybox-manifest/internal/infrastructure/persistence"
	"skybox-manifest/internal/infrastructure/router"
	"skybox-manifest/internal/interface/feed"
	"skybox-manifest/internal/interface/httpapi"
	loadRepo "skybox-manifest/internal/interface/repository"
	ingestUsecase "skybox-manifest/internal/usecase"
	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/manifest"
	"skybox-manifest/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

// storageGrace covers the writes of a cycle whose fetch already finished
const storageGrace = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Skybox manifest service", "version", cfg.AppVersion, "dzId", cfg.DZID)

	loc, ok := cfg.Location()
	if !ok {
		log.Warn("Unknown feed timezone, using UTC", "timezone", cfg.FeedTimezone)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("skybox", prometheus.DefaultRegisterer)

	// Set up relational store
	log.Info("Connecting to database", "driver", cfg.DBDriver)
	gormDB, err := persistence.ConnectDatabase(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}

	loadRepository := loadRepo.NewGormLoadRepository(gormDB)
	purged, err := loadRepository.Migrate(ctx)
	if err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}
	if purged > 0 {
		log.Info("Purged invalid loads", "count", purged)
	}

	// Set up optional MongoDB snapshot archive
	var snapshotRepository repository.SnapshotRepository = loadRepo.NoopSnapshotRepository{}
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		client, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		mongoClient = client

		snapshots, err := loadRepo.NewMongoSnapshotRepository(ctx, db)
		if err != nil {
			log.Fatal("Failed to set up snapshot archive", "error", err)
		}
		snapshotRepository = snapshots
	}

	// Pick the feed strategy
	strategies := router.NewStrategyRouter(log)
	strategies.Register(manifest.NewJSONStrategy())
	strategies.Register(manifest.NewHTMLStrategy())

	strategy := strategies.GetStrategy(cfg.FeedVersion)
	if strategy == nil {
		log.Fatal("Unknown feed version", "feedVersion", cfg.FeedVersion, "supported", strategies.Versions())
	}

	fetcher, err := feed.NewFetcher(feed.FetcherOptions{
		Target: manifest.Target{
			BaseURL:   cfg.FeedBaseURL,
			DZID:      cfg.DZID,
			UserAgent: cfg.UserAgent,
		},
		Strategy:   strategy,
		Timeout:    cfg.FetchTimeout,
		RequestRPS: cfg.RequestRPS,
		Location:   loc,
		Logger:     log,
		Metrics:    m,
	})
	if err != nil {
		log.Fatal("Failed to create feed fetcher", "error", err)
	}

	ingestor := ingestUsecase.NewLoadIngestor(
		fetcher,
		manifest.NewParser(strategy),
		loadRepository,
		snapshotRepository,
		cfg.DZID,
		strategy.Version(),
		time.Duration(cfg.SnapshotRetentionDays)*24*time.Hour,
		log,
		m,
	)

	scheduler := ingestUsecase.NewScheduler(ingestor, ingestUsecase.SchedulePolicy{
		Active:      cfg.ActiveInterval,
		Boost:       cfg.BoostInterval,
		Night:       cfg.NightInterval,
		BoostWindow: cfg.BoostWindow,
	}, ingestUsecase.SchedulerOptions{
		Location:  loc,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
	}, log, m)

	// Start polling in a goroutine
	scheduler.Start(ctx)

	// Set up HTTP server for metrics and the read API
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	httpapi.NewHandler(loadRepository, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Stop the scheduler after its current cycle

	// A cycle is bounded by the fetch timeout plus its storage writes.
	if !scheduler.Wait(cfg.FetchTimeout + storageGrace) {
		log.Warn("Scheduler did not stop before shutdown deadline")
	}

	if mongoClient != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	if err := persistence.CloseDatabase(gormDB); err != nil {
		log.Error("Database close error", "error", err)
	}

	log.Info("Skybox manifest service stopped")
}
