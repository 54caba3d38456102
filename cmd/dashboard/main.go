package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/auth"
	"github.com/AliAon/FixFixnanz-sub000/internal/cache"
	"github.com/AliAon/FixFixnanz-sub000/internal/config"
	"github.com/AliAon/FixFixnanz-sub000/internal/crmapi"
	"github.com/AliAon/FixFixnanz-sub000/internal/http/handler"
	"github.com/AliAon/FixFixnanz-sub000/internal/http/middleware"
	"github.com/AliAon/FixFixnanz-sub000/internal/http/router"
	"github.com/AliAon/FixFixnanz-sub000/internal/importer"
	"github.com/AliAon/FixFixnanz-sub000/internal/jobs"
	"github.com/AliAon/FixFixnanz-sub000/internal/logger"
	"github.com/AliAon/FixFixnanz-sub000/internal/notify"
	"github.com/AliAon/FixFixnanz-sub000/internal/storage"
	"github.com/AliAon/FixFixnanz-sub000/internal/store"
	"github.com/AliAon/FixFixnanz-sub000/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Remote API client
	tokens := auth.NewTokenSource(cfg.API.Token, log)
	if tokens.ExpiresWithin(24 * time.Hour) {
		log.Warn("remote API token expires within 24 hours")
	}
	apiClient, err := crmapi.NewClient(&cfg.API, tokens, log)
	if err != nil {
		return fmt.Errorf("failed to create remote API client: %w", err)
	}

	// Import archive
	archive, err := storage.NewArchive(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize import archive: %w", err)
	}
	log.Info("Import archive initialized", zap.String("mode", cfg.Storage.Mode))

	// Stores and sync layer
	feed := notify.NewFeed(log)
	pipelines := store.NewPipelineStore(apiClient, log)
	stages := store.NewStageStore(apiClient, log)
	contacts := store.NewContactStore(apiClient, log)
	counts := sync.NewCountAggregator(apiClient, log)
	controller := sync.NewController(
		cfg.API.ConsultantID,
		pipelines,
		stages,
		contacts,
		counts,
		apiClient,
		feed,
		log,
	)

	// Warm-start snapshot cache (optional)
	var snapshot *cache.Snapshot
	if cfg.Snapshot.Enabled {
		snapshot, err = cache.Open(cfg.Snapshot.Path, log)
		if err != nil {
			log.Warn("snapshot cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer snapshot.Close()
			if cached, err := snapshot.LoadAll(); err != nil {
				log.Warn("failed to load pipeline snapshot", zap.Error(err))
			} else if len(cached) > 0 {
				controller.SeedPipelines(cached)
				log.Info("pipeline list warmed from snapshot",
					zap.Int("pipelines", len(cached)))
			}
		}
	}

	imp := importer.New(apiClient, archive, feed, log, cfg.Storage.MaxUploadSizeMB)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Refresh.Enabled {
		scheduler = jobs.NewScheduler(log)

		refreshJob := jobs.NewCountRefreshJob(controller, log, 0)
		if err := scheduler.AddJob(jobs.CountRefreshJobName, cfg.Refresh.CronExpr, refreshJob.Run); err != nil {
			return fmt.Errorf("failed to schedule count refresh: %w", err)
		}

		if snapshot != nil {
			snapshotJob := jobs.NewSnapshotJob(controller, snapshot, log)
			if err := scheduler.AddJob(jobs.SnapshotJobName, "@every 10m", snapshotJob.Run); err != nil {
				return fmt.Errorf("failed to schedule snapshot job: %w", err)
			}
		}

		scheduler.Start()
	}

	// HTTP facade
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	rt := router.NewRouter(
		cfg,
		log,
		apiClient,
		rateLimiter,
		handler.NewDashboardHandler(controller, log),
		handler.NewPipelineHandler(pipelines, log),
		handler.NewStageHandler(stages, log),
		handler.NewContactHandler(controller, log),
		handler.NewImportHandler(imp, controller, cfg.Storage.MaxUploadSizeMB, log),
		handler.NewTransferHandler(controller, log),
		handler.NewNotificationHandler(feed, log),
		handler.NewAppointmentHandler(apiClient, cfg.API.ConsultantID, log),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Persist the pipeline list one last time before exit.
		if snapshot != nil {
			if current := controller.PipelineSnapshot(); len(current) > 0 {
				if err := snapshot.SaveAll(current); err != nil {
					log.Warn("failed to persist final snapshot", zap.Error(err))
				}
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
