// Package control wires the pipeline stages together and manages the
// application lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/zainulabidin776/apodflow/internal/core/config"
	"github.com/zainulabidin776/apodflow/internal/extract"
	"github.com/zainulabidin776/apodflow/internal/health"
	redisclient "github.com/zainulabidin776/apodflow/internal/infra/redis"
	"github.com/zainulabidin776/apodflow/internal/infra/storage/csvfile"
	"github.com/zainulabidin776/apodflow/internal/infra/storage/postgres"
	"github.com/zainulabidin776/apodflow/internal/load"
	"github.com/zainulabidin776/apodflow/internal/pipeline"
	"github.com/zainulabidin776/apodflow/internal/transform"
	"github.com/zainulabidin776/apodflow/internal/versioning"
)

// App is the assembled pipeline application.
type App struct {
	cfg          *config.AppConfig
	db           *postgres.DB
	cache        *redisclient.Cache
	scheduler    *pipeline.Scheduler
	runner       *pipeline.Runner
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp builds the application from configuration: database plus
// migrations, the CSV history store, the optional Redis cache, and every
// pipeline stage in between.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db.DB.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	dataFile := filepath.Join(cfg.Pipeline.DataDir, cfg.Pipeline.CSVFile)
	history := csvfile.NewStore(dataFile)
	records := postgres.NewRecordRepo(db)

	// Redis is an optional fallback tier; the pipeline runs without it.
	var cache *redisclient.Cache
	if cfg.Redis.URL != "" {
		cache, err = redisclient.NewCache(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, cached-record fallback disabled", "error", err)
			cache = nil
		}
	}

	client := extract.NewClient(cfg.NASA.Endpoint, cfg.NASA.APIKey, cfg.NASA.Timeout)
	retryCfg := extract.RetryConfig{
		MaxAttempts:     cfg.NASA.MaxRetries,
		InitialDelay:    cfg.NASA.BaseBackoff,
		MaxDelay:        cfg.NASA.MaxBackoff,
		BackoffMultiple: extract.DefaultRetryConfig.BackoffMultiple,
	}
	fallbacks := []extract.Resolver{}
	if cache != nil {
		fallbacks = append(fallbacks, extract.NewCacheResolver(cache))
	}
	fallbacks = append(fallbacks,
		extract.NewHistoryResolver(history),
		extract.NewPlaceholderResolver(),
	)
	coordinator := extract.NewCoordinator(client, retryCfg, fallbacks...)

	probe := versioning.NewProbe(cfg.Versioning.DVCBinary)
	versioner := versioning.NewVersioner(
		probe,
		versioning.NewToolProducer(cfg.Versioning),
		versioning.NewSimulatedProducer(),
	)

	deps := pipeline.Deps{
		Extractor:  coordinator,
		Normalizer: transform.NewNormalizer(),
		Writer:     load.NewDualSinkWriter(records, history),
		Verifier:   load.NewVerificationGate(records, history),
		Versioner:  versioner,
		Reconciler: versioning.NewReconciler(cfg.Pipeline.DataDir, cfg.Versioning),
		Publisher:  versioning.NewPublisher(cfg.Pipeline.DataDir, cfg.Versioning),
	}
	if cache != nil {
		deps.Cache = cache
	}

	runner := pipeline.NewRunner(deps, dataFile, cfg.Versioning.Branch)
	scheduler := pipeline.NewScheduler(runner, cfg.Pipeline.RunInterval, cfg.Pipeline.RunOnStartup)

	staleAfter := 2 * cfg.Pipeline.RunInterval
	monitor := health.NewMonitor(db, history, staleAfter)
	healthServer := health.NewServer(monitor, cfg.Server.Port)

	return &App{
		cfg:          cfg,
		db:           db,
		cache:        cache,
		scheduler:    scheduler,
		runner:       runner,
		healthServer: healthServer,
		log:          log,
	}, nil
}

// Start launches the health server and the scheduler loop. It returns
// once both are running.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	a.db.StartMetricsCollector(ctx)

	go func() {
		if err := a.scheduler.Start(ctx); err != nil {
			a.log.Error("Scheduler failed", "error", err)
		}
	}()

	a.log.Info("Pipeline started",
		"interval", a.cfg.Pipeline.RunInterval,
		"data_dir", a.cfg.Pipeline.DataDir,
		"port", a.cfg.Server.Port)
	return nil
}

// RunOnce executes a single pipeline pass, for one-shot invocations.
func (a *App) RunOnce(ctx context.Context) error {
	return a.runner.RunOnce(ctx)
}

// Stop shuts the application down gracefully.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping pipeline...")
	a.scheduler.Stop()

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
	return a.healthServer.Stop(ctx)
}
