// Package main is the entry point for the Finboard chart generation service.
// It turns natural-language prompts into chart-ready slices of upstream
// financial metrics, with an optional LLM translator in front of the
// keyword-matching fallback.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/finboard/finboard/internal/clientdata"
	"github.com/finboard/finboard/internal/clients/iris"
	"github.com/finboard/finboard/internal/clients/openai"
	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/database"
	"github.com/finboard/finboard/internal/events"
	"github.com/finboard/finboard/internal/modules/analysis"
	"github.com/finboard/finboard/internal/modules/audit"
	"github.com/finboard/finboard/internal/modules/dashboard"
	"github.com/finboard/finboard/internal/modules/metrics"
	"github.com/finboard/finboard/internal/scheduler"
	"github.com/finboard/finboard/internal/server"
	"github.com/finboard/finboard/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Finboard")

	// Two databases with different durability profiles: the audit trail is
	// append-only and fsynced, the cache is disposable.
	auditDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "audit.db"),
		Profile: database.ProfileAudit,
		Name:    "audit",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open audit database")
	}
	defer auditDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := auditDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate audit database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// Wire services bottom-up: upstream client, cache, analyzer, slicer,
	// translator, dashboard generator.
	cacheRepo := clientdata.NewRepository(cacheDB.Conn(), cfg.CacheTTL)
	irisClient := iris.NewClient(cfg.IrisAPIURL, cfg.IrisAPIToken, log)
	analyzer := analysis.NewService(log)
	metricsService := metrics.NewService(irisClient, cacheRepo, analyzer, cfg.CacheTTL, log)

	translator := openai.NewClient("", cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	if translator.Configured() {
		log.Info().Str("model", cfg.OpenAIModel).Msg("OpenAI translator configured")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, using keyword matching for chart requests")
	}

	dashboardService := dashboard.NewService(translator, metricsService, log)
	auditRepo := audit.NewRepository(auditDB.Conn(), log)
	bus := events.NewBus(log)

	// Hourly cache cleanup keeps the cache database from growing unbounded.
	sched := scheduler.New(log)
	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)
	if err := sched.AddJob("@hourly", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:        log,
		Config:     cfg,
		Metrics:    metricsService,
		Dashboard:  dashboardService,
		Translator: translator,
		Audit:      auditRepo,
		Bus:        bus,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
