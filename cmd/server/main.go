// Package main is the entry point for the hedging analytics server.
//
// The server exposes the analysis engine over HTTP and WebSocket, keeps a
// small SQLite cache of pushed futures quotes and runs its maintenance jobs
// on a cron scheduler.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aristath/hedger/internal/clientdata"
	"github.com/aristath/hedger/internal/config"
	"github.com/aristath/hedger/internal/database"
	"github.com/aristath/hedger/internal/modules/hedging"
	"github.com/aristath/hedger/internal/scheduler"
	"github.com/aristath/hedger/internal/server"
	"github.com/aristath/hedger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting hedger")

	tables, err := cfg.ReferenceTables()
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ReferenceFile).Msg("Failed to load reference tables")
	}
	log.Info().
		Int("betas", len(tables.Betas.Nasdaq)+len(tables.Betas.SP500)).
		Int("contracts", len(tables.Futures.Contracts)).
		Str("source", referenceSource(cfg)).
		Msg("Reference tables loaded")

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo := clientdata.NewRepository(cacheDB.Conn())
	quotes := clientdata.NewQuoteCache(repo, cfg.QuoteTTL, log)
	service := hedging.NewService(hedging.NewEngine(tables), hedging.NewMetrics(registry), log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.CleanupSchedule, clientdata.NewCleanupJob(repo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	if err := sched.AddJob("0 0 * * * *", database.NewCheckpointJob(cacheDB, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:      log,
		CacheDB:  cacheDB,
		Service:  service,
		Quotes:   quotes,
		Gatherer: registry,
		Jobs:     sched,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sched.Stop()

	log.Info().Msg("Server stopped")
}

func referenceSource(cfg *config.Config) string {
	if cfg.ReferenceFile != "" {
		return cfg.ReferenceFile
	}
	return "embedded"
}
