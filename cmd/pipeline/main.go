// Command pipeline rebuilds the training table, the team table and the
// team code table from the collected match log. It runs once and exits,
// or keeps running on a cron schedule when ENABLE_SCHEDULER is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"matchform/pipeline/internal/cache"
	"matchform/pipeline/internal/config"
	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/metrics"
	"matchform/pipeline/internal/repository"
	"matchform/pipeline/internal/scheduler"
	"matchform/pipeline/internal/tables"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

// run wires the pipeline and returns the process exit code. Every
// client opened here is closed by a deferred call before main exits.
func run() int {
	importPath := flag.String("import", "", "copy a collector CSV into match_records and exit")
	flag.Parse()

	// Setup logger
	setupLogger()

	log.Info().Msg("Starting match feature pipeline")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("input_source", cfg.InputSource).
		Str("data_dir", cfg.DataDir).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Received shutdown signal, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var db *repository.Database
	if cfg.DatabaseEnabled {
		db, err = repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to database")
			return 1
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to migrate database")
			return 1
		}
		log.Info().Msg("Database connection established")
	}

	if *importPath != "" {
		if err := importMatches(ctx, db, *importPath); err != nil {
			log.Error().Err(err).Msg("Import failed")
			return 1
		}
		return 0
	}

	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      time.Duration(cfg.CacheTTLTeams) * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			log.Info().Msg("Redis cache connected")
		}
	}

	rb := &rebuilder{cfg: cfg, db: db, cache: redisCache}

	if !cfg.EnableScheduler {
		return runOnce(ctx, rb)
	}

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				if db != nil {
					db.PoolStats()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg.RebuildCron, rb.Run)
	if err := sched.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to start scheduler")
		return 1
	}

	// Initial build
	sched.Trigger(ctx)

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	sched.Stop()

	log.Info().Msg("Pipeline shutdown complete")
	return 0
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// runOnce performs a single rebuild and maps its outcome to an exit code
func runOnce(ctx context.Context, rb *rebuilder) int {
	err := rb.Run(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, features.ErrEmptyResult):
		log.Error().Err(err).Msg("No training rows could be built; nothing was published")
	case errors.Is(err, tables.ErrMissingColumn):
		log.Error().Err(err).Msg("Match log is missing a required column")
	default:
		log.Error().Err(err).Msg("Pipeline run failed")
	}
	return 1
}

// importMatches loads a collector CSV into match_records
func importMatches(ctx context.Context, db *repository.Database, path string) error {
	if db == nil {
		return errors.New("import requires DATABASE_ENABLED")
	}
	raws, err := tables.ReadMatchesFile(path)
	if err != nil {
		return err
	}
	n, err := db.Matches.Import(ctx, raws)
	if err != nil {
		return err
	}
	log.Info().Int64("rows", n).Str("path", path).Msg("Match log imported")
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
