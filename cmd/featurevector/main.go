// Command featurevector prints the model input for one fixture, built
// from the latest team form snapshots.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"matchform/pipeline/internal/cache"
	"matchform/pipeline/internal/config"
	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/repository"
	"matchform/pipeline/internal/tables"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	home := flag.String("home", "", "home team name")
	away := flag.String("away", "", "away team name")
	flag.Parse()

	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	if *home == "" || *away == "" {
		log.Error().Msg("Both -home and -away are required")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	var sources []snapshotSource
	if cfg.RedisEnabled {
		c, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - skipping cache")
		} else {
			defer c.Close()
			sources = append(sources, cacheSource{c: c})
		}
	}

	if cfg.DatabaseEnabled {
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to database - skipping")
		} else {
			defer db.Close()
			sources = append(sources, databaseSource{db: db})
		}
	}

	snaps, err := tables.ReadTeamsFile(cfg.TeamPath())
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.TeamPath()).Msg("Team table unavailable")
	} else {
		sources = append(sources, &fileSource{index: features.IndexSnapshots(snaps)})
	}

	vec, err := buildVector(ctx, sources, *home, *away)
	if err != nil {
		var short *features.InsufficientHistoryError
		switch {
		case errors.As(err, &short):
			log.Error().Err(err).Msg("Team has too little history for a prediction")
		case errors.Is(err, features.ErrUnknownTeam):
			log.Error().Err(err).Msg("Team not found in any snapshot source")
		default:
			log.Error().Err(err).Msg("Failed to build feature vector")
		}
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vec); err != nil {
		log.Error().Err(err).Msg("Failed to write feature vector")
		return 1
	}
	return 0
}
