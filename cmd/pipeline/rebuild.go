package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchform/pipeline/internal/cache"
	"matchform/pipeline/internal/config"
	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/metrics"
	"matchform/pipeline/internal/models"
	"matchform/pipeline/internal/repository"
	"matchform/pipeline/internal/tables"

	"github.com/rs/zerolog/log"
)

// rebuilder runs the feature pipeline end to end. db and cache are
// optional.
type rebuilder struct {
	cfg   *config.Config
	db    *repository.Database
	cache *cache.RedisCache
}

func (r *rebuilder) options() features.Options {
	return features.Options{
		Window: features.RollingWindow{
			Size:       r.cfg.RollingWindow,
			MinPeriods: r.cfg.RollingMinPeriods,
		},
		Normalize: features.NormalizeOptions{StrictCategories: r.cfg.StrictCategories},
		Workers:   r.cfg.Workers,
	}
}

// Run rebuilds every output table and records the run
func (r *rebuilder) Run(ctx context.Context) error {
	start := time.Now()
	run := models.NewPipelineRun()
	if r.db != nil {
		if err := r.db.Runs.Create(ctx, run); err != nil {
			log.Warn().Err(err).Msg("Failed to record pipeline run start")
		}
	}

	result, err := r.rebuild(ctx)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		metrics.RecordError("pipeline", errorType(err))
	}
	metrics.RecordRun(status, time.Since(start).Seconds())

	run.Finish(err)
	if result != nil {
		run.InputRows = result.Report.InputRows
		run.DroppedRows = result.Report.Dropped.Total()
		run.TrainingRows = len(result.TrainingRows)
		run.Teams = len(result.Snapshots)
	}
	if r.db != nil {
		if ferr := r.db.Runs.Finish(ctx, run); ferr != nil {
			log.Warn().Err(ferr).Msg("Failed to record pipeline run outcome")
		}
	}

	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", run.ID.String()).
		Int("training_rows", run.TrainingRows).
		Int("teams", run.Teams).
		Int("dropped", run.DroppedRows).
		Dur("duration", time.Since(start)).
		Msg("Pipeline run succeeded")
	return nil
}

func (r *rebuilder) rebuild(ctx context.Context) (*features.Result, error) {
	entries, err := r.loadTeamCodes(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := features.NewTeamCodes(entries)
	if err != nil {
		return nil, fmt.Errorf("invalid team code table: %w", err)
	}

	raws, err := r.loadMatches(ctx)
	if err != nil {
		return nil, err
	}

	result, err := features.Run(ctx, raws, codes, r.options())
	if err != nil {
		return nil, err
	}
	metrics.RecordDrops(result.Report.Dropped)

	rendered, err := tables.Render(result)
	if err != nil {
		return nil, fmt.Errorf("failed to render tables: %w", err)
	}

	if r.db != nil {
		if err := r.db.SaveResult(ctx, result); err != nil {
			return result, fmt.Errorf("failed to save pipeline result: %w", err)
		}
	}

	err = tables.Publish(
		tables.File{Path: r.cfg.TrainingPath(), Data: rendered.Training},
		tables.File{Path: r.cfg.TeamPath(), Data: rendered.Teams},
		tables.File{Path: r.cfg.TeamCodesPath(), Data: rendered.TeamCodes},
	)
	if err != nil {
		return result, fmt.Errorf("failed to publish tables: %w", err)
	}
	metrics.UpdateOutputStats(len(result.TrainingRows), len(result.Snapshots))

	if r.cache != nil {
		if err := r.cache.SetSnapshots(ctx, result.Snapshots); err != nil {
			log.Warn().Err(err).Msg("Failed to cache team snapshots")
		}
		if err := r.cache.SetTeamCodes(ctx, result.Codes.Entries()); err != nil {
			log.Warn().Err(err).Msg("Failed to cache team codes")
		}
	}

	return result, nil
}

// loadTeamCodes prefers the database table and falls back to the file
func (r *rebuilder) loadTeamCodes(ctx context.Context) ([]models.TeamCode, error) {
	if r.db != nil {
		codes, err := r.db.Teams.ListCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load team codes: %w", err)
		}
		if len(codes) > 0 {
			log.Debug().Int("count", len(codes)).Msg("Team codes loaded from database")
			return codes, nil
		}
	}

	codes, err := tables.LoadTeamCodesFile(r.cfg.TeamCodesPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load team codes: %w", err)
	}
	log.Debug().Int("count", len(codes)).Str("path", r.cfg.TeamCodesPath()).Msg("Team codes loaded from file")
	return codes, nil
}

func (r *rebuilder) loadMatches(ctx context.Context) ([]models.RawMatch, error) {
	if r.cfg.ReadsFromDatabase() {
		if r.db == nil {
			return nil, errors.New("database input selected but no database is connected")
		}
		raws, err := r.db.Matches.ListRaw(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load match records: %w", err)
		}
		return raws, nil
	}

	raws, err := tables.ReadMatchesFile(r.cfg.InputPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load match records: %w", err)
	}
	return raws, nil
}

// errorType labels a failed run for the error counter
func errorType(err error) string {
	var unknown *features.UnknownCategoryError
	switch {
	case errors.Is(err, features.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, tables.ErrMissingColumn):
		return "missing_column"
	case errors.As(err, &unknown):
		return "unknown_category"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
