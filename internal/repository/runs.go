package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// RunRepository records pipeline executions
type RunRepository struct {
	db *Database
}

// Create inserts a run record
func (r *RunRepository) Create(ctx context.Context, run *models.PipelineRun) (err error) {
	defer observe("insert", "pipeline_runs", time.Now(), &err)

	query := `
		INSERT INTO pipeline_runs (id, started_at, status)
		VALUES ($1, $2, $3)
	`

	if _, err = r.db.Pool.Exec(ctx, query, run.ID, run.StartedAt, run.Status); err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	log.Debug().Str("run_id", run.ID.String()).Msg("Pipeline run created")
	return nil
}

// Finish stores the outcome and counts of a run
func (r *RunRepository) Finish(ctx context.Context, run *models.PipelineRun) (err error) {
	defer observe("update", "pipeline_runs", time.Now(), &err)

	query := `
		UPDATE pipeline_runs SET
			finished_at = $2,
			status = $3,
			input_rows = $4,
			dropped_rows = $5,
			training_rows = $6,
			teams = $7,
			error = $8
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		run.ID, run.FinishedAt, run.Status,
		run.InputRows, run.DroppedRows, run.TrainingRows, run.Teams, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to finish pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pipeline run not found: id=%s", run.ID)
	}

	return nil
}

// Latest returns the most recently started run, or nil if there is none
func (r *RunRepository) Latest(ctx context.Context) (*models.PipelineRun, error) {
	query := `
		SELECT id, started_at, finished_at, status, input_rows, dropped_rows,
		       training_rows, teams, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	var run models.PipelineRun
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.InputRows, &run.DroppedRows, &run.TrainingRows, &run.Teams, &run.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest pipeline run: %w", err)
	}

	return &run, nil
}
