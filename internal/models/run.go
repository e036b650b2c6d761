package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun records one execution of the feature pipeline
type PipelineRun struct {
	ID           uuid.UUID      `db:"id"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
	Status       string         `db:"status"`
	InputRows    int            `db:"input_rows"`
	DroppedRows  int            `db:"dropped_rows"`
	TrainingRows int            `db:"training_rows"`
	Teams        int            `db:"teams"`
	Error        sql.NullString `db:"error"`
}

// NewPipelineRun starts a run record with a fresh id
func NewPipelineRun() *PipelineRun {
	return &PipelineRun{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Status:    RunStatusRunning,
	}
}

// Finish marks the run as finished with the outcome of err
func (r *PipelineRun) Finish(err error) {
	r.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = sql.NullString{String: err.Error(), Valid: true}
		return
	}
	r.Status = RunStatusSucceeded
}
