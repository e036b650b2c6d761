package features

import (
	"context"
	"fmt"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configures a pipeline run
type Options struct {
	Window    RollingWindow
	Normalize NormalizeOptions
	// Workers bounds how many team timelines are processed at once
	Workers int
}

// DefaultOptions returns the standard five/three window with four workers
func DefaultOptions() Options {
	return Options{
		Window:  DefaultRollingWindow(),
		Workers: 4,
	}
}

// Report summarizes a run
type Report struct {
	InputRows    int
	Records      int
	Teams        int
	NewTeamCodes int
	TrainingRows int
	Dropped      DropReport
	Duration     time.Duration
}

// Result holds both output tables and the team code table they were
// encoded with
type Result struct {
	TrainingRows []models.TrainingRow
	Snapshots    []models.TeamFormSnapshot
	Codes        *TeamCodes
	Report       Report
}

type teamOutput struct {
	features []FeatureRecord
	snapshot models.TeamFormSnapshot
}

// Run turns raw collector rows into the training table and the team
// table. codes is the persisted team code table, possibly empty; the
// result carries it extended with any new teams. A run that yields no
// training rows fails with ErrEmptyResult.
func Run(ctx context.Context, raws []models.RawMatch, codes *TeamCodes, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Window.Size < 1 || opts.Window.MinPeriods < 1 {
		return nil, fmt.Errorf("invalid rolling window %d/%d", opts.Window.Size, opts.Window.MinPeriods)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	records, resolved, drops, err := Normalize(raws, codes, opts.Normalize)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize match records: %w", err)
	}

	timelines := GroupByTeam(records)
	outputs := make([]teamOutput, len(timelines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, tl := range timelines {
		i, tl := i, tl
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outputs[i] = computeTeam(tl, opts.Window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute team features: %w", err)
	}

	var candidates []FeatureRecord
	snapshots := make([]models.TeamFormSnapshot, 0, len(outputs))
	for _, out := range outputs {
		candidates = append(candidates, out.features...)
		snapshots = append(snapshots, out.snapshot)
	}
	SortSnapshots(snapshots)

	rows, mergeDrops := MergeHomeAway(candidates)
	drops.Add(mergeDrops)

	report := Report{
		InputRows:    len(raws),
		Records:      len(records),
		Teams:        len(timelines),
		NewTeamCodes: resolved.Len() - codes.Len(),
		TrainingRows: len(rows),
		Dropped:      drops,
		Duration:     time.Since(start),
	}

	log.Info().
		Int("input_rows", report.InputRows).
		Int("records", report.Records).
		Int("teams", report.Teams).
		Int("training_rows", report.TrainingRows).
		Interface("dropped", report.Dropped).
		Dur("duration", report.Duration).
		Msg("Feature pipeline complete")

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w (%d records, %d dropped)", ErrEmptyResult, len(records), drops.Total())
	}

	return &Result{
		TrainingRows: rows,
		Snapshots:    snapshots,
		Codes:        resolved,
		Report:       report,
	}, nil
}

func computeTeam(tl *TeamTimeline, window RollingWindow) teamOutput {
	rolling := window.Leakfree(tl.Records)
	cumulative := ShiftedCumulative(tl.Records)

	out := teamOutput{features: make([]FeatureRecord, len(tl.Records))}
	for i, rec := range tl.Records {
		out.features[i] = FeatureRecord{
			Record:     rec,
			Rolling:    rolling[i],
			Cumulative: cumulative[i],
		}
	}
	out.snapshot = Snapshot(tl, window)
	return out
}
