package repository

import (
	"context"
	"fmt"
	"time"

	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
)

// TrainingRepository stores the training table
type TrainingRepository struct {
	db *Database
}

// trainingColumns matches the training table column order
func trainingColumns() []string {
	cols := []string{"match_date", "match_result", "home_team", "home_team_code", "away_team", "away_team_code"}
	return append(cols, features.TrainingFeatureColumns()[2:]...)
}

func trainingValues(row models.TrainingRow) []any {
	vals := []any{
		row.Date, int16(row.MatchResult),
		row.HomeTeam, row.HomeTeamCode,
		row.AwayTeam, row.AwayTeamCode,
	}
	for _, v := range row.RollingHome {
		vals = append(vals, nullable(v))
	}
	for _, v := range row.RollingAway {
		vals = append(vals, nullable(v))
	}
	for _, c := range []models.CumulativeStatsRow{row.CumulativeHome, row.CumulativeAway} {
		vals = append(vals, nullable(c.GoalDiff), nullable(c.WinPct), nullable(c.DrawPct), nullable(c.LossPct))
	}
	return vals
}

// Replace swaps the stored training table for rows in one transaction
func (r *TrainingRepository) Replace(ctx context.Context, rows []models.TrainingRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.replace(ctx, tx, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit training rows: %w", err)
	}
	return nil
}

func (r *TrainingRepository) replace(ctx context.Context, q dbtx, rows []models.TrainingRow) (err error) {
	defer observe("copy", "training_rows", time.Now(), &err)

	if _, err = q.Exec(ctx, `DELETE FROM training_rows`); err != nil {
		return fmt.Errorf("failed to clear training rows: %w", err)
	}

	n, err := q.CopyFrom(ctx, pgx.Identifier{"training_rows"}, trainingColumns(),
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return trainingValues(rows[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy training rows: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copied %d of %d training rows", n, len(rows))
	}

	return nil
}

// Count returns the number of stored training rows
func (r *TrainingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM training_rows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count training rows: %w", err)
	}
	return count, nil
}

// ListForTeam returns the stored rows in which a team code played, by date
func (r *TrainingRepository) ListForTeam(ctx context.Context, code int) (out []models.TrainingRow, err error) {
	defer observe("select", "training_rows", time.Now(), &err)

	query := `
		SELECT match_date, match_result, home_team, home_team_code, away_team, away_team_code
		FROM training_rows
		WHERE home_team_code = $1 OR away_team_code = $1
		ORDER BY match_date, home_team_code
	`

	rows, err := r.db.Pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list training rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.TrainingRow
		var result int16
		if err := rows.Scan(&row.Date, &result, &row.HomeTeam, &row.HomeTeamCode, &row.AwayTeam, &row.AwayTeamCode); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		row.MatchResult = models.Result(result)
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training rows: %w", err)
	}

	return out, nil
}
