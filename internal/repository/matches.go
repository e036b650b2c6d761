package repository

import (
	"context"
	"fmt"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// MatchRepository reads and loads the raw per-team match log
type MatchRepository struct {
	db *Database
}

var matchColumns = []string{
	"match_date", "team", "opponent", "venue", "result",
	"goals_for", "goals_against", "expected_goals_for", "expected_goals_against",
	"possession", "shots", "shots_on_target", "free_kicks", "penalty_attempts", "logo_url",
}

// ListRaw returns every stored record in insertion order. Values are
// returned as collected and validated by the normalizer.
func (r *MatchRepository) ListRaw(ctx context.Context) (raws []models.RawMatch, err error) {
	defer observe("select", "match_records", time.Now(), &err)

	query := `
		SELECT match_date, team, opponent, venue, result,
		       goals_for, goals_against, expected_goals_for, expected_goals_against,
		       possession, shots, shots_on_target, free_kicks, penalty_attempts, logo_url
		FROM match_records
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.RawMatch
		err := rows.Scan(
			&m.Date, &m.Team, &m.Opponent, &m.Venue, &m.Result,
			&m.GoalsFor, &m.GoalsAgainst, &m.ExpectedGoalsFor, &m.ExpectedGoalsAgainst,
			&m.Possession, &m.Shots, &m.ShotsOnTarget, &m.FreeKicks, &m.PenaltyAttempts, &m.LogoURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		raws = append(raws, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match records: %w", err)
	}

	return raws, nil
}

// Import appends raw records with COPY and returns the number stored
func (r *MatchRepository) Import(ctx context.Context, raws []models.RawMatch) (n int64, err error) {
	defer observe("copy", "match_records", time.Now(), &err)

	n, err = r.db.Pool.CopyFrom(ctx, pgx.Identifier{"match_records"}, matchColumns,
		pgx.CopyFromSlice(len(raws), func(i int) ([]any, error) {
			m := raws[i]
			return []any{
				m.Date, m.Team, m.Opponent, m.Venue, m.Result,
				m.GoalsFor, m.GoalsAgainst, m.ExpectedGoalsFor, m.ExpectedGoalsAgainst,
				m.Possession, m.Shots, m.ShotsOnTarget, m.FreeKicks, m.PenaltyAttempts, m.LogoURL,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to import match records: %w", err)
	}

	log.Info().Int64("count", n).Msg("Match records imported")
	return n, nil
}

// Count returns the number of stored match records
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count match records: %w", err)
	}
	return count, nil
}
