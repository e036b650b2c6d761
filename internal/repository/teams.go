package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// TeamRepository handles team code and team snapshot operations
type TeamRepository struct {
	db *Database
}

// ListCodes returns the persisted team code table ordered by code
func (r *TeamRepository) ListCodes(ctx context.Context) (codes []models.TeamCode, err error) {
	defer observe("select", "team_codes", time.Now(), &err)

	query := `
		SELECT team_code, team_name
		FROM team_codes
		ORDER BY team_code
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list team codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.TeamCode
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team code: %w", err)
		}
		codes = append(codes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team codes: %w", err)
	}

	return codes, nil
}

// SaveCodes inserts codes for names not yet stored. Stored codes are
// never changed; reusing a code for another name fails.
func (r *TeamRepository) SaveCodes(ctx context.Context, codes []models.TeamCode) error {
	return r.saveCodes(ctx, r.db.Pool, codes)
}

func (r *TeamRepository) saveCodes(ctx context.Context, q dbtx, codes []models.TeamCode) (err error) {
	defer observe("insert", "team_codes", time.Now(), &err)

	query := `
		INSERT INTO team_codes (team_code, team_name)
		VALUES ($1, $2)
		ON CONFLICT (team_name) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(query, c.Code, c.Name)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range codes {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("failed to save team code %d (%s): %w", c.Code, c.Name, err)
		}
	}

	log.Debug().Int("count", len(codes)).Msg("Team codes saved")
	return nil
}

// UpsertSnapshots inserts or replaces team snapshots keyed by team code
func (r *TeamRepository) UpsertSnapshots(ctx context.Context, snaps []models.TeamFormSnapshot) error {
	return r.upsertSnapshots(ctx, r.db.Pool, snaps)
}

func (r *TeamRepository) upsertSnapshots(ctx context.Context, q dbtx, snaps []models.TeamFormSnapshot) (err error) {
	defer observe("upsert", "team_form_snapshots", time.Now(), &err)

	query := `
		INSERT INTO team_form_snapshots (
			team_code, team_name, logo_url, last_match,
			gf_rolling, ga_rolling, xg_rolling, xga_rolling, poss_rolling,
			sh_rolling, sot_rolling, fk_rolling, pkatt_rolling,
			matches, goal_diff, wins, draws, losses, win_pct, draw_pct, loss_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (team_code) DO UPDATE SET
			team_name = EXCLUDED.team_name,
			logo_url = EXCLUDED.logo_url,
			last_match = EXCLUDED.last_match,
			gf_rolling = EXCLUDED.gf_rolling,
			ga_rolling = EXCLUDED.ga_rolling,
			xg_rolling = EXCLUDED.xg_rolling,
			xga_rolling = EXCLUDED.xga_rolling,
			poss_rolling = EXCLUDED.poss_rolling,
			sh_rolling = EXCLUDED.sh_rolling,
			sot_rolling = EXCLUDED.sot_rolling,
			fk_rolling = EXCLUDED.fk_rolling,
			pkatt_rolling = EXCLUDED.pkatt_rolling,
			matches = EXCLUDED.matches,
			goal_diff = EXCLUDED.goal_diff,
			wins = EXCLUDED.wins,
			draws = EXCLUDED.draws,
			losses = EXCLUDED.losses,
			win_pct = EXCLUDED.win_pct,
			draw_pct = EXCLUDED.draw_pct,
			loss_pct = EXCLUDED.loss_pct,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, s := range snaps {
		args := []any{s.TeamCode, s.TeamName, s.LogoURL, s.LastMatch}
		for _, v := range s.Rolling {
			args = append(args, nullable(v))
		}
		args = append(args, s.Matches, s.GoalDiff, s.Wins, s.Draws, s.Losses, s.WinPct, s.DrawPct, s.LossPct)
		batch.Queue(query, args...)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for _, s := range snaps {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert snapshot for %s: %w", s.TeamName, err)
		}
	}

	return nil
}

// pruneSnapshots deletes snapshots of teams that are not in keep
func (r *TeamRepository) pruneSnapshots(ctx context.Context, q dbtx, keep []models.TeamFormSnapshot) (err error) {
	defer observe("delete", "team_form_snapshots", time.Now(), &err)

	codes := make([]int32, 0, len(keep))
	for _, s := range keep {
		codes = append(codes, int32(s.TeamCode))
	}

	tag, err := q.Exec(ctx, `DELETE FROM team_form_snapshots WHERE NOT (team_code = ANY($1))`, codes)
	if err != nil {
		return fmt.Errorf("failed to prune team snapshots: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Info().Int64("count", tag.RowsAffected()).Msg("Removed snapshots of teams absent from the run")
	}
	return nil
}

const snapshotColumns = `
	team_code, team_name, logo_url, last_match,
	gf_rolling, ga_rolling, xg_rolling, xga_rolling, poss_rolling,
	sh_rolling, sot_rolling, fk_rolling, pkatt_rolling,
	matches, goal_diff, wins, draws, losses, win_pct, draw_pct, loss_pct
`

func scanSnapshot(row pgx.Row) (*models.TeamFormSnapshot, error) {
	var s models.TeamFormSnapshot
	dest := []any{&s.TeamCode, &s.TeamName, &s.LogoURL, &s.LastMatch}
	for i := range s.Rolling {
		dest = append(dest, &s.Rolling[i])
	}
	dest = append(dest, &s.Matches, &s.GoalDiff, &s.Wins, &s.Draws, &s.Losses, &s.WinPct, &s.DrawPct, &s.LossPct)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots returns every team snapshot ordered by team code
func (r *TeamRepository) ListSnapshots(ctx context.Context) (snaps []models.TeamFormSnapshot, err error) {
	defer observe("select", "team_form_snapshots", time.Now(), &err)

	rows, err := r.db.Pool.Query(ctx, `SELECT `+snapshotColumns+` FROM team_form_snapshots ORDER BY team_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team snapshot: %w", err)
		}
		snaps = append(snaps, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team snapshots: %w", err)
	}

	return snaps, nil
}

// GetSnapshot retrieves one team's snapshot by name. Returns nil if the
// team has none.
func (r *TeamRepository) GetSnapshot(ctx context.Context, name string) (snap *models.TeamFormSnapshot, err error) {
	defer observe("select", "team_form_snapshots", time.Now(), &err)

	row := r.db.Pool.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM team_form_snapshots WHERE team_name = $1`, name)
	snap, err = scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team snapshot: %w", err)
	}

	return snap, nil
}

// nullable converts an optional value into a pgx argument
func nullable(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}
