package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema creates every table the pipeline reads or writes
const schema = `
CREATE TABLE IF NOT EXISTS match_records (
	id                     BIGSERIAL PRIMARY KEY,
	match_date             TEXT NOT NULL,
	team                   TEXT NOT NULL,
	opponent               TEXT NOT NULL,
	venue                  TEXT NOT NULL,
	result                 TEXT NOT NULL,
	goals_for              TEXT NOT NULL DEFAULT '',
	goals_against          TEXT NOT NULL DEFAULT '',
	expected_goals_for     TEXT NOT NULL DEFAULT '',
	expected_goals_against TEXT NOT NULL DEFAULT '',
	possession             TEXT NOT NULL DEFAULT '',
	shots                  TEXT NOT NULL DEFAULT '',
	shots_on_target        TEXT NOT NULL DEFAULT '',
	free_kicks             TEXT NOT NULL DEFAULT '',
	penalty_attempts       TEXT NOT NULL DEFAULT '',
	logo_url               TEXT NOT NULL DEFAULT '',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS team_codes (
	team_code  INTEGER PRIMARY KEY CHECK (team_code >= 0),
	team_name  TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS team_form_snapshots (
	team_code     INTEGER PRIMARY KEY REFERENCES team_codes(team_code),
	team_name     TEXT NOT NULL UNIQUE,
	logo_url      TEXT NOT NULL DEFAULT '',
	last_match    DATE NOT NULL,
	gf_rolling    DOUBLE PRECISION,
	ga_rolling    DOUBLE PRECISION,
	xg_rolling    DOUBLE PRECISION,
	xga_rolling   DOUBLE PRECISION,
	poss_rolling  DOUBLE PRECISION,
	sh_rolling    DOUBLE PRECISION,
	sot_rolling   DOUBLE PRECISION,
	fk_rolling    DOUBLE PRECISION,
	pkatt_rolling DOUBLE PRECISION,
	matches       INTEGER NOT NULL,
	goal_diff     INTEGER NOT NULL,
	wins          INTEGER NOT NULL,
	draws         INTEGER NOT NULL,
	losses        INTEGER NOT NULL,
	win_pct       DOUBLE PRECISION NOT NULL,
	draw_pct      DOUBLE PRECISION NOT NULL,
	loss_pct      DOUBLE PRECISION NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS training_rows (
	match_date          DATE NOT NULL,
	match_result        SMALLINT NOT NULL,
	home_team           TEXT NOT NULL,
	home_team_code      INTEGER NOT NULL,
	away_team           TEXT NOT NULL,
	away_team_code      INTEGER NOT NULL,
	gf_rolling_home     DOUBLE PRECISION,
	ga_rolling_home     DOUBLE PRECISION,
	xg_rolling_home     DOUBLE PRECISION,
	xga_rolling_home    DOUBLE PRECISION,
	poss_rolling_home   DOUBLE PRECISION,
	sh_rolling_home     DOUBLE PRECISION,
	sot_rolling_home    DOUBLE PRECISION,
	fk_rolling_home     DOUBLE PRECISION,
	pkatt_rolling_home  DOUBLE PRECISION,
	gf_rolling_away     DOUBLE PRECISION,
	ga_rolling_away     DOUBLE PRECISION,
	xg_rolling_away     DOUBLE PRECISION,
	xga_rolling_away    DOUBLE PRECISION,
	poss_rolling_away   DOUBLE PRECISION,
	sh_rolling_away     DOUBLE PRECISION,
	sot_rolling_away    DOUBLE PRECISION,
	fk_rolling_away     DOUBLE PRECISION,
	pkatt_rolling_away  DOUBLE PRECISION,
	goal_diff_home      DOUBLE PRECISION,
	win_pct_home        DOUBLE PRECISION,
	draw_pct_home       DOUBLE PRECISION,
	loss_pct_home       DOUBLE PRECISION,
	goal_diff_away      DOUBLE PRECISION,
	win_pct_away        DOUBLE PRECISION,
	draw_pct_away       DOUBLE PRECISION,
	loss_pct_away       DOUBLE PRECISION,
	PRIMARY KEY (match_date, home_team_code)
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id            UUID PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ,
	status        TEXT NOT NULL,
	input_rows    INTEGER NOT NULL DEFAULT 0,
	dropped_rows  INTEGER NOT NULL DEFAULT 0,
	training_rows INTEGER NOT NULL DEFAULT 0,
	teams         INTEGER NOT NULL DEFAULT 0,
	error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started ON pipeline_runs(started_at DESC);
`

// Migrate creates missing tables. Existing tables are left untouched.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Info().Msg("Database schema up to date")
	return nil
}
