package models

import (
	"database/sql"
	"time"
)

// RollingFeatureRow holds a trailing-window mean per tracked statistic.
// An invalid entry means the window had too little history.
type RollingFeatureRow [NumStats]sql.NullFloat64

// Complete reports whether every statistic has a value
func (r RollingFeatureRow) Complete() bool {
	for _, v := range r {
		if !v.Valid {
			return false
		}
	}
	return true
}

// CumulativeStatsRow holds running goal differential and result rates
// over a team's matches strictly before the current one
type CumulativeStatsRow struct {
	GoalDiff sql.NullFloat64 `db:"goal_diff"`
	WinPct   sql.NullFloat64 `db:"win_pct"`
	DrawPct  sql.NullFloat64 `db:"draw_pct"`
	LossPct  sql.NullFloat64 `db:"loss_pct"`
}

// Complete reports whether every field has a value
func (c CumulativeStatsRow) Complete() bool {
	return c.GoalDiff.Valid && c.WinPct.Valid && c.DrawPct.Valid && c.LossPct.Valid
}

// TrainingRow is one real match with both teams' pre-match features
type TrainingRow struct {
	Date         time.Time `db:"match_date"`
	MatchResult  Result    `db:"match_result"`
	HomeTeam     string    `db:"home_team"`
	HomeTeamCode int       `db:"home_team_code"`
	AwayTeam     string    `db:"away_team"`
	AwayTeamCode int       `db:"away_team_code"`

	RollingHome    RollingFeatureRow
	RollingAway    RollingFeatureRow
	CumulativeHome CumulativeStatsRow
	CumulativeAway CumulativeStatsRow
}

// SeasonTotals summarizes a team's entire timeline
type SeasonTotals struct {
	Matches  int     `json:"matches" db:"matches"`
	GoalDiff int     `json:"goal_diff" db:"goal_diff"`
	Wins     int     `json:"wins" db:"wins"`
	Draws    int     `json:"draws" db:"draws"`
	Losses   int     `json:"losses" db:"losses"`
	WinPct   float64 `json:"win_pct" db:"win_pct"`
	DrawPct  float64 `json:"draw_pct" db:"draw_pct"`
	LossPct  float64 `json:"loss_pct" db:"loss_pct"`
}

// TeamFormSnapshot is a team's current form, used at inference time
type TeamFormSnapshot struct {
	TeamCode  int               `json:"team_code" db:"team_code"`
	TeamName  string            `json:"team_name" db:"team_name"`
	LogoURL   string            `json:"logo_url" db:"logo_url"`
	LastMatch time.Time         `json:"last_match" db:"last_match"`
	Rolling   RollingFeatureRow `json:"rolling"`
	SeasonTotals
}

// TeamCode maps a team name to its stable integer code
type TeamCode struct {
	Code int    `db:"team_code"`
	Name string `db:"team_name"`
}
