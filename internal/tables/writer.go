package tables

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/models"
)

// TrainingHeader returns the training table columns
func TrainingHeader() []string {
	cols := []string{"date", "match_result", "home_team", "home_team_code", "away_team", "away_team_code"}
	for _, side := range []string{features.SideHome, features.SideAway} {
		for _, s := range models.Stats() {
			cols = append(cols, features.RollingColumn(s, side))
		}
	}
	for _, side := range []string{features.SideHome, features.SideAway} {
		for _, c := range features.CumulativeColumns {
			cols = append(cols, c+"_"+side)
		}
	}
	return cols
}

// TeamHeader returns the team table columns
func TeamHeader() []string {
	cols := []string{"team_code", "team_name", "logo_url"}
	for _, s := range models.Stats() {
		cols = append(cols, features.RollingColumn(s, ""))
	}
	return append(cols, "goal_diff", "wins", "draws", "losses", "win_pct", "draw_pct", "loss_pct")
}

// TeamCodesHeader returns the team code table columns
func TeamCodesHeader() []string {
	return []string{"team_code", "team_name"}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

// WriteTraining renders training rows in table order
func WriteTraining(w io.Writer, rows []models.TrainingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrainingHeader()); err != nil {
		return fmt.Errorf("failed to write training header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.Date.Format(features.DateLayout),
			strconv.Itoa(int(row.MatchResult)),
			row.HomeTeam,
			strconv.Itoa(row.HomeTeamCode),
			row.AwayTeam,
			strconv.Itoa(row.AwayTeamCode),
		}
		for _, v := range row.RollingHome {
			rec = append(rec, formatNull(v))
		}
		for _, v := range row.RollingAway {
			rec = append(rec, formatNull(v))
		}
		for _, c := range []models.CumulativeStatsRow{row.CumulativeHome, row.CumulativeAway} {
			rec = append(rec, formatNull(c.GoalDiff), formatNull(c.WinPct), formatNull(c.DrawPct), formatNull(c.LossPct))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write training row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTeams renders team snapshots in the given order
func WriteTeams(w io.Writer, snaps []models.TeamFormSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TeamHeader()); err != nil {
		return fmt.Errorf("failed to write team header: %w", err)
	}
	for _, s := range snaps {
		rec := []string{strconv.Itoa(s.TeamCode), s.TeamName, s.LogoURL}
		for _, v := range s.Rolling {
			rec = append(rec, formatNull(v))
		}
		rec = append(rec,
			strconv.Itoa(s.GoalDiff),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Draws),
			strconv.Itoa(s.Losses),
			formatFloat(s.WinPct),
			formatFloat(s.DrawPct),
			formatFloat(s.LossPct),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write team row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTeamCodes renders the team code table
func WriteTeamCodes(w io.Writer, codes []models.TeamCode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TeamCodesHeader()); err != nil {
		return fmt.Errorf("failed to write team code header: %w", err)
	}
	for _, c := range codes {
		if err := cw.Write([]string{strconv.Itoa(c.Code), c.Name}); err != nil {
			return fmt.Errorf("failed to write team code: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rendered holds the three output tables as bytes
type Rendered struct {
	Training  []byte
	Teams     []byte
	TeamCodes []byte
}

// Render serializes a pipeline result. Nothing touches disk.
func Render(result *features.Result) (*Rendered, error) {
	var training, teams, codes bytes.Buffer
	if err := WriteTraining(&training, result.TrainingRows); err != nil {
		return nil, err
	}
	if err := WriteTeams(&teams, result.Snapshots); err != nil {
		return nil, err
	}
	if err := WriteTeamCodes(&codes, result.Codes.Entries()); err != nil {
		return nil, err
	}
	return &Rendered{
		Training:  training.Bytes(),
		Teams:     teams.Bytes(),
		TeamCodes: codes.Bytes(),
	}, nil
}
