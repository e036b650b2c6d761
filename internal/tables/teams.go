package tables

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"matchform/pipeline/internal/models"
)

// ReadTeamCodes parses a team code table
func ReadTeamCodes(r io.Reader) ([]models.TeamCode, error) {
	rows, err := readIndexed(r, TeamCodesHeader())
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamCode, 0, len(rows))
	for _, row := range rows {
		code, err := strconv.Atoi(row["team_code"])
		if err != nil {
			return nil, fmt.Errorf("invalid team code %q for %q: %w", row["team_code"], row["team_name"], err)
		}
		out = append(out, models.TeamCode{Code: code, Name: row["team_name"]})
	}
	return out, nil
}

// LoadTeamCodesFile reads the persisted code table. A missing file is
// an empty table.
func LoadTeamCodesFile(path string) ([]models.TeamCode, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open team codes: %w", err)
	}
	defer f.Close()
	return ReadTeamCodes(f)
}

// ReadTeams parses a team table back into snapshots
func ReadTeams(r io.Reader) ([]models.TeamFormSnapshot, error) {
	header := TeamHeader()
	rows, err := readIndexed(r, header)
	if err != nil {
		return nil, err
	}

	out := make([]models.TeamFormSnapshot, 0, len(rows))
	for _, row := range rows {
		var s models.TeamFormSnapshot
		var perr error
		atoi := func(col string) int {
			v, err := strconv.Atoi(row[col])
			if err != nil && perr == nil {
				perr = fmt.Errorf("invalid %s %q: %w", col, row[col], err)
			}
			return v
		}
		atof := func(col string) float64 {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil && perr == nil {
				perr = fmt.Errorf("invalid %s %q: %w", col, row[col], err)
			}
			return v
		}

		s.TeamCode = atoi("team_code")
		s.TeamName = row["team_name"]
		s.LogoURL = row["logo_url"]
		for i := range s.Rolling {
			col := header[3+i]
			if row[col] == "" {
				continue
			}
			s.Rolling[i] = sql.NullFloat64{Float64: atof(col), Valid: true}
		}
		s.GoalDiff = atoi("goal_diff")
		s.Wins = atoi("wins")
		s.Draws = atoi("draws")
		s.Losses = atoi("losses")
		s.Matches = s.Wins + s.Draws + s.Losses
		s.WinPct = atof("win_pct")
		s.DrawPct = atof("draw_pct")
		s.LossPct = atof("loss_pct")
		if perr != nil {
			return nil, fmt.Errorf("team %q: %w", s.TeamName, perr)
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadTeamsFile opens path and parses it with ReadTeams
func ReadTeamsFile(path string) ([]models.TeamFormSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open team table: %w", err)
	}
	defer f.Close()
	return ReadTeams(f)
}

// readIndexed reads a CSV whose header must contain every column in want
// and returns each row keyed by column name
func readIndexed(r io.Reader, want []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range want {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var out []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(map[string]string, len(want))
		for _, col := range want {
			row[col] = strings.TrimSpace(rec[index[col]])
		}
		out = append(out, row)
	}
	return out, nil
}
