package tables

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nativeHeader = "ID,Date,Venue,Result,GF,GA,Opponent,xG,xGA,Poss,Sh,SoT,FK,PKatt,Team,Logo\n"

// nativeLog renders a small league in the collector's own column layout
func nativeLog(rounds int) string {
	pairs := [][2]string{{"Arsenal", "Chelsea"}, {"Brentford", "Everton"}}
	var b strings.Builder
	b.WriteString(nativeHeader)
	id := 0
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	for r := 0; r < rounds; r++ {
		date := start.AddDate(0, 0, 7*r).Format("2006-01-02")
		for i, p := range pairs {
			home, away := p[0], p[1]
			if r%2 == 1 {
				home, away = away, home
			}
			hg, ag := (r+i)%3, (r+2*i)%2
			hr, ar := "D", "D"
			if hg > ag {
				hr, ar = "W", "L"
			} else if hg < ag {
				hr, ar = "L", "W"
			}
			fmt.Fprintf(&b, "%d,%s,Home,%s,%d,%d,%s,1.2,0.8,55,12,4,1,0,%s,https://img/%s.png\n", id, date, hr, hg, ag, away, home, home)
			id++
			fmt.Fprintf(&b, "%d,%s,Away,%s,%d,%d,%s,0.8,1.2,45,9,3,2,1,%s,https://img/%s.png\n", id, date, ar, ag, hg, home, away, away)
			id++
		}
	}
	return b.String()
}

func TestReadMatches_NativeHeaders(t *testing.T) {
	raws, err := ReadMatches(strings.NewReader(nativeLog(1)))
	require.NoError(t, err)
	require.Len(t, raws, 4)

	first := raws[0]
	assert.Equal(t, "2024-08-10", first.Date)
	assert.Equal(t, "Arsenal", first.Team)
	assert.Equal(t, "Chelsea", first.Opponent)
	assert.Equal(t, "Home", first.Venue)
	assert.Equal(t, "1.2", first.ExpectedGoalsFor)
	assert.Equal(t, "https://img/Arsenal.png", first.LogoURL)
}

func TestReadMatches_CanonicalHeaders(t *testing.T) {
	in := "date,team,opponent,venue,result,goals_for,goals_against,expected_goals_for," +
		"expected_goals_against,possession,shots,shots_on_target,free_kicks,penalty_attempts,logo_url,extra\n" +
		"2024-01-01,A,B,Home,W,2,0,1.5,0.3,60,14,6,2,1,http://a,ignored\n"

	raws, err := ReadMatches(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "14", raws[0].Shots)
	assert.Equal(t, "1", raws[0].PenaltyAttempts)
}

func TestReadMatches_MissingColumn(t *testing.T) {
	_, err := ReadMatches(strings.NewReader("Date,Team,Opponent\n2024-01-01,A,B\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ReadMatches(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestWriteTraining_HeaderAndEmptyCells(t *testing.T) {
	row := models.TrainingRow{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MatchResult:  models.ResultWin,
		HomeTeam:     "A",
		HomeTeamCode: 0,
		AwayTeam:     "B",
		AwayTeamCode: 1,
	}
	row.RollingHome[models.StatGoalsFor] = sql.NullFloat64{Float64: 1.5, Valid: true}
	row.CumulativeAway.WinPct = sql.NullFloat64{Float64: 1.0 / 3, Valid: true}

	var buf bytes.Buffer
	require.NoError(t, WriteTraining(&buf, []models.TrainingRow{row}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	header := strings.Split(lines[0], ",")
	assert.Len(t, header, 6+18+8)
	assert.Equal(t, "date", header[0])
	assert.Equal(t, "match_result", header[1])
	assert.Equal(t, "gf_rolling_home", header[6])
	assert.Equal(t, "loss_pct_away", header[len(header)-1])

	cells := strings.Split(lines[1], ",")
	assert.Equal(t, "2024-01-01", cells[0])
	assert.Equal(t, "2", cells[1])
	assert.Equal(t, "1.5", cells[6])
	assert.Equal(t, "", cells[7])
	assert.Equal(t, "0.3333333333333333", cells[len(cells)-3])
}

func TestTrainingHeaderMatchesFeatureColumns(t *testing.T) {
	var cols []string
	for _, col := range TrainingHeader() {
		switch col {
		case "date", "match_result", "home_team", "away_team":
			continue
		}
		cols = append(cols, col)
	}
	assert.Equal(t, features.TrainingFeatureColumns(), cols)
}

func TestRender_ByteIdenticalReruns(t *testing.T) {
	run := func() *Rendered {
		raws, err := ReadMatches(strings.NewReader(nativeLog(8)))
		require.NoError(t, err)
		result, err := features.Run(context.Background(), raws, nil, features.DefaultOptions())
		require.NoError(t, err)
		out, err := Render(result)
		require.NoError(t, err)
		return out
	}

	first, second := run(), run()
	assert.Equal(t, first.Training, second.Training)
	assert.Equal(t, first.Teams, second.Teams)
	assert.Equal(t, first.TeamCodes, second.TeamCodes)
	assert.True(t, bytes.HasPrefix(first.TeamCodes, []byte("team_code,team_name\n0,Arsenal\n")))
}

func TestTeams_ReadBackForInference(t *testing.T) {
	raws, err := ReadMatches(strings.NewReader(nativeLog(8)))
	require.NoError(t, err)
	result, err := features.Run(context.Background(), raws, nil, features.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTeams(&buf, result.Snapshots))
	snaps, err := ReadTeams(&buf)
	require.NoError(t, err)
	require.Len(t, snaps, len(result.Snapshots))

	want, err := features.IndexSnapshots(result.Snapshots).Vector("Arsenal", "Everton")
	require.NoError(t, err)
	got, err := features.IndexSnapshots(snaps).Vector("Arsenal", "Everton")
	require.NoError(t, err)
	assert.Equal(t, want.Values, got.Values)
}

func TestTeamCodesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team_codes.csv")

	codes, err := LoadTeamCodesFile(path)
	require.NoError(t, err)
	assert.Empty(t, codes)

	var buf bytes.Buffer
	require.NoError(t, WriteTeamCodes(&buf, []models.TeamCode{{Code: 0, Name: "Arsenal"}, {Code: 3, Name: "Wolves"}}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	codes, err = LoadTeamCodesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.TeamCode{{Code: 0, Name: "Arsenal"}, {Code: 3, Name: "Wolves"}}, codes)
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "out", "a.csv")
	b := filepath.Join(dir, "out", "b.csv")

	require.NoError(t, Publish(File{Path: a, Data: []byte("one")}, File{Path: b, Data: []byte("two")}))

	got, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestPublish_FailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	good := filepath.Join(dir, "good.csv")
	err := Publish(
		File{Path: good, Data: []byte("ok")},
		File{Path: filepath.Join(blocker, "bad.csv"), Data: []byte("nope")},
	)
	require.Error(t, err)

	_, statErr := os.Stat(good)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the blocker remains")
}

func TestPublish_FailedSwapRestoresPreviousGeneration(t *testing.T) {
	dir := t.TempDir()
	training := filepath.Join(dir, "training_data.csv")
	teams := filepath.Join(dir, "team_data.csv")
	codes := filepath.Join(dir, "team_codes.csv")
	require.NoError(t, os.WriteFile(training, []byte("old training"), 0o644))
	require.NoError(t, os.WriteFile(teams, []byte("old teams"), 0o644))

	rename = func(oldpath, newpath string) error {
		if newpath == teams && strings.Contains(oldpath, ".tmp-") {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() { rename = os.Rename })

	err := Publish(
		File{Path: training, Data: []byte("new training")},
		File{Path: codes, Data: []byte("new codes")},
		File{Path: teams, Data: []byte("new teams")},
	)
	require.Error(t, err)

	got, err := os.ReadFile(training)
	require.NoError(t, err)
	assert.Equal(t, "old training", string(got))
	got, err = os.ReadFile(teams)
	require.NoError(t, err)
	assert.Equal(t, "old teams", string(got))
	_, statErr := os.Stat(codes)
	assert.True(t, os.IsNotExist(statErr), "a table that did not exist before is removed again")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staged or backup files left behind")
}

func TestPublish_ReplacesExistingTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, Publish(File{Path: path, Data: []byte("new")}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
