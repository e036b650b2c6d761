package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"matchform/pipeline/internal/config"
	"matchform/pipeline/internal/features"
	"matchform/pipeline/internal/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLog writes a round robin match log for teams, one round per week
func writeLog(t *testing.T, path string, teams []string, rounds int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("ID,Date,Venue,Result,GF,GA,Opponent,xG,xGA,Poss,Sh,SoT,FK,PKatt,Team,Logo\n")
	id := 0
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	for r := 0; r < rounds; r++ {
		date := start.AddDate(0, 0, 7*r).Format("2006-01-02")
		for i := 0; i+1 < len(teams); i += 2 {
			home, away := teams[(i+r)%len(teams)], teams[(i+1+r)%len(teams)]
			hg, ag := (r+i)%3, r%2
			hr, ar := "D", "D"
			if hg > ag {
				hr, ar = "W", "L"
			} else if hg < ag {
				hr, ar = "L", "W"
			}
			fmt.Fprintf(&b, "%d,%s,Home,%s,%d,%d,%s,1.1,0.9,52,11,4,1,0,%s,\n", id, date, hr, hg, ag, away, home)
			fmt.Fprintf(&b, "%d,%s,Away,%s,%d,%d,%s,0.9,1.1,48,10,3,2,0,%s,\n", id+1, date, ar, ag, hg, home, away)
			id += 2
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:           t.TempDir(),
		InputFile:         "agg_match_data.csv",
		TrainingFile:      "training_data.csv",
		TeamFile:          "team_data.csv",
		TeamCodesFile:     "team_codes.csv",
		InputSource:       config.InputCSV,
		RollingWindow:     5,
		RollingMinPeriods: 3,
		Workers:           2,
	}
}

func TestRebuilder_RerunsAreByteIdentical(t *testing.T) {
	cfg := testConfig(t)
	writeLog(t, cfg.InputPath(), []string{"Arsenal", "Brentford", "Chelsea", "Everton"}, 10)
	rb := &rebuilder{cfg: cfg}

	require.NoError(t, rb.Run(context.Background()))
	first := map[string][]byte{}
	for _, p := range []string{cfg.TrainingPath(), cfg.TeamPath(), cfg.TeamCodesPath()} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		first[p] = data
	}

	require.NoError(t, rb.Run(context.Background()))
	for p, want := range first {
		got, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, want, got, p)
	}
}

func TestRebuilder_KeepsTeamCodesAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	rb := &rebuilder{cfg: cfg}

	writeLog(t, cfg.InputPath(), []string{"Everton", "Chelsea", "Wolves", "Arsenal"}, 8)
	require.NoError(t, rb.Run(context.Background()))

	// A later season adds Brentford, which sorts before existing names
	writeLog(t, cfg.InputPath(), []string{"Everton", "Chelsea", "Brentford", "Arsenal", "Wolves", "Fulham"}, 8)
	require.NoError(t, rb.Run(context.Background()))

	codes, err := tables.LoadTeamCodesFile(cfg.TeamCodesPath())
	require.NoError(t, err)
	got := map[string]int{}
	for _, c := range codes {
		got[c.Name] = c.Code
	}
	assert.Equal(t, map[string]int{
		"Arsenal": 0, "Chelsea": 1, "Everton": 2, "Wolves": 3,
		"Brentford": 4, "Fulham": 5,
	}, got)
}

func TestRebuilder_EmptyResultPublishesNothing(t *testing.T) {
	cfg := testConfig(t)
	writeLog(t, cfg.InputPath(), []string{"Arsenal", "Chelsea"}, 2)
	rb := &rebuilder{cfg: cfg}

	err := rb.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrEmptyResult))
	assert.Equal(t, "empty_result", errorType(err))

	for _, p := range []string{cfg.TrainingPath(), cfg.TeamPath(), cfg.TeamCodesPath()} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), p)
	}
}

func TestRebuilder_DatabaseInputWithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputSource = config.InputDatabase
	rb := &rebuilder{cfg: cfg}

	err := rb.Run(context.Background())
	assert.Error(t, err)
}

func TestRebuilder_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	rb := &rebuilder{cfg: cfg}

	err := rb.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunOnce_ExitCodes(t *testing.T) {
	cfg := testConfig(t)
	rb := &rebuilder{cfg: cfg}
	ctx := context.Background()

	assert.Equal(t, 1, runOnce(ctx, rb), "missing input")

	writeLog(t, cfg.InputPath(), []string{"Arsenal", "Chelsea"}, 2)
	assert.Equal(t, 1, runOnce(ctx, rb), "empty result")

	writeLog(t, cfg.InputPath(), []string{"Arsenal", "Brentford", "Chelsea", "Everton"}, 10)
	assert.Equal(t, 0, runOnce(ctx, rb))
}
