package features

import (
	"context"
	"errors"
	"testing"

	"matchform/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_League(t *testing.T) {
	result, err := Run(context.Background(), league(10), nil, DefaultOptions())
	require.NoError(t, err)

	// every team plays every round; rows are complete from round 3 on
	assert.Len(t, result.TrainingRows, 14)
	assert.Equal(t, 4, result.Report.Teams)
	assert.Equal(t, 40, result.Report.Records)
	assert.Equal(t, 4, result.Report.NewTeamCodes)
	assert.Equal(t, 12, result.Report.Dropped[ReasonInsufficientHistory])

	require.Len(t, result.Snapshots, 4)
	for i, snap := range result.Snapshots {
		assert.Equal(t, i, snap.TeamCode)
		assert.Equal(t, 10, snap.Matches)
		assert.True(t, snap.Rolling.Complete())
	}
	assert.Equal(t, "Arsenal", result.Snapshots[0].TeamName)
	assert.Equal(t, "https://img/Arsenal.png", result.Snapshots[0].LogoURL)
}

func TestRun_TrainingRowsMatchSource(t *testing.T) {
	raws := league(10)
	result, err := Run(context.Background(), raws, nil, DefaultOptions())
	require.NoError(t, err)

	homeResults := make(map[string]string)
	for _, rm := range raws {
		if rm.Venue == "Home" {
			homeResults[rm.Date+"|"+rm.Team+"|"+rm.Opponent] = rm.Result
		}
	}
	for _, row := range result.TrainingRows {
		key := row.Date.Format(DateLayout) + "|" + row.HomeTeam + "|" + row.AwayTeam
		want, ok := homeResults[key]
		require.True(t, ok, "row %s has no source match", key)
		assert.Equal(t, want, row.MatchResult.String())
		code, _ := result.Codes.Lookup(row.HomeTeam)
		assert.Equal(t, code, row.HomeTeamCode)
	}
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(context.Background(), league(12), nil, Options{Window: DefaultRollingWindow(), Workers: 1})
	require.NoError(t, err)
	second, err := Run(context.Background(), league(12), nil, Options{Window: DefaultRollingWindow(), Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, first.TrainingRows, second.TrainingRows)
	assert.Equal(t, first.Snapshots, second.Snapshots)
	assert.Equal(t, first.Codes.Entries(), second.Codes.Entries())
}

func TestRun_ReusesTeamCodes(t *testing.T) {
	existing, err := NewTeamCodes([]models.TeamCode{
		{Code: 7, Name: "Everton"},
		{Code: 3, Name: "Arsenal"},
	})
	require.NoError(t, err)

	result, err := Run(context.Background(), league(8), existing, DefaultOptions())
	require.NoError(t, err)

	code, _ := result.Codes.Lookup("Everton")
	assert.Equal(t, 7, code)
	code, _ = result.Codes.Lookup("Brentford")
	assert.Equal(t, 8, code)
	code, _ = result.Codes.Lookup("Chelsea")
	assert.Equal(t, 9, code)
	assert.Equal(t, 2, result.Report.NewTeamCodes)
}

func TestRun_EmptyResult(t *testing.T) {
	_, err := Run(context.Background(), league(3), nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrEmptyResult))

	_, err = Run(context.Background(), nil, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrEmptyResult))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, league(10), nil, DefaultOptions())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_SnapshotOfSevenMatches(t *testing.T) {
	var raws []models.RawMatch
	goals := []int{3, 3, 0, 1, 2, 1, 0}
	start := day("2024-09-01")
	for i, g := range goals {
		date := start.AddDate(0, 0, 7*i).Format(DateLayout)
		raws = append(raws, fixture(date, "Fulham", "Opp", g, 1)...)
	}

	result, err := Run(context.Background(), raws, nil, DefaultOptions())
	require.NoError(t, err)

	idx := IndexSnapshots(result.Snapshots)
	snap, ok := idx["Fulham"]
	require.True(t, ok)

	assert.Equal(t, 7, snap.Wins+snap.Draws+snap.Losses)
	assert.Equal(t, 7, snap.Matches)
	assert.Equal(t, day("2024-10-13"), snap.LastMatch)
	// last five inclusive: 0,1,2,1,0
	assert.InDelta(t, 0.8, snap.Rolling[models.StatGoalsFor].Float64, 1e-9)
}
