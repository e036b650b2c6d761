package cache

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamKey(t *testing.T) {
	assert.Equal(t, "matchform:team:Manchester United", TeamKey("Manchester United"))
}

func TestStaleTeamKeys(t *testing.T) {
	existing := []string{TeamKey("Leeds"), TeamKey("Arsenal"), TeamKey("Burnley"), TeamKey("Chelsea")}
	snaps := []models.TeamFormSnapshot{{TeamName: "Arsenal"}, {TeamName: "Chelsea"}}

	assert.Equal(t, []string{TeamKey("Burnley"), TeamKey("Leeds")}, staleTeamKeys(existing, snaps))
	assert.Empty(t, staleTeamKeys(existing[1:2], snaps))
	assert.Len(t, staleTeamKeys(existing, nil), 4)
}

func TestDecodeTeamCodes(t *testing.T) {
	codes, err := decodeTeamCodes(map[string]string{"Wolves": "19", "Arsenal": "0", "Brentford": "2"})
	require.NoError(t, err)
	assert.Equal(t, []models.TeamCode{
		{Code: 0, Name: "Arsenal"},
		{Code: 2, Name: "Brentford"},
		{Code: 19, Name: "Wolves"},
	}, codes)

	_, err = decodeTeamCodes(map[string]string{"Arsenal": "zero"})
	assert.Error(t, err)
}

func TestSnapshotEncodingKeepsUndefinedValues(t *testing.T) {
	snap := models.TeamFormSnapshot{
		TeamCode:  4,
		TeamName:  "Fulham",
		LastMatch: time.Date(2024, 10, 13, 0, 0, 0, 0, time.UTC),
	}
	snap.Rolling[models.StatGoalsFor] = sql.NullFloat64{Float64: 0.8, Valid: true}
	snap.Wins = 3

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var got models.TeamFormSnapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, snap, got)
	assert.False(t, got.Rolling[models.StatShots].Valid)
}
