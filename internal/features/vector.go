package features

import (
	"fmt"

	"matchform/pipeline/internal/models"
)

// Side suffixes used in training and vector column names
const (
	SideHome = "home"
	SideAway = "away"
)

// CumulativeColumns are the cumulative feature stems in column order
var CumulativeColumns = []string{"goal_diff", "win_pct", "draw_pct", "loss_pct"}

// RollingColumn names a rolling feature, e.g. "xg_rolling" or
// "xg_rolling_home" when side is set
func RollingColumn(s models.Stat, side string) string {
	if side == "" {
		return s.String() + "_rolling"
	}
	return s.String() + "_rolling_" + side
}

// TrainingFeatureColumns lists model input columns in the order the
// training table stores them. Request-time vectors use the same order.
func TrainingFeatureColumns() []string {
	cols := []string{"home_team_code", "away_team_code"}
	for _, side := range []string{SideHome, SideAway} {
		for _, s := range models.Stats() {
			cols = append(cols, RollingColumn(s, side))
		}
	}
	for _, side := range []string{SideHome, SideAway} {
		for _, c := range CumulativeColumns {
			cols = append(cols, c+"_"+side)
		}
	}
	return cols
}

// FeatureVector is one (home, away) model input
type FeatureVector struct {
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Columns  []string  `json:"columns"`
	Values   []float64 `json:"values"`
}

// Map returns the vector keyed by column name
func (v *FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.Columns))
	for i, c := range v.Columns {
		out[c] = v.Values[i]
	}
	return out
}

// AssembleFeatureVector builds a model input from two team snapshots.
// Codes come from the snapshots, which carry the persisted code table.
func AssembleFeatureVector(home, away models.TeamFormSnapshot) (*FeatureVector, error) {
	if home.TeamName == away.TeamName {
		return nil, fmt.Errorf("%w: %q", ErrSameTeam, home.TeamName)
	}

	values := []float64{float64(home.TeamCode), float64(away.TeamCode)}
	for _, snap := range []*models.TeamFormSnapshot{&home, &away} {
		for _, s := range models.Stats() {
			v := snap.Rolling[s]
			if !v.Valid {
				return nil, &InsufficientHistoryError{Team: snap.TeamName, Feature: RollingColumn(s, "")}
			}
			values = append(values, v.Float64)
		}
	}
	for _, snap := range []*models.TeamFormSnapshot{&home, &away} {
		values = append(values,
			float64(snap.GoalDiff),
			snap.WinPct,
			snap.DrawPct,
			snap.LossPct,
		)
	}

	return &FeatureVector{
		HomeTeam: home.TeamName,
		AwayTeam: away.TeamName,
		Columns:  TrainingFeatureColumns(),
		Values:   values,
	}, nil
}

// SnapshotIndex looks up team snapshots by name
type SnapshotIndex map[string]models.TeamFormSnapshot

// IndexSnapshots builds an index over snaps
func IndexSnapshots(snaps []models.TeamFormSnapshot) SnapshotIndex {
	idx := make(SnapshotIndex, len(snaps))
	for _, s := range snaps {
		idx[s.TeamName] = s
	}
	return idx
}

// Vector assembles the feature vector for a named fixture
func (idx SnapshotIndex) Vector(homeTeam, awayTeam string) (*FeatureVector, error) {
	home, ok := idx[homeTeam]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, homeTeam)
	}
	away, ok := idx[awayTeam]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, awayTeam)
	}
	return AssembleFeatureVector(home, away)
}
