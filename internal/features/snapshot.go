package features

import (
	"sort"

	"matchform/pipeline/internal/models"
)

// Snapshot builds a team's current form from its whole timeline: the
// inclusive rolling window and unshifted season totals. Identity comes
// from the latest record.
func Snapshot(tl *TeamTimeline, window RollingWindow) models.TeamFormSnapshot {
	latest := tl.Latest()
	return models.TeamFormSnapshot{
		TeamCode:     latest.TeamCode,
		TeamName:     tl.Team,
		LogoURL:      latest.LogoURL,
		LastMatch:    latest.Date,
		Rolling:      window.Inclusive(tl.Records),
		SeasonTotals: SeasonTotals(tl.Records),
	}
}

// SortSnapshots orders snapshots by team code
func SortSnapshots(snaps []models.TeamFormSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].TeamCode < snaps[j].TeamCode
	})
}
