package features

import (
	"sort"

	"matchform/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// FeatureRecord is a match record with its leakage-free features
type FeatureRecord struct {
	Record     models.MatchRecord
	Rolling    models.RollingFeatureRow
	Cumulative models.CumulativeStatsRow
}

// Complete reports whether every feature is defined
func (f *FeatureRecord) Complete() bool {
	return f.Rolling.Complete() && f.Cumulative.Complete()
}

type pairKey struct {
	date     string
	team     string
	opponent string
}

// MergeHomeAway joins each home record to the away record of the same
// match. Records with undefined features are dropped first; home records
// without an away counterpart produce nothing.
func MergeHomeAway(candidates []FeatureRecord) ([]models.TrainingRow, DropReport) {
	drops := DropReport{}

	var homes []*FeatureRecord
	aways := make(map[pairKey]*FeatureRecord)
	for i := range candidates {
		fr := &candidates[i]
		if !fr.Complete() {
			drops[ReasonInsufficientHistory]++
			continue
		}
		if fr.Record.Venue == models.VenueHome {
			homes = append(homes, fr)
			continue
		}
		aways[pairKey{
			date:     fr.Record.Date.Format(DateLayout),
			team:     fr.Record.Team,
			opponent: fr.Record.Opponent,
		}] = fr
	}

	rows := make([]models.TrainingRow, 0, len(homes))
	for _, home := range homes {
		key := pairKey{
			date:     home.Record.Date.Format(DateLayout),
			team:     home.Record.Opponent,
			opponent: home.Record.Team,
		}
		away, ok := aways[key]
		if !ok {
			drops[ReasonMergeMismatch]++
			log.Debug().
				Str("team", home.Record.Team).
				Str("opponent", home.Record.Opponent).
				Str("date", key.date).
				Msg("No away counterpart for home record")
			continue
		}
		delete(aways, key)

		rows = append(rows, models.TrainingRow{
			Date:           home.Record.Date,
			MatchResult:    home.Record.Result,
			HomeTeam:       home.Record.Team,
			HomeTeamCode:   home.Record.TeamCode,
			AwayTeam:       away.Record.Team,
			AwayTeamCode:   away.Record.TeamCode,
			RollingHome:    home.Rolling,
			RollingAway:    away.Rolling,
			CumulativeHome: home.Cumulative,
			CumulativeAway: away.Cumulative,
		})
	}

	for key := range aways {
		drops[ReasonMergeMismatch]++
		log.Debug().
			Str("team", key.team).
			Str("opponent", key.opponent).
			Str("date", key.date).
			Msg("No home counterpart for away record")
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].HomeTeamCode < rows[j].HomeTeamCode
	})
	return rows, drops
}
