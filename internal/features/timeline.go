package features

import (
	"sort"

	"matchform/pipeline/internal/models"
)

// TeamTimeline is one team's records in date order
type TeamTimeline struct {
	Team    string
	Records []models.MatchRecord
}

// Latest returns the most recent record. The timeline must be non-empty.
func (t *TeamTimeline) Latest() models.MatchRecord {
	return t.Records[len(t.Records)-1]
}

// GroupByTeam splits date-ordered records into per-team timelines, ordered
// by team code
func GroupByTeam(records []models.MatchRecord) []*TeamTimeline {
	byTeam := make(map[string]*TeamTimeline)
	var order []*TeamTimeline
	for _, rec := range records {
		tl, ok := byTeam[rec.Team]
		if !ok {
			tl = &TeamTimeline{Team: rec.Team}
			byTeam[rec.Team] = tl
			order = append(order, tl)
		}
		tl.Records = append(tl.Records, rec)
	}

	for _, tl := range order {
		sort.SliceStable(tl.Records, func(i, j int) bool {
			return tl.Records[i].Date.Before(tl.Records[j].Date)
		})
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Records[0].TeamCode < order[j].Records[0].TeamCode
	})
	return order
}
