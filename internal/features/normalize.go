package features

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"matchform/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// DateLayout is the calendar date format used in every output table
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
}

// NormalizeOptions controls row-level failure policy
type NormalizeOptions struct {
	// StrictCategories aborts on an unknown result or venue instead of
	// dropping the row
	StrictCategories bool
}

// DropReport counts removed rows per reason
type DropReport map[string]int

// Add merges other into d
func (d DropReport) Add(other DropReport) {
	for reason, n := range other {
		d[reason] += n
	}
}

// Total returns the number of removed rows over all reasons
func (d DropReport) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Normalize parses raw collector rows into canonical match records sorted
// by date. Team codes come from codes, extended with any new team names;
// codes itself is not modified. Malformed rows are logged and dropped.
func Normalize(raws []models.RawMatch, codes *TeamCodes, opts NormalizeOptions) ([]models.MatchRecord, *TeamCodes, DropReport, error) {
	drops := DropReport{}
	records := make([]models.MatchRecord, 0, len(raws))

	for i := range raws {
		rec, err := ToMatchRecord(&raws[i])
		if err != nil {
			var rowErr RowError
			if !errors.As(err, &rowErr) {
				return nil, nil, nil, err
			}
			var catErr *UnknownCategoryError
			if opts.StrictCategories && errors.As(err, &catErr) {
				return nil, nil, nil, err
			}
			drops[rowErr.Reason()]++
			log.Warn().
				Err(err).
				Str("team", raws[i].Team).
				Str("date", raws[i].Date).
				Str("reason", rowErr.Reason()).
				Msg("Dropping match record")
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Team < records[j].Team
	})

	deduped := records[:0]
	for i, rec := range records {
		if i > 0 && rec.Team == records[i-1].Team && rec.Date.Equal(records[i-1].Date) {
			dupErr := &DuplicateRecordError{Team: rec.Team, Date: rec.Date}
			drops[dupErr.Reason()]++
			log.Warn().
				Err(dupErr).
				Str("team", rec.Team).
				Str("date", rec.Date.Format(DateLayout)).
				Str("reason", dupErr.Reason()).
				Msg("Dropping match record")
			continue
		}
		deduped = append(deduped, rec)
	}
	records = deduped

	resolved := codes.Clone()
	names := make([]string, 0, len(records))
	for i := range records {
		names = append(names, records[i].Team)
	}
	if added := resolved.Extend(names); len(added) > 0 {
		log.Info().Int("count", len(added)).Msg("Assigned new team codes")
	}
	for i := range records {
		code, _ := resolved.Lookup(records[i].Team)
		records[i].TeamCode = code
	}

	return records, resolved, drops, nil
}

// ToMatchRecord converts one raw row. The team code is left unset.
func ToMatchRecord(rm *models.RawMatch) (models.MatchRecord, error) {
	team := strings.TrimSpace(rm.Team)
	date, ok := parseDate(rm.Date)
	if !ok {
		return models.MatchRecord{}, &MalformedDateError{Team: team, Raw: rm.Date}
	}

	rec := models.MatchRecord{
		Date:     date,
		Team:     team,
		Opponent: strings.TrimSpace(rm.Opponent),
		LogoURL:  strings.TrimSpace(rm.LogoURL),
	}
	if rec.Team == "" {
		return rec, &MalformedFieldError{Field: "team", Team: team, Date: date}
	}
	if rec.Opponent == "" {
		return rec, &MalformedFieldError{Field: "opponent", Value: rm.Opponent, Team: team, Date: date}
	}

	venue, ok := parseVenue(rm.Venue)
	if !ok {
		return rec, &UnknownCategoryError{Field: "venue", Value: rm.Venue, Team: team, Date: date}
	}
	rec.Venue = venue

	result, ok := parseResult(rm.Result)
	if !ok {
		return rec, &UnknownCategoryError{Field: "result", Value: rm.Result, Team: team, Date: date}
	}
	rec.Result = result

	for _, s := range models.Stats() {
		raw := rm.StatText(s)
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, &MalformedFieldError{Field: s.String(), Value: raw, Team: team, Date: date}
		}
		rec.Stats[s] = v
	}

	gf, gfOK := wholeNumber(rec.Stats[models.StatGoalsFor])
	ga, gaOK := wholeNumber(rec.Stats[models.StatGoalsAgainst])
	if !gfOK {
		return rec, &MalformedFieldError{Field: "gf", Value: rm.GoalsFor, Team: team, Date: date}
	}
	if !gaOK {
		return rec, &MalformedFieldError{Field: "ga", Value: rm.GoalsAgainst, Team: team, Date: date}
	}
	rec.GoalsFor, rec.GoalsAgainst = gf, ga

	return rec, nil
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseVenue(raw string) (models.Venue, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "home":
		return models.VenueHome, true
	case "away":
		return models.VenueAway, true
	}
	return 0, false
}

func parseResult(raw string) (models.Result, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "w", "win":
		return models.ResultWin, true
	case "d", "draw":
		return models.ResultDraw, true
	case "l", "loss":
		return models.ResultLoss, true
	}
	return 0, false
}

func wholeNumber(v float64) (int, bool) {
	if v != math.Trunc(v) || v < 0 {
		return 0, false
	}
	return int(v), true
}
