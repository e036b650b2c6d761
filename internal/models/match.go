package models

import (
	"time"
)

// Result is the match outcome from the recording team's perspective
type Result int

const (
	ResultLoss Result = 0
	ResultDraw Result = 1
	ResultWin  Result = 2
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "W"
	case ResultDraw:
		return "D"
	case ResultLoss:
		return "L"
	}
	return "?"
}

// Venue is where the recording team played
type Venue int

const (
	VenueHome Venue = 0
	VenueAway Venue = 1
)

func (v Venue) String() string {
	switch v {
	case VenueHome:
		return "Home"
	case VenueAway:
		return "Away"
	}
	return "?"
}

// Stat indexes the tracked per-match statistics
type Stat int

const (
	StatGoalsFor Stat = iota
	StatGoalsAgainst
	StatExpectedGoals
	StatExpectedGoalsAgainst
	StatPossession
	StatShots
	StatShotsOnTarget
	StatFreeKicks
	StatPenaltyAttempts

	// NumStats is the number of tracked statistics
	NumStats = 9
)

var statNames = [NumStats]string{"gf", "ga", "xg", "xga", "poss", "sh", "sot", "fk", "pkatt"}

// String returns the column stem used in output tables
func (s Stat) String() string {
	if s < 0 || int(s) >= NumStats {
		return "unknown"
	}
	return statNames[s]
}

// Stats returns every tracked statistic in output column order
func Stats() []Stat {
	out := make([]Stat, NumStats)
	for i := range out {
		out[i] = Stat(i)
	}
	return out
}

// RawMatch is one collector row before normalization. Every field is text.
type RawMatch struct {
	Date                 string `json:"date"`
	Team                 string `json:"team"`
	Opponent             string `json:"opponent"`
	Venue                string `json:"venue"`
	Result               string `json:"result"`
	GoalsFor             string `json:"goals_for"`
	GoalsAgainst         string `json:"goals_against"`
	ExpectedGoalsFor     string `json:"expected_goals_for"`
	ExpectedGoalsAgainst string `json:"expected_goals_against"`
	Possession           string `json:"possession"`
	Shots                string `json:"shots"`
	ShotsOnTarget        string `json:"shots_on_target"`
	FreeKicks            string `json:"free_kicks"`
	PenaltyAttempts      string `json:"penalty_attempts"`
	LogoURL              string `json:"logo_url"`
}

// StatText returns the raw text of a tracked statistic
func (rm *RawMatch) StatText(s Stat) string {
	switch s {
	case StatGoalsFor:
		return rm.GoalsFor
	case StatGoalsAgainst:
		return rm.GoalsAgainst
	case StatExpectedGoals:
		return rm.ExpectedGoalsFor
	case StatExpectedGoalsAgainst:
		return rm.ExpectedGoalsAgainst
	case StatPossession:
		return rm.Possession
	case StatShots:
		return rm.Shots
	case StatShotsOnTarget:
		return rm.ShotsOnTarget
	case StatFreeKicks:
		return rm.FreeKicks
	case StatPenaltyAttempts:
		return rm.PenaltyAttempts
	}
	return ""
}

// MatchRecord is one team's view of one match, normalized
type MatchRecord struct {
	Date         time.Time `db:"match_date"`
	Team         string    `db:"team"`
	Opponent     string    `db:"opponent"`
	Venue        Venue     `db:"venue"`
	Result       Result    `db:"result"`
	GoalsFor     int       `db:"goals_for"`
	GoalsAgainst int       `db:"goals_against"`
	TeamCode     int       `db:"team_code"`
	LogoURL      string    `db:"logo_url"`

	// Stats holds every tracked statistic, goals included
	Stats [NumStats]float64
}

// GoalDiff returns goals for minus goals against
func (m *MatchRecord) GoalDiff() int {
	return m.GoalsFor - m.GoalsAgainst
}
