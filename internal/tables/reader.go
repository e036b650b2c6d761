// Package tables reads the collector's match log and renders the
// pipeline's output tables as CSV.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"matchform/pipeline/internal/models"
)

// ErrMissingColumn is returned when the input lacks a required column
var ErrMissingColumn = errors.New("missing required column")

type field int

const (
	fieldDate field = iota
	fieldTeam
	fieldOpponent
	fieldVenue
	fieldResult
	fieldGoalsFor
	fieldGoalsAgainst
	fieldExpectedGoalsFor
	fieldExpectedGoalsAgainst
	fieldPossession
	fieldShots
	fieldShotsOnTarget
	fieldFreeKicks
	fieldPenaltyAttempts
	fieldLogoURL
	numFields
)

// headerAliases maps lower-cased header names to input fields. The
// collector's native headers are accepted next to the canonical ones.
var headerAliases = map[string]field{
	"date":                   fieldDate,
	"team":                   fieldTeam,
	"opponent":               fieldOpponent,
	"venue":                  fieldVenue,
	"result":                 fieldResult,
	"goals_for":              fieldGoalsFor,
	"gf":                     fieldGoalsFor,
	"goals_against":          fieldGoalsAgainst,
	"ga":                     fieldGoalsAgainst,
	"expected_goals_for":     fieldExpectedGoalsFor,
	"xg":                     fieldExpectedGoalsFor,
	"expected_goals_against": fieldExpectedGoalsAgainst,
	"xga":                    fieldExpectedGoalsAgainst,
	"possession":             fieldPossession,
	"poss":                   fieldPossession,
	"shots":                  fieldShots,
	"sh":                     fieldShots,
	"shots_on_target":        fieldShotsOnTarget,
	"sot":                    fieldShotsOnTarget,
	"free_kicks":             fieldFreeKicks,
	"fk":                     fieldFreeKicks,
	"penalty_attempts":       fieldPenaltyAttempts,
	"pkatt":                  fieldPenaltyAttempts,
	"logo_url":               fieldLogoURL,
	"logo":                   fieldLogoURL,
}

var fieldNames = [numFields]string{
	"date", "team", "opponent", "venue", "result", "goals_for", "goals_against",
	"expected_goals_for", "expected_goals_against", "possession", "shots",
	"shots_on_target", "free_kicks", "penalty_attempts", "logo_url",
}

// ReadMatches parses the collector CSV. Columns are matched by header
// name; unknown columns are ignored.
func ReadMatches(r io.Reader) ([]models.RawMatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: input is empty", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var index [numFields]int
	for i := range index {
		index[i] = -1
	}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if f, ok := headerAliases[key]; ok && index[f] < 0 {
			index[f] = i
		}
	}
	for f, i := range index {
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, fieldNames[f])
		}
	}

	var out []models.RawMatch
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read match row: %w", err)
		}
		cell := func(f field) string {
			if index[f] < len(row) {
				return row[index[f]]
			}
			return ""
		}
		out = append(out, models.RawMatch{
			Date:                 cell(fieldDate),
			Team:                 cell(fieldTeam),
			Opponent:             cell(fieldOpponent),
			Venue:                cell(fieldVenue),
			Result:               cell(fieldResult),
			GoalsFor:             cell(fieldGoalsFor),
			GoalsAgainst:         cell(fieldGoalsAgainst),
			ExpectedGoalsFor:     cell(fieldExpectedGoalsFor),
			ExpectedGoalsAgainst: cell(fieldExpectedGoalsAgainst),
			Possession:           cell(fieldPossession),
			Shots:                cell(fieldShots),
			ShotsOnTarget:        cell(fieldShotsOnTarget),
			FreeKicks:            cell(fieldFreeKicks),
			PenaltyAttempts:      cell(fieldPenaltyAttempts),
			LogoURL:              cell(fieldLogoURL),
		})
	}
	return out, nil
}

// ReadMatchesFile opens path and parses it with ReadMatches
func ReadMatchesFile(path string) ([]models.RawMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match log: %w", err)
	}
	defer f.Close()
	return ReadMatches(f)
}
