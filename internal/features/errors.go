package features

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyResult is returned when a run yields no training rows.
	// Callers must not publish any table when they see it.
	ErrEmptyResult = errors.New("pipeline produced no training rows")

	// ErrUnknownTeam is returned when a team has no snapshot or code
	ErrUnknownTeam = errors.New("unknown team")

	// ErrSameTeam is returned when a team is asked to play itself
	ErrSameTeam = errors.New("home and away team are the same")
)

// Drop reasons, used for reports, logs and metrics labels
const (
	ReasonMalformedDate       = "malformed_date"
	ReasonUnknownCategory     = "unknown_category"
	ReasonMalformedField      = "malformed_field"
	ReasonDuplicateRecord     = "duplicate_record"
	ReasonInsufficientHistory = "insufficient_history"
	ReasonMergeMismatch       = "merge_mismatch"
)

// RowError is implemented by every recoverable per-row failure
type RowError interface {
	error
	Reason() string
}

// MalformedDateError means a row's date could not be parsed
type MalformedDateError struct {
	Team string
	Raw  string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q for team %q", e.Raw, e.Team)
}

func (e *MalformedDateError) Reason() string { return ReasonMalformedDate }

// UnknownCategoryError means result or venue is outside its enumeration
type UnknownCategoryError struct {
	Field string
	Value string
	Team  string
	Date  time.Time
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q for team %q on %s", e.Field, e.Value, e.Team, e.Date.Format(DateLayout))
}

func (e *UnknownCategoryError) Reason() string { return ReasonUnknownCategory }

// MalformedFieldError means a numeric cell is empty or not a number
type MalformedFieldError struct {
	Field string
	Value string
	Team  string
	Date  time.Time
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s %q for team %q on %s", e.Field, e.Value, e.Team, e.Date.Format(DateLayout))
}

func (e *MalformedFieldError) Reason() string { return ReasonMalformedField }

// DuplicateRecordError means a (date, team) pair appeared more than once
type DuplicateRecordError struct {
	Team string
	Date time.Time
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate record for team %q on %s", e.Team, e.Date.Format(DateLayout))
}

func (e *DuplicateRecordError) Reason() string { return ReasonDuplicateRecord }

// InsufficientHistoryError is returned when a feature vector needs a value
// the team's history cannot provide yet
type InsufficientHistoryError struct {
	Team    string
	Feature string
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for team %q: %s undefined", e.Team, e.Feature)
}
