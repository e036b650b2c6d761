package features

import (
	"database/sql"

	"matchform/pipeline/internal/models"
)

// Window defaults: up to five matches, at least three for a value
const (
	DefaultWindow     = 5
	DefaultMinPeriods = 3
)

// RollingWindow configures trailing-window averages
type RollingWindow struct {
	Size       int
	MinPeriods int
}

// DefaultRollingWindow returns the five-match, three-minimum window
func DefaultRollingWindow() RollingWindow {
	return RollingWindow{Size: DefaultWindow, MinPeriods: DefaultMinPeriods}
}

// Leakfree returns one row per record where record i averages records
// max(0, i-Size) through i-1. The current match is never included.
func (w RollingWindow) Leakfree(records []models.MatchRecord) []models.RollingFeatureRow {
	rows := make([]models.RollingFeatureRow, len(records))
	for i := range records {
		lo := i - w.Size
		if lo < 0 {
			lo = 0
		}
		rows[i] = w.mean(records[lo:i])
	}
	return rows
}

// Inclusive returns the average over the last Size records, the latest
// one included. It describes form as of the most recent completed match.
func (w RollingWindow) Inclusive(records []models.MatchRecord) models.RollingFeatureRow {
	lo := len(records) - w.Size
	if lo < 0 {
		lo = 0
	}
	return w.mean(records[lo:])
}

func (w RollingWindow) mean(window []models.MatchRecord) models.RollingFeatureRow {
	var row models.RollingFeatureRow
	if len(window) < w.MinPeriods || len(window) == 0 {
		return row
	}
	n := float64(len(window))
	for s := 0; s < models.NumStats; s++ {
		var sum float64
		for _, rec := range window {
			sum += rec.Stats[s]
		}
		row[s] = sql.NullFloat64{Float64: sum / n, Valid: true}
	}
	return row
}
