package features

import (
	"database/sql"

	"matchform/pipeline/internal/models"
)

// ShiftedCumulative returns one row per record built from the records
// strictly before it. The first row is undefined.
func ShiftedCumulative(records []models.MatchRecord) []models.CumulativeStatsRow {
	rows := make([]models.CumulativeStatsRow, len(records))
	var goalDiff, wins, draws, losses int
	for i, rec := range records {
		if i > 0 {
			n := float64(i)
			rows[i] = models.CumulativeStatsRow{
				GoalDiff: sql.NullFloat64{Float64: float64(goalDiff), Valid: true},
				WinPct:   sql.NullFloat64{Float64: float64(wins) / n, Valid: true},
				DrawPct:  sql.NullFloat64{Float64: float64(draws) / n, Valid: true},
				LossPct:  sql.NullFloat64{Float64: float64(losses) / n, Valid: true},
			}
		}

		goalDiff += rec.GoalDiff()
		switch rec.Result {
		case models.ResultWin:
			wins++
		case models.ResultDraw:
			draws++
		case models.ResultLoss:
			losses++
		}
	}
	return rows
}

// SeasonTotals summarizes every record, the latest included
func SeasonTotals(records []models.MatchRecord) models.SeasonTotals {
	var t models.SeasonTotals
	for _, rec := range records {
		t.Matches++
		t.GoalDiff += rec.GoalDiff()
		switch rec.Result {
		case models.ResultWin:
			t.Wins++
		case models.ResultDraw:
			t.Draws++
		case models.ResultLoss:
			t.Losses++
		}
	}
	if t.Matches > 0 {
		n := float64(t.Matches)
		t.WinPct = float64(t.Wins) / n
		t.DrawPct = float64(t.Draws) / n
		t.LossPct = float64(t.Losses) / n
	}
	return t
}
