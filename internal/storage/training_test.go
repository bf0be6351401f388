package storage

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestTruncInterval(t *testing.T) {
	tests := map[string]string{
		"day":     "day",
		"1 day":   "day",
		"1 week":  "week",
		"month":   "month",
		"1 month": "month",
		"":        "week",
		"decade":  "week",
	}
	for bucket, want := range tests {
		if got := truncInterval(bucket); got != want {
			t.Errorf("truncInterval(%q) = %q, want %q", bucket, got, want)
		}
	}
}

// TestBoundRange verifies a zero end becomes an upper bound and a set end is kept.
func TestBoundRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, end := boundRange(start, time.Time{})
	if end.Year() != 9999 {
		t.Errorf("end = %v, want year 9999", end)
	}
	want := start.AddDate(0, 1, 0)
	if _, end := boundRange(start, want); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

// TestApplyBandPercentages verifies band shares are of all sets while the
// failure rate is of tracked sets only.
func TestApplyBandPercentages(t *testing.T) {
	r := &TrainingIntensityResult{
		RPEDistribution: []RPEBand{
			{Band: "failure", Sets: 1},
			{Band: "moderate", Sets: 1},
			{Band: "untracked", Sets: 2},
		},
		TotalSets:   4,
		TrackedSets: 2,
	}
	applyBandPercentages(r, 1)
	if r.RPEDistribution[2].Pct != 50 {
		t.Errorf("untracked pct = %v, want 50", r.RPEDistribution[2].Pct)
	}
	if r.FailureRatePct != 50 {
		t.Errorf("failure rate = %v, want 50", r.FailureRatePct)
	}

	empty := &TrainingIntensityResult{}
	applyBandPercentages(empty, 0)
	if empty.FailureRatePct != 0 {
		t.Errorf("empty failure rate = %v", empty.FailureRatePct)
	}
}

// TestTrainingAnalytics runs the summary and intensity queries against a real
// PostgreSQL. Warm-up sets are excluded from both.
func TestTrainingAnalytics(t *testing.T) {
	db, sheet := testDB(t)
	ctx := context.Background()

	rows := [][]string{
		{"Alice", "2024-01-01 09:00:00", "Legs", "1h", "Squat", "W", "60", "5", "", "", "", "", ""},
		{"Alice", "2024-01-01 09:00:00", "Legs", "1h", "Squat", "1", "100", "5", "", "", "", "", "8"},
		{"Alice", "2024-01-01 09:00:00", "Legs", "1h", "Squat", "2", "100", "5", "", "", "", "", "10"},
		{"Alice", "2024-01-03 09:00:00", "Legs", "1h", "Squat", "1", "105", "5", "", "", "", "", ""},
		{"Bob", "2024-01-02 18:00:00", "Push", "1h", "Bench Press", "1", "80", "8", "", "", "", "", "9"},
	}
	if _, err := db.InsertRows(ctx, sheet, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	summary, err := db.GetTrainingSummary(ctx, sheet, "Alice", time.Time{}, time.Time{}, "month")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("periods = %d, want 1", len(summary))
	}
	p := summary[0]
	if p.Period != "2024-01-01" || p.WorkingSets != 3 || p.TotalReps != 15 || p.Sessions != 2 {
		t.Errorf("summary = %+v", p)
	}
	if math.Abs(p.Tonnage-1525) > 1e-9 {
		t.Errorf("tonnage = %v, want 1525", p.Tonnage)
	}

	res, err := db.GetTrainingIntensity(ctx, IntensityQuery{Sheet: sheet, Exercise: "squat"})
	if err != nil {
		t.Fatalf("intensity: %v", err)
	}
	if res.TotalSets != 3 || res.TrackedSets != 2 {
		t.Errorf("total=%d tracked=%d, want 3 and 2", res.TotalSets, res.TrackedSets)
	}
	if res.FailureRatePct != 50 {
		t.Errorf("failure rate = %v, want 50", res.FailureRatePct)
	}
	if len(res.Exercises) != 1 || res.Exercises[0].MaxWeight != 105 {
		t.Errorf("exercises = %+v", res.Exercises)
	}
	if len(res.Progression) != 2 || res.Progression[0].Date != "2024-01-01" || res.Progression[0].Sets != 2 {
		t.Errorf("progression = %+v", res.Progression)
	}
}

// TestDataStats verifies the overview counts rows and people of a fresh sheet.
func TestDataStats(t *testing.T) {
	db, sheet := testDB(t)
	ctx := context.Background()

	if _, err := db.InsertRows(ctx, sheet, [][]string{
		{"Alice", "2024-01-01", "W", "1h", "Squat", "1", "100", "5"},
		{"Bob", "2024-01-02", "W", "1h", "Squat", "1", "90", "5"},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stats, err := db.GetDataStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRows < 2 {
		t.Errorf("total rows = %d, want at least 2", stats.TotalRows)
	}
	var found bool
	for _, s := range stats.Sheets {
		if s.Name == sheet {
			found = true
			if s.Rows != 2 || s.People != 2 || s.Exercises != 1 {
				t.Errorf("sheet stat = %+v", s)
			}
		}
	}
	if !found {
		t.Errorf("sheet %q missing from %+v", sheet, stats.Sheets)
	}
}
