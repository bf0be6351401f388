package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingSummaryPeriod holds one person's strength volume for one period.
type TrainingSummaryPeriod struct {
	Period            string  `json:"period"`
	Person            string  `json:"person"`
	WorkingSets       int     `json:"working_sets"`
	TotalReps         int     `json:"total_reps"`
	Tonnage           float64 `json:"tonnage"`
	Sessions          int     `json:"sessions"`
	Exercises         int     `json:"exercises"`
	AvgSetsPerSession float64 `json:"avg_sets_per_session"`
}

// GetTrainingSummary returns working sets, reps, tonnage and session counts
// per period and person. Warm-up sets (set order "W") are excluded. An empty
// person matches everyone.
func (db *DB) GetTrainingSummary(ctx context.Context, sheet, person string, start, end time.Time, bucket string) ([]TrainingSummaryPeriod, error) {
	start, end = boundRange(start, end)
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, performed_at)::date AS period,
		        person,
		        COUNT(*)::int AS working_sets,
		        COALESCE(SUM(reps_num), 0)::int AS total_reps,
		        COALESCE(SUM(weight_num * reps_num), 0) AS tonnage,
		        COUNT(DISTINCT performed_at::date)::int AS sessions,
		        COUNT(DISTINCT exercise_name)::int AS exercises
		 FROM workout_rows
		 WHERE sheet = $2
		   AND performed_at >= $3 AND performed_at < $4
		   AND ($5::text = '' OR person = $5)
		   AND upper(set_order) <> 'W'
		 GROUP BY period, person
		 ORDER BY period DESC, person ASC`,
		truncInterval(bucket), sheet, start, end, person)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []TrainingSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Person, &p.WorkingSets, &p.TotalReps, &p.Tonnage, &p.Sessions, &p.Exercises); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format(time.DateOnly)
		if p.Sessions > 0 {
			p.AvgSetsPerSession = float64(p.WorkingSets) / float64(p.Sessions)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// boundRange replaces a zero end with a far-future bound so that zero times
// mean unbounded.
func boundRange(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return start, end
}

// truncInterval converts bucket strings like "1 month" to the field name
// date_trunc expects. Unknown buckets fall back to weekly.
func truncInterval(bucket string) string {
	switch bucket {
	case "day", "1 day":
		return "day"
	case "month", "1 month":
		return "month"
	default:
		return "week"
	}
}
