package storage

import (
	"context"
	"fmt"
	"time"
)

// RPEBand holds the count and percentage of sets in one RPE range.
type RPEBand struct {
	Band     string  `json:"band"`
	RPERange string  `json:"rpe_range"`
	Sets     int     `json:"sets"`
	Pct      float64 `json:"pct"`
}

// ExerciseSummary holds aggregated stats for a single exercise.
type ExerciseSummary struct {
	Name      string   `json:"name"`
	TotalSets int      `json:"total_sets"`
	TotalReps int      `json:"total_reps"`
	Tonnage   float64  `json:"tonnage"`
	MaxWeight float64  `json:"max_weight"`
	AvgRPE    *float64 `json:"avg_rpe,omitempty"`
}

// ExerciseProgression holds one day of a specific exercise.
type ExerciseProgression struct {
	Date           string   `json:"date"`
	MaxWeight      float64  `json:"max_weight"`
	SessionTonnage float64  `json:"session_tonnage"`
	Sets           int      `json:"sets"`
	AvgRPE         *float64 `json:"avg_rpe,omitempty"`
}

// TrainingIntensityResult holds the complete intensity analysis.
type TrainingIntensityResult struct {
	RPEDistribution []RPEBand             `json:"rpe_distribution"`
	FailureRatePct  float64               `json:"failure_rate_pct"`
	TotalSets       int                   `json:"total_sets"`
	TrackedSets     int                   `json:"tracked_sets"`
	Exercises       []ExerciseSummary     `json:"exercises"`
	Progression     []ExerciseProgression `json:"progression,omitempty"`
}

// IntensityQuery selects the sets analysed by GetTrainingIntensity.
// Empty Person matches everyone; a non-empty Exercise is a case-insensitive
// substring and also enables the per-day progression.
type IntensityQuery struct {
	Sheet      string
	Person     string
	Exercise   string
	Start, End time.Time
}

// GetTrainingIntensity returns the RPE distribution, failure rate, per-exercise
// stats and, when an exercise is given, its day-by-day progression.
// Sets without an RPE are counted as untracked; warm-ups are excluded.
func (db *DB) GetTrainingIntensity(ctx context.Context, q IntensityQuery) (*TrainingIntensityResult, error) {
	result := &TrainingIntensityResult{}
	start, end := boundRange(q.Start, q.End)
	args := []any{q.Sheet, start, end, q.Person, q.Exercise}
	const where = `sheet = $1
		   AND performed_at >= $2 AND performed_at < $3
		   AND ($4::text = '' OR person = $4)
		   AND ($5::text = '' OR exercise_name ILIKE '%' || $5 || '%')
		   AND upper(set_order) <> 'W'`

	bandRows, err := db.Pool.Query(ctx,
		`SELECT band, rpe_range, sets FROM (
			SELECT
				CASE
					WHEN rpe_num IS NULL THEN 'untracked'
					WHEN rpe_num >= 10 THEN 'failure'
					WHEN rpe_num >= 9 THEN 'near_failure'
					WHEN rpe_num >= 8 THEN 'moderate'
					WHEN rpe_num >= 7 THEN 'easy'
					ELSE 'very_easy'
				END AS band,
				CASE
					WHEN rpe_num IS NULL THEN 'untracked'
					WHEN rpe_num >= 10 THEN '10'
					WHEN rpe_num >= 9 THEN '9-9.5'
					WHEN rpe_num >= 8 THEN '8-8.5'
					WHEN rpe_num >= 7 THEN '7-7.5'
					ELSE '<7'
				END AS rpe_range,
				COUNT(*)::int AS sets
			FROM workout_rows
			WHERE `+where+`
			GROUP BY band, rpe_range
		) sub
		ORDER BY CASE band
			WHEN 'failure' THEN 1
			WHEN 'near_failure' THEN 2
			WHEN 'moderate' THEN 3
			WHEN 'easy' THEN 4
			WHEN 'very_easy' THEN 5
			WHEN 'untracked' THEN 6
		END`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying RPE distribution: %w", err)
	}
	defer bandRows.Close()

	var failureSets int
	for bandRows.Next() {
		var b RPEBand
		if err := bandRows.Scan(&b.Band, &b.RPERange, &b.Sets); err != nil {
			return nil, fmt.Errorf("scanning RPE band: %w", err)
		}
		result.TotalSets += b.Sets
		if b.Band != "untracked" {
			result.TrackedSets += b.Sets
		}
		if b.Band == "failure" || b.Band == "near_failure" {
			failureSets += b.Sets
		}
		result.RPEDistribution = append(result.RPEDistribution, b)
	}
	if err := bandRows.Err(); err != nil {
		return nil, err
	}
	applyBandPercentages(result, failureSets)

	exRows, err := db.Pool.Query(ctx,
		`SELECT exercise_name,
		        COUNT(*)::int,
		        COALESCE(SUM(reps_num), 0)::int,
		        COALESCE(SUM(weight_num * reps_num), 0),
		        COALESCE(MAX(weight_num), 0),
		        AVG(rpe_num)
		 FROM workout_rows
		 WHERE `+where+`
		 GROUP BY exercise_name
		 ORDER BY COALESCE(SUM(weight_num * reps_num), 0) DESC, exercise_name`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise summary: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var e ExerciseSummary
		if err := exRows.Scan(&e.Name, &e.TotalSets, &e.TotalReps, &e.Tonnage, &e.MaxWeight, &e.AvgRPE); err != nil {
			return nil, fmt.Errorf("scanning exercise summary: %w", err)
		}
		result.Exercises = append(result.Exercises, e)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	if q.Exercise == "" {
		return result, nil
	}

	progRows, err := db.Pool.Query(ctx,
		`SELECT performed_at::date AS day,
		        COALESCE(MAX(weight_num), 0),
		        COALESCE(SUM(weight_num * reps_num), 0),
		        COUNT(*)::int,
		        AVG(rpe_num)
		 FROM workout_rows
		 WHERE `+where+`
		 GROUP BY day
		 ORDER BY day ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise progression: %w", err)
	}
	defer progRows.Close()

	for progRows.Next() {
		var p ExerciseProgression
		var d time.Time
		if err := progRows.Scan(&d, &p.MaxWeight, &p.SessionTonnage, &p.Sets, &p.AvgRPE); err != nil {
			return nil, fmt.Errorf("scanning exercise progression: %w", err)
		}
		p.Date = d.Format(time.DateOnly)
		result.Progression = append(result.Progression, p)
	}
	return result, progRows.Err()
}

// applyBandPercentages fills each band's share of all sets and the share of
// tracked sets at RPE 9 or above.
func applyBandPercentages(result *TrainingIntensityResult, failureSets int) {
	if result.TotalSets > 0 {
		for i := range result.RPEDistribution {
			result.RPEDistribution[i].Pct = float64(result.RPEDistribution[i].Sets) / float64(result.TotalSets) * 100
		}
	}
	if result.TrackedSets > 0 {
		result.FailureRatePct = float64(failureSets) / float64(result.TrackedSets) * 100
	}
}
