// Package analyze computes per-person, per-exercise and per-day statistics
// over workout rows.
package analyze

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/claude/liftsheet/internal/models"
)

// ExerciseDay is the average weight one person lifted on one exercise on one day.
type ExerciseDay struct {
	Person    string  `json:"person"`
	Exercise  string  `json:"exercise"`
	Day       string  `json:"day"`
	AvgWeight float64 `json:"avg_weight"`
	Sets      int     `json:"sets"`
}

// DayVolume is the total weight moved (weight × reps) by one person on one day.
type DayVolume struct {
	Person      string  `json:"person"`
	Day         string  `json:"day"`
	TotalWeight float64 `json:"total_weight"`
	Sets        int     `json:"sets"`
	Reps        float64 `json:"reps"`
}

// Report bundles all statistics for a dataset.
type Report struct {
	// ByPerson is sorted by person, exercise, day.
	ByPerson []ExerciseDay `json:"avg_weight_per_exercise"`
	// ByExercise holds the same averages sorted by exercise, day, person.
	ByExercise []ExerciseDay `json:"avg_weight_per_person"`
	// Volume is sorted by person, day.
	Volume []DayVolume `json:"total_weight_per_day"`
	// Skipped counts rows that could not be parsed.
	Skipped int `json:"skipped"`
}

// Sets converts rows to typed sets. Unparseable rows are logged and counted.
func Sets(rows [][]string, log *slog.Logger) ([]models.WorkoutSet, int) {
	sets := make([]models.WorkoutSet, 0, len(rows))
	skipped := 0
	for i, r := range rows {
		ws, err := models.ParseWorkoutSet(r)
		if err != nil {
			skipped++
			if log != nil {
				log.Warn("skipping unparseable row", "row", i+1, "error", err)
			}
			continue
		}
		sets = append(sets, ws)
	}
	return sets, skipped
}

// Build computes every statistic over rows.
func Build(rows [][]string, log *slog.Logger) *Report {
	sets, skipped := Sets(rows, log)
	return &Report{
		ByPerson:   AvgWeightByPersonExercise(sets),
		ByExercise: AvgWeightByExercisePerson(sets),
		Volume:     TotalVolumeByPersonDay(sets),
		Skipped:    skipped,
	}
}

type exerciseDayKey struct {
	person, exercise, day string
}

func averageWeights(sets []models.WorkoutSet) []ExerciseDay {
	sums := make(map[exerciseDayKey]*ExerciseDay)
	for _, s := range sets {
		// Blank weights are missing values, not zeros.
		if !s.HasWeight {
			continue
		}
		k := exerciseDayKey{s.Person, s.ExerciseName, s.Day()}
		e, ok := sums[k]
		if !ok {
			e = &ExerciseDay{Person: k.person, Exercise: k.exercise, Day: k.day}
			sums[k] = e
		}
		e.AvgWeight += s.Weight
		e.Sets++
	}

	out := make([]ExerciseDay, 0, len(sums))
	for _, e := range sums {
		e.AvgWeight /= float64(e.Sets)
		out = append(out, *e)
	}
	return out
}

// AvgWeightByPersonExercise averages Weight per (person, exercise, day).
func AvgWeightByPersonExercise(sets []models.WorkoutSet) []ExerciseDay {
	out := averageWeights(sets)
	slices.SortFunc(out, func(a, b ExerciseDay) int {
		return cmp.Or(
			cmp.Compare(a.Person, b.Person),
			cmp.Compare(a.Exercise, b.Exercise),
			cmp.Compare(a.Day, b.Day),
		)
	})
	return out
}

// AvgWeightByExercisePerson averages Weight per (exercise, day, person).
func AvgWeightByExercisePerson(sets []models.WorkoutSet) []ExerciseDay {
	out := averageWeights(sets)
	slices.SortFunc(out, func(a, b ExerciseDay) int {
		return cmp.Or(
			cmp.Compare(a.Exercise, b.Exercise),
			cmp.Compare(a.Day, b.Day),
			cmp.Compare(a.Person, b.Person),
		)
	})
	return out
}

// TotalVolumeByPersonDay sums Weight × Reps per (person, day).
func TotalVolumeByPersonDay(sets []models.WorkoutSet) []DayVolume {
	type key struct{ person, day string }
	sums := make(map[key]*DayVolume)
	for _, s := range sets {
		k := key{s.Person, s.Day()}
		v, ok := sums[k]
		if !ok {
			v = &DayVolume{Person: k.person, Day: k.day}
			sums[k] = v
		}
		v.TotalWeight += s.Weight * s.Reps
		v.Reps += s.Reps
		v.Sets++
	}

	out := make([]DayVolume, 0, len(sums))
	for _, v := range sums {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b DayVolume) int {
		return cmp.Or(cmp.Compare(a.Person, b.Person), cmp.Compare(a.Day, b.Day))
	})
	return out
}

// Filter keeps only the entries for person (all when empty) and exercise (all when empty).
func Filter(entries []ExerciseDay, person, exercise string) []ExerciseDay {
	if person == "" && exercise == "" {
		return entries
	}
	var out []ExerciseDay
	for _, e := range entries {
		if person != "" && e.Person != person {
			continue
		}
		if exercise != "" && e.Exercise != exercise {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Stat names accepted by Select.
const (
	StatAvgWeightPerExercise = "avg_weight_per_exercise"
	StatAvgWeightPerPerson   = "avg_weight_per_person"
	StatTotalWeightPerDay    = "total_weight_per_day"
)

// Select returns the named statistic from the report.
func (r *Report) Select(stat string) (any, error) {
	switch stat {
	case StatAvgWeightPerExercise:
		return r.ByPerson, nil
	case StatAvgWeightPerPerson:
		return r.ByExercise, nil
	case StatTotalWeightPerDay:
		return r.Volume, nil
	default:
		return nil, fmt.Errorf("unknown statistic %q", stat)
	}
}
