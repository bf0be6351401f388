// Package sample generates synthetic workout logs for demos and tests.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/claude/liftsheet/internal/models"
)

// Options controls the generated data set.
type Options struct {
	People    []string
	Exercises []string
	Days      int
	Start     time.Time
	Seed      uint64
}

// DefaultOptions is five people training three barbell lifts daily for 90 days.
func DefaultOptions() Options {
	return Options{
		People:    []string{"Trevor", "Chris", "Alice", "Bob", "Emily"},
		Exercises: []string{"Bench Press (Barbell)", "Deadlift (Barbell)", "Squat (Barbell)"},
		Days:      90,
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate returns one set per person, exercise and day. Weight starts between
// 50 and 100 and drifts upward with noise; reps are 5-10 and RPE 6-10.
// The same Seed always yields the same rows.
func Generate(opts Options) [][]string {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	rows := make([][]string, 0, len(opts.People)*len(opts.Exercises)*opts.Days)
	for _, person := range opts.People {
		for _, exercise := range opts.Exercises {
			weight := 50 + rng.Float64()*50
			drift := 0.1 + rng.Float64()*0.4
			for day := range opts.Days {
				weight += (drift + rng.NormFloat64()*0.1) * (1 + float64(day)*0.01)
				rpe := 6 + rng.Float64()*4
				rows = append(rows, []string{
					person,
					opts.Start.AddDate(0, 0, day).Format(models.DateLayout),
					person + " Workout",
					"1h",
					exercise,
					"1",
					strconv.FormatFloat(math.Round(weight*100)/100, 'f', -1, 64),
					strconv.Itoa(5 + rng.IntN(6)),
					"0",
					"0",
					"",
					"",
					strconv.FormatFloat(math.Round(rpe*10)/10, 'f', -1, 64),
				})
			}
		}
	}
	return rows
}

// WriteCSV writes rows with the standard header.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}
