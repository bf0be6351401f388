package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Column positions of a workout row. The layout follows the Strong app export
// with a Person column prepended.
const (
	ColPerson = iota
	ColDate
	ColWorkoutName
	ColDuration
	ColExerciseName
	ColSetOrder
	ColWeight
	ColReps
	ColDistance
	ColSeconds
	ColNotes
	ColWorkoutNotes
	ColRPE

	NumColumns
)

// Header is the header row written to new sheets.
var Header = []string{
	"Person", "Date", "Workout Name", "Duration", "Exercise Name", "Set Order",
	"Weight", "Reps", "Distance", "Seconds", "Notes", "Workout Notes", "RPE",
}

// DateLayout is the canonical fixed-width date format used in identity keys.
const DateLayout = "2006-01-02 15:04:05"

// WorkoutSet is a typed view of a single workout row.
type WorkoutSet struct {
	Person       string    `json:"person"`
	Date         time.Time `json:"date"`
	WorkoutName  string    `json:"workout_name"`
	Duration     string    `json:"duration"`
	ExerciseName string    `json:"exercise_name"`
	SetOrder     string    `json:"set_order"`
	Weight       float64   `json:"weight"`
	Reps         float64   `json:"reps"`
	Distance     float64   `json:"distance"`
	Seconds      float64   `json:"seconds"`
	Notes        string    `json:"notes,omitempty"`
	WorkoutNotes string    `json:"workout_notes,omitempty"`
	RPE          *float64  `json:"rpe,omitempty"`

	// HasWeight is false when the Weight column was blank or not a number.
	HasWeight bool `json:"-"`
}

// ParseDate accepts the date formats seen in exports and sample data.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01-02T15:04:05", "2006-01-02 15:04", time.DateOnly} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// ParseWorkoutSet converts a positional row into a WorkoutSet.
// Missing trailing columns are treated as empty.
func ParseWorkoutSet(row []string) (WorkoutSet, error) {
	if len(row) <= ColSetOrder {
		return WorkoutSet{}, fmt.Errorf("row has %d columns, need at least %d", len(row), ColSetOrder+1)
	}
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	date, err := ParseDate(field(ColDate))
	if err != nil {
		return WorkoutSet{}, err
	}

	ws := WorkoutSet{
		Person:       field(ColPerson),
		Date:         date,
		WorkoutName:  field(ColWorkoutName),
		Duration:     field(ColDuration),
		ExerciseName: field(ColExerciseName),
		SetOrder:     field(ColSetOrder),
		Weight:       parseNumber(field(ColWeight)),
		HasWeight:    isNumber(field(ColWeight)),
		Reps:         parseNumber(field(ColReps)),
		Distance:     parseNumber(field(ColDistance)),
		Seconds:      parseNumber(field(ColSeconds)),
		Notes:        field(ColNotes),
		WorkoutNotes: field(ColWorkoutNotes),
	}
	if v := field(ColRPE); v != "" {
		rpe := parseNumber(v)
		ws.RPE = &rpe
	}
	return ws, nil
}

// Row renders the set back into positional columns.
func (ws WorkoutSet) Row() []string {
	rpe := ""
	if ws.RPE != nil {
		rpe = formatNumber(*ws.RPE)
	}
	return []string{
		ws.Person,
		ws.Date.Format(DateLayout),
		ws.WorkoutName,
		ws.Duration,
		ws.ExerciseName,
		ws.SetOrder,
		formatNumber(ws.Weight),
		formatNumber(ws.Reps),
		formatNumber(ws.Distance),
		formatNumber(ws.Seconds),
		ws.Notes,
		ws.WorkoutNotes,
		rpe,
	}
}

// Day returns the calendar day of the set.
func (ws WorkoutSet) Day() string {
	return ws.Date.Format(time.DateOnly)
}

// parseNumber handles both "102.5" and European "102,5". Empty or invalid is 0.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return err == nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
