package analyze

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves the report as an .xlsx file with one sheet per statistic.
func WriteWorkbook(path string, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{
			name:   "Avg Weight per Exercise",
			header: []any{"Person", "Exercise", "Day", "Avg Weight", "Sets"},
			rows:   exerciseDayRows(r.ByPerson, false),
		},
		{
			name:   "Avg Weight per Person",
			header: []any{"Exercise", "Day", "Person", "Avg Weight", "Sets"},
			rows:   exerciseDayRows(r.ByExercise, true),
		},
		{
			name:   "Total Weight per Day",
			header: []any{"Person", "Day", "Total Weight", "Sets", "Reps"},
			rows:   volumeRows(r.Volume),
		},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", s.name, err)
		}

		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return fmt.Errorf("writing header of %q: %w", s.name, err)
		}
		if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("styling header of %q: %w", s.name, err)
		}
		for j, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("writing %q row %d: %w", s.name, j+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func exerciseDayRows(entries []ExerciseDay, exerciseFirst bool) [][]any {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if exerciseFirst {
			rows = append(rows, []any{e.Exercise, e.Day, e.Person, e.AvgWeight, e.Sets})
		} else {
			rows = append(rows, []any{e.Person, e.Exercise, e.Day, e.AvgWeight, e.Sets})
		}
	}
	return rows
}

func volumeRows(entries []DayVolume) [][]any {
	rows := make([][]any, 0, len(entries))
	for _, v := range entries {
		rows = append(rows, []any{v.Person, v.Day, v.TotalWeight, v.Sets, v.Reps})
	}
	return rows
}
