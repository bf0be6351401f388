package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftsheet/internal/models"
	"github.com/claude/liftsheet/internal/sheets"
)

// rowColumns is the column list of workout_rows in positional row order.
const rowColumns = `person, date, workout_name, duration, exercise_name, set_order,
	weight, reps, distance, seconds, notes, workout_notes, rpe`

// typedColumns are derived from the text columns on insert.
const typedColumns = `performed_at, weight_num, reps_num, rpe_num`

// insertBatch keeps the parameter count under PostgreSQL's 65535 limit.
const insertBatch = 1000

var _ sheets.Catalog = (*DB)(nil)

// ReadRows returns all rows of a sheet in insertion order.
func (db *DB) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+rowColumns+` FROM workout_rows WHERE sheet = $1 ORDER BY id`, sheet)
	if err != nil {
		return nil, fmt.Errorf("querying workout rows: %w", err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		r := make([]string, models.NumColumns)
		dest := make([]any, models.NumColumns)
		for i := range r {
			dest[i] = &r[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning workout row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// AppendRows inserts rows into a sheet. Rows whose identity columns already
// exist are skipped by the unique index.
func (db *DB) AppendRows(ctx context.Context, sheet string, rows [][]string) error {
	_, err := db.InsertRows(ctx, sheet, rows)
	return err
}

// InsertRows batch-inserts rows and returns the count actually inserted.
func (db *DB) InsertRows(ctx context.Context, sheet string, rows [][]string) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		n, err := db.insertRows(ctx, sheet, rows[start:end], start)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (db *DB) insertRows(ctx context.Context, sheet string, rows [][]string, offset int) (int64, error) {
	const width = models.NumColumns + 5

	query := `INSERT INTO workout_rows (sheet, ` + rowColumns + `, ` + typedColumns + `) VALUES `
	args := make([]any, 0, len(rows)*width)
	valueStrings := make([]string, 0, len(rows))
	placeholders := make([]string, width)

	for i, r := range rows {
		if len(r) > models.NumColumns {
			return 0, fmt.Errorf("row %d has %d columns, max %d", offset+i+1, len(r), models.NumColumns)
		}
		base := i * width
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		args = append(args, sheet)
		for j := range models.NumColumns {
			v := ""
			if j < len(r) {
				v = r[j]
			}
			args = append(args, v)
		}
		args = append(args, typedValues(r)...)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting workout rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// typedValues parses the date, weight, reps and RPE of a row. Values that do
// not parse become NULL.
func typedValues(r []string) []any {
	field := func(i int) string {
		if i < len(r) {
			return strings.TrimSpace(r[i])
		}
		return ""
	}
	var performedAt *time.Time
	if t, err := models.ParseDate(field(models.ColDate)); err == nil {
		performedAt = &t
	}
	return []any{
		performedAt,
		parseNullable(field(models.ColWeight)),
		parseNullable(field(models.ColReps)),
		parseNullable(field(models.ColRPE)),
	}
}

func parseNullable(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ListSheets returns the names of sheets holding at least one row.
func (db *DB) ListSheets(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT DISTINCT sheet FROM workout_rows ORDER BY sheet`)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning sheet name: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
