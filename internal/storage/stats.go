package storage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DataStats holds aggregate statistics about all stored rows.
type DataStats struct {
	TotalRows   int64       `json:"total_rows"`
	TotalPeople int64       `json:"total_people"`
	ImportRuns  int64       `json:"import_runs"`
	EarliestSet *time.Time  `json:"earliest_set"`
	LatestSet   *time.Time  `json:"latest_set"`
	Sheets      []SheetStat `json:"sheets"`
}

// SheetStat holds summary stats for a single sheet.
type SheetStat struct {
	Name      string     `json:"name"`
	Rows      int64      `json:"rows"`
	People    int64      `json:"people"`
	Exercises int64      `json:"exercises"`
	LastSet   *time.Time `json:"last_set,omitempty"`
}

// GetDataStats returns aggregate statistics across all sheets. The three
// queries are independent and run concurrently on the pool.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := db.Pool.QueryRow(gctx,
			`SELECT COUNT(*), COUNT(DISTINCT person), MIN(performed_at), MAX(performed_at)
			 FROM workout_rows`,
		).Scan(&stats.TotalRows, &stats.TotalPeople, &stats.EarliestSet, &stats.LatestSet)
		if err != nil {
			return fmt.Errorf("counting workout rows: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := db.Pool.QueryRow(gctx, `SELECT COUNT(*) FROM import_logs`).Scan(&stats.ImportRuns)
		if err != nil {
			return fmt.Errorf("counting import runs: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sheets, err := db.sheetStats(gctx)
		stats.Sheets = sheets
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) sheetStats(ctx context.Context) ([]SheetStat, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT sheet, COUNT(*), COUNT(DISTINCT person), COUNT(DISTINCT exercise_name), MAX(performed_at)
		 FROM workout_rows
		 GROUP BY sheet
		 ORDER BY COUNT(*) DESC, sheet`)
	if err != nil {
		return nil, fmt.Errorf("querying rows by sheet: %w", err)
	}
	defer rows.Close()

	var result []SheetStat
	for rows.Next() {
		var s SheetStat
		if err := rows.Scan(&s.Name, &s.Rows, &s.People, &s.Exercises, &s.LastSet); err != nil {
			return nil, fmt.Errorf("scanning sheet stat: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
