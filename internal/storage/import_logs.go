package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportLog represents a single append operation's outcome.
type ImportLog struct {
	ID            int64     `json:"id"`
	RunID         uuid.UUID `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	Source        string    `json:"source"`
	Sheet         string    `json:"sheet"`
	Person        string    `json:"person"`
	Status        string    `json:"status"`
	RowsReceived  int       `json:"rows_received"`
	RowsKept      int       `json:"rows_kept"`
	RowsRemoved   int       `json:"rows_removed"`
	RowsCollapsed int       `json:"rows_collapsed"`
	RowsInserted  int64     `json:"rows_inserted"`
	DurationMs    *int      `json:"duration_ms"`
	ErrorMessage  *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
// A zero RunID is replaced with a fresh random one.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	if log.RunID == uuid.Nil {
		log.RunID = uuid.New()
	}
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (run_id, source, sheet, person, status, rows_received, rows_kept,
		 rows_removed, rows_collapsed, rows_inserted, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING id`,
		log.RunID, log.Source, log.Sheet, log.Person, log.Status, log.RowsReceived, log.RowsKept,
		log.RowsRemoved, log.RowsCollapsed, log.RowsInserted, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, rows_received = $3, rows_kept = $4, rows_removed = $5,
		 rows_collapsed = $6, rows_inserted = $7, duration_ms = $8, error_message = $9
		 WHERE id = $1`,
		id, log.Status, log.RowsReceived, log.RowsKept, log.RowsRemoved,
		log.RowsCollapsed, log.RowsInserted, log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, run_id, created_at, source, sheet, person, status, rows_received, rows_kept,
		 rows_removed, rows_collapsed, rows_inserted, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.CreatedAt, &l.Source, &l.Sheet, &l.Person, &l.Status,
			&l.RowsReceived, &l.RowsKept, &l.RowsRemoved, &l.RowsCollapsed, &l.RowsInserted,
			&l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
