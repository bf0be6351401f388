package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB tracks which export files have been appended to which sheet of
// which destination so an unchanged file is not re-read on every run.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if err := dropLegacyState(db); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_files (
		path        TEXT NOT NULL,
		person      TEXT NOT NULL,
		sheet       TEXT NOT NULL,
		destination TEXT NOT NULL,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		rows_sent   INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (path, person, sheet, destination)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// dropLegacyState removes a state table written before uploads were keyed by
// destination. Its entries cannot say where a file went, so they are
// forgotten; the next run re-reads those files and dedup drops what is stored.
func dropLegacyState(db *sql.DB) error {
	var tables, withDest int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'uploaded_files'`,
	).Scan(&tables)
	if err != nil || tables == 0 {
		return err
	}
	err = db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('uploaded_files') WHERE name = 'destination'`,
	).Scan(&withDest)
	if err != nil {
		return fmt.Errorf("inspecting state table: %w", err)
	}
	if withDest > 0 {
		return nil
	}
	if _, err := db.Exec(`DROP TABLE uploaded_files`); err != nil {
		return fmt.Errorf("dropping legacy state table: %w", err)
	}
	return nil
}

// FileState identifies one export file destined for one sheet of one store.
// Destination names the store: a server URL or an absolute workbook path.
type FileState struct {
	Path        string
	Person      string
	Sheet       string
	Destination string
	Size        int64
	Hash        string
}

// IsUploaded checks if the file was already appended with the same size and hash.
func (s *StateDB) IsUploaded(f FileState) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM uploaded_files
		 WHERE path = ? AND person = ? AND sheet = ? AND destination = ? AND size = ? AND hash = ?`,
		f.Path, f.Person, f.Sheet, f.Destination, f.Size, f.Hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records that a file was successfully appended.
func (s *StateDB) MarkUploaded(f FileState, rowsSent int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO uploaded_files (path, person, sheet, destination, size, hash, rows_sent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Path, f.Person, f.Sheet, f.Destination, f.Size, f.Hash, rowsSent,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Stat builds the FileState of a job's file, hashing its contents.
func Stat(job Job) (FileState, error) {
	abs, err := filepath.Abs(job.File)
	if err != nil {
		return FileState{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileState{}, err
	}
	hash, err := HashFile(abs)
	if err != nil {
		return FileState{}, err
	}
	return FileState{
		Path:        abs,
		Person:      job.Person,
		Sheet:       job.Sheet,
		Destination: job.Destination,
		Size:        info.Size(),
		Hash:        hash,
	}, nil
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
