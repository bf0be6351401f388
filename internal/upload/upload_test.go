package upload

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/ingest/strong"
	"github.com/claude/liftsheet/internal/sheets"
)

const exportCSV = `Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE
2024-01-01 07:00:00,Push,1h,Bench Press,1,60,8,0,0,,,
2024-01-01 07:00:00,Push,1h,Bench Press,2,62.5,6,0,0,,,
2024-01-02 07:00:00,Legs,1h,Squat,1,100,5,0,0,,,
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strong.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newUploader(store sheets.Store, state *StateDB, dryRun bool) *Uploader {
	log := discardLogger()
	return New(strong.NewProvider(false, log), store, state, "memory", dedup.New(nil, log), dryRun, log)
}

// TestUploaderAppendsNewRows verifies a fresh export lands in an empty sheet.
func TestUploaderAppendsNewRows(t *testing.T) {
	store := sheets.NewMemory()
	path := writeExport(t, exportCSV)

	stats, err := newUploader(store, nil, false).Run(context.Background(), Job{Person: "Alice", File: path, Sheet: "Combined Data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesUploaded != 1 || stats.RowsKept != 3 {
		t.Errorf("uploaded=%d kept=%d, want 1/3", stats.FilesUploaded, stats.RowsKept)
	}
	rows, _ := store.ReadRows(context.Background(), "Combined Data")
	if len(rows) != 3 {
		t.Fatalf("stored rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Alice" {
		t.Errorf("person = %q, want Alice", rows[0][0])
	}
}

// TestUploaderSkipsDuplicates verifies re-uploading an overlapping export only
// appends the new set and reports the rest as removed.
func TestUploaderSkipsDuplicates(t *testing.T) {
	store := sheets.NewMemory()
	ctx := context.Background()
	first := writeExport(t, exportCSV)
	if _, err := newUploader(store, nil, false).Run(ctx, Job{Person: "Alice", File: first, Sheet: "s"}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	second := writeExport(t, exportCSV+"2024-01-02 07:00:00,Legs,1h,Squat,2,105,5,0,0,,,\n")
	stats, err := newUploader(store, nil, false).Run(ctx, Job{Person: "Alice", File: second, Sheet: "s"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.RowsKept != 1 || stats.RowsRemoved != 3 {
		t.Errorf("kept=%d removed=%d, want 1/3", stats.RowsKept, stats.RowsRemoved)
	}
	rows, _ := store.ReadRows(ctx, "s")
	if len(rows) != 4 {
		t.Errorf("stored rows = %d, want 4", len(rows))
	}
}

// TestUploaderNothingToUpload verifies an all-duplicate export is a no-op, not an error.
func TestUploaderNothingToUpload(t *testing.T) {
	store := sheets.NewMemory()
	ctx := context.Background()
	path := writeExport(t, exportCSV)
	if _, err := newUploader(store, nil, false).Run(ctx, Job{Person: "Alice", File: path, Sheet: "s"}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	stats, err := newUploader(store, nil, false).Run(ctx, Job{Person: "Alice", File: path, Sheet: "s"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesEmpty != 1 {
		t.Errorf("FilesEmpty = %d, want 1", stats.FilesEmpty)
	}
	if got := stats.Files[0].Outcome; got != OutcomeNothingToUpload {
		t.Errorf("outcome = %q, want %q", got, OutcomeNothingToUpload)
	}
}

// TestUploaderDryRun verifies a dry run reports but does not append.
func TestUploaderDryRun(t *testing.T) {
	store := sheets.NewMemory()
	path := writeExport(t, exportCSV)
	stats, err := newUploader(store, nil, true).Run(context.Background(), Job{Person: "Alice", File: path, Sheet: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Files[0].Outcome != OutcomeDryRun || stats.RowsKept != 3 {
		t.Errorf("outcome=%q kept=%d", stats.Files[0].Outcome, stats.RowsKept)
	}
	if rows, _ := store.ReadRows(context.Background(), "s"); len(rows) != 0 {
		t.Errorf("stored rows = %d, want 0", len(rows))
	}
}

// TestUploaderStateSkipsUnchangedFile verifies the state DB short-circuits a
// file that was already appended with the same contents.
func TestUploaderStateSkipsUnchangedFile(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	defer state.Close()

	store := sheets.NewMemory()
	ctx := context.Background()
	path := writeExport(t, exportCSV)
	job := Job{Person: "Alice", File: path, Sheet: "s"}

	if _, err := newUploader(store, state, false).Run(ctx, job); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := newUploader(store, state, false).Run(ctx, job)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesSkipped != 1 || stats.RowsRead != 0 {
		t.Errorf("skipped=%d read=%d, want 1/0", stats.FilesSkipped, stats.RowsRead)
	}

	// A different person is a different upload of the same file.
	stats, err = newUploader(store, state, false).Run(ctx, Job{Person: "Bob", File: path, Sheet: "s"})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if stats.FilesUploaded != 1 {
		t.Errorf("FilesUploaded = %d, want 1", stats.FilesUploaded)
	}
}

// TestUploaderStateIsPerDestination verifies a file already uploaded to one
// store is still uploaded to another store that shares the state directory.
func TestUploaderStateIsPerDestination(t *testing.T) {
	dir := t.TempDir()
	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	defer state.Close()

	ctx := context.Background()
	path := writeExport(t, exportCSV)
	log := discardLogger()
	run := func(store sheets.Store, dest string) *Stats {
		t.Helper()
		u := New(strong.NewProvider(false, log), store, state, dest, dedup.New(nil, log), false, log)
		stats, err := u.Run(ctx, Job{Person: "Alice", File: path, Sheet: "Combined Data"})
		if err != nil {
			t.Fatalf("upload to %s: %v", dest, err)
		}
		return stats
	}

	first, second := sheets.NewMemory(), sheets.NewMemory()
	run(first, "https://a.example")
	stats := run(second, "https://b.example")
	if stats.Files[0].Outcome != OutcomeUploaded {
		t.Fatalf("second destination outcome = %q, want uploaded", stats.Files[0].Outcome)
	}
	if rows, _ := second.ReadRows(ctx, "Combined Data"); len(rows) != 3 {
		t.Errorf("second destination rows = %d, want 3", len(rows))
	}

	// The job's own destination takes precedence over the Uploader's.
	u := New(strong.NewProvider(false, log), sheets.NewMemory(), state, "https://c.example", dedup.New(nil, log), false, log)
	stats, err = u.Run(ctx, Job{Person: "Alice", File: path, Sheet: "Combined Data", Destination: "https://a.example"})
	if err != nil {
		t.Fatalf("job destination: %v", err)
	}
	if stats.Files[0].Outcome != OutcomeAlreadyUploaded {
		t.Errorf("job destination outcome = %q, want already_uploaded", stats.Files[0].Outcome)
	}
}

// TestOpenStateDBDropsLegacyTable verifies a state table without a
// destination column is replaced rather than breaking lookups.
func TestOpenStateDBDropsLegacyTable(t *testing.T) {
	dir := t.TempDir()
	legacy, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = legacy.Exec(`CREATE TABLE uploaded_files (
		path TEXT NOT NULL, person TEXT NOT NULL, sheet TEXT NOT NULL,
		size INTEGER NOT NULL, hash TEXT NOT NULL, rows_sent INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (path, person, sheet))`)
	if err != nil {
		t.Fatalf("creating legacy table: %v", err)
	}
	legacy.Close()

	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	defer state.Close()

	f := FileState{Path: "/x.csv", Person: "Alice", Sheet: "s", Destination: "d", Size: 1, Hash: "h"}
	if err := state.MarkUploaded(f, 1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if done, err := state.IsUploaded(f); err != nil || !done {
		t.Errorf("IsUploaded = %v, %v; want true", done, err)
	}
}

// countingStore inserts only rows it has not seen, like a database with a
// unique identity index.
type countingStore struct {
	*sheets.Memory
	seen map[string]bool
}

func (c *countingStore) InsertRows(ctx context.Context, sheet string, rows [][]string) (int64, error) {
	var fresh [][]string
	for _, r := range rows {
		k := strings.Join(r, "|")
		if !c.seen[k] {
			c.seen[k] = true
			fresh = append(fresh, r)
		}
	}
	return int64(len(fresh)), c.Memory.AppendRows(ctx, sheet, fresh)
}

// TestUploaderReportsInsertedRows verifies the inserted count comes from the
// store when it reports one, and equals the kept rows otherwise.
func TestUploaderReportsInsertedRows(t *testing.T) {
	ctx := context.Background()
	path := writeExport(t, exportCSV)

	stats, err := newUploader(sheets.NewMemory(), nil, false).Run(ctx, Job{Person: "Alice", File: path, Sheet: "s"})
	if err != nil {
		t.Fatalf("memory run: %v", err)
	}
	if stats.Files[0].Inserted != 3 {
		t.Errorf("memory inserted = %d, want 3", stats.Files[0].Inserted)
	}

	// A concurrent writer already stored the first row.
	store := &countingStore{Memory: sheets.NewMemory(), seen: map[string]bool{
		"Alice|2024-01-01 07:00:00|Push|1h|Bench Press|1|60|8|0|0|||": true,
	}}
	stats, err = newUploader(store, nil, false).Run(ctx, Job{Person: "Alice", File: path, Sheet: "s"})
	if err != nil {
		t.Fatalf("counting run: %v", err)
	}
	if got := stats.Files[0]; got.Kept != 3 || got.Inserted != 2 {
		t.Errorf("kept=%d inserted=%d, want 3/2", got.Kept, got.Inserted)
	}
}

// TestUploaderMalformedRow verifies a short row aborts the upload with ErrMalformedRow.
func TestUploaderMalformedRow(t *testing.T) {
	store := sheets.NewMemory()
	path := writeExport(t, "Date,Workout Name\n2024-01-01,Push\n")
	_, err := newUploader(store, nil, false).Run(context.Background(), Job{Person: "Alice", File: path, Sheet: "s"})
	if !errors.Is(err, dedup.ErrMalformedRow) {
		t.Fatalf("err = %v, want ErrMalformedRow", err)
	}
}

type failingStore struct {
	sheets.Memory
}

func (f *failingStore) ReadRows(context.Context, string) ([][]string, error) {
	return nil, errors.New("sheet unavailable")
}

// TestUploaderSourceError verifies collaborator errors propagate.
func TestUploaderSourceError(t *testing.T) {
	path := writeExport(t, exportCSV)
	_, err := newUploader(&failingStore{}, nil, false).Run(context.Background(), Job{Person: "Alice", File: path, Sheet: "s"})
	if err == nil {
		t.Fatal("expected error from failing store")
	}
}
