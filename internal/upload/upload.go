package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/sheets"
)

// Outcome describes what happened to one export file.
type Outcome string

const (
	OutcomeUploaded        Outcome = "uploaded"
	OutcomeNothingToUpload Outcome = "nothing_to_upload"
	OutcomeAlreadyUploaded Outcome = "already_uploaded"
	OutcomeDryRun          Outcome = "dry_run"
)

// Job is one export file to merge into a sheet. Destination identifies the
// store for upload state; an empty Destination falls back to the Uploader's.
type Job struct {
	Person      string
	File        string
	Sheet       string
	Destination string
}

// FileResult is the outcome of a single Job.
type FileResult struct {
	Job       Job
	Outcome   Outcome
	Read      int
	Existing  int
	Kept      int
	Removed   int
	Collapsed int
	// Inserted is the number of rows the store reports as written. Stores
	// that do not report it are taken to have written every kept row.
	Inserted int64
}

// Stats tracks upload progress across jobs.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesEmpty    int

	RowsRead      int
	RowsKept      int
	RowsRemoved   int
	RowsCollapsed int

	Files []FileResult
}

// rowInserter is implemented by stores that report how many rows they inserted.
type rowInserter interface {
	InsertRows(ctx context.Context, sheet string, rows [][]string) (int64, error)
}

// CandidateReader produces labelled candidate rows from an export file.
type CandidateReader interface {
	ReadFile(ctx context.Context, path, person string) ([][]string, error)
}

// Uploader reads exports, removes rows already in the store, and appends the rest.
type Uploader struct {
	reader CandidateReader
	store  sheets.Store
	state  *StateDB
	dest   string
	dedup  *dedup.Deduplicator
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. state may be nil to disable file tracking;
// dest names the store in that state (a server URL or a workbook path).
func New(reader CandidateReader, store sheets.Store, state *StateDB, dest string, d *dedup.Deduplicator, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		reader: reader,
		store:  store,
		state:  state,
		dest:   dest,
		dedup:  d,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes every job in order and stops at the first error.
func (u *Uploader) Run(ctx context.Context, jobs ...Job) (*Stats, error) {
	for _, job := range jobs {
		u.stats.FilesTotal++
		res, err := u.runJob(ctx, job)
		if err != nil {
			return &u.stats, fmt.Errorf("uploading %s: %w", job.File, err)
		}
		u.record(res)
	}
	return &u.stats, nil
}

func (u *Uploader) record(res FileResult) {
	u.stats.Files = append(u.stats.Files, res)
	u.stats.RowsRead += res.Read
	u.stats.RowsKept += res.Kept
	u.stats.RowsRemoved += res.Removed
	u.stats.RowsCollapsed += res.Collapsed

	switch res.Outcome {
	case OutcomeUploaded:
		u.stats.FilesUploaded++
	case OutcomeAlreadyUploaded:
		u.stats.FilesSkipped++
	case OutcomeNothingToUpload:
		u.stats.FilesEmpty++
	}
}

func (u *Uploader) runJob(ctx context.Context, job Job) (FileResult, error) {
	res := FileResult{Job: job}

	var fs FileState
	if u.state != nil {
		var err error
		if job.Destination == "" {
			job.Destination = u.dest
		}
		fs, err = Stat(job)
		if err != nil {
			return res, fmt.Errorf("hashing file: %w", err)
		}
		done, err := u.state.IsUploaded(fs)
		if err != nil {
			return res, fmt.Errorf("checking state: %w", err)
		}
		if done {
			u.log.Info("skipping file (already uploaded)", "file", job.File, "sheet", job.Sheet)
			res.Outcome = OutcomeAlreadyUploaded
			return res, nil
		}
	}

	candidate, err := u.reader.ReadFile(ctx, job.File, job.Person)
	if err != nil {
		return res, fmt.Errorf("reading candidate rows: %w", err)
	}
	res.Read = len(candidate)
	u.log.Info("attempting upload", "file", job.File, "person", job.Person, "rows", len(candidate))

	existing, err := u.store.ReadRows(ctx, job.Sheet)
	if err != nil {
		return res, fmt.Errorf("reading existing rows: %w", err)
	}
	res.Existing = len(existing)

	dd, err := u.dedup.Deduplicate(existing, candidate)
	if err != nil {
		return res, fmt.Errorf("deduplicating: %w", err)
	}
	res.Kept = len(dd.Kept)
	res.Removed = dd.Removed
	res.Collapsed = dd.Collapsed

	if dd.Empty() {
		u.log.Info("nothing to upload", "file", job.File, "removed", dd.Removed)
		res.Outcome = OutcomeNothingToUpload
		return res, u.markUploaded(fs, 0)
	}

	if u.dryRun {
		u.log.Info("dry run: would append rows", "sheet", job.Sheet, "rows", len(dd.Kept))
		res.Outcome = OutcomeDryRun
		return res, nil
	}

	inserted, err := u.append(ctx, job.Sheet, dd.Kept)
	if err != nil {
		return res, fmt.Errorf("appending rows: %w", err)
	}
	res.Inserted = inserted
	u.log.Info("appended rows", "sheet", job.Sheet, "rows", len(dd.Kept), "inserted", inserted)
	res.Outcome = OutcomeUploaded
	return res, u.markUploaded(fs, len(dd.Kept))
}

func (u *Uploader) append(ctx context.Context, sheet string, rows [][]string) (int64, error) {
	if ins, ok := u.store.(rowInserter); ok {
		return ins.InsertRows(ctx, sheet, rows)
	}
	if err := u.store.AppendRows(ctx, sheet, rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (u *Uploader) markUploaded(fs FileState, rows int) error {
	if u.state == nil || u.dryRun {
		return nil
	}
	if err := u.state.MarkUploaded(fs, rows); err != nil {
		return fmt.Errorf("recording upload: %w", err)
	}
	return nil
}
