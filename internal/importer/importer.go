// Package importer bulk-loads a directory of Strong exports into a row store,
// recording one import log entry per file.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftsheet/internal/storage"
	"github.com/claude/liftsheet/internal/upload"
)

// ImportLogger persists import log entries. *storage.DB satisfies it.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Discover finds exports under root. Two layouts are recognised and may be mixed:
//
//	root/<Person>/*.csv   every CSV in a person's directory
//	root/<Person>.csv     one export per person
//
// Jobs are returned sorted by person, then file path.
func Discover(root, sheet string) ([]upload.Job, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading export directory: %w", err)
	}

	var jobs []upload.Job
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(root, name)

		if e.IsDir() {
			files, err := filepath.Glob(filepath.Join(path, "*.csv"))
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", path, err)
			}
			for _, f := range files {
				jobs = append(jobs, upload.Job{Person: name, File: f, Sheet: sheet})
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			jobs = append(jobs, upload.Job{Person: strings.TrimSuffix(name, filepath.Ext(name)), File: path, Sheet: sheet})
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].Person != jobs[j].Person {
			return jobs[i].Person < jobs[j].Person
		}
		return jobs[i].File < jobs[j].File
	})
	return jobs, nil
}

// Importer runs discovered jobs through an Uploader.
type Importer struct {
	uploader *upload.Uploader
	logs     ImportLogger
	log      *slog.Logger
}

// New creates a new Importer. logs may be nil to skip import logging.
func New(uploader *upload.Uploader, logs ImportLogger, log *slog.Logger) *Importer {
	return &Importer{uploader: uploader, logs: logs, log: log}
}

// Import processes every export under root into sheet. It stops at the first
// failing file; the returned stats cover the files processed so far.
func (imp *Importer) Import(ctx context.Context, root, sheet string) (*upload.Stats, error) {
	jobs, err := Discover(root, sheet)
	if err != nil {
		return &upload.Stats{}, err
	}
	if len(jobs) == 0 {
		imp.log.Warn("no exports found", "path", root)
		return &upload.Stats{}, nil
	}
	imp.log.Info("discovered exports", "path", root, "files", len(jobs))

	runID := uuid.New()
	stats := &upload.Stats{}
	for _, job := range jobs {
		start := time.Now()
		logID := imp.startLog(ctx, runID, job)

		stats, err = imp.uploader.Run(ctx, job)
		imp.finishLog(ctx, logID, job, stats, start, err)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (imp *Importer) startLog(ctx context.Context, runID uuid.UUID, job upload.Job) int64 {
	if imp.logs == nil {
		return 0
	}
	id, err := imp.logs.InsertImportLog(ctx, storage.ImportLog{
		RunID:  runID,
		Source: "import:" + filepath.Base(job.File),
		Sheet:  job.Sheet,
		Person: job.Person,
		Status: "running",
	})
	if err != nil {
		imp.log.Warn("import log failed", "file", job.File, "error", err)
		return 0
	}
	return id
}

func (imp *Importer) finishLog(ctx context.Context, id int64, job upload.Job, stats *upload.Stats, start time.Time, runErr error) {
	if imp.logs == nil || id == 0 {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	entry := storage.ImportLog{Status: "success", DurationMs: &ms}

	if n := len(stats.Files); n > 0 && stats.Files[n-1].Job == job {
		res := stats.Files[n-1]
		entry.RowsReceived = res.Read
		entry.RowsKept = res.Kept
		entry.RowsRemoved = res.Removed
		entry.RowsCollapsed = res.Collapsed
		if res.Outcome == upload.OutcomeUploaded {
			entry.RowsInserted = res.Inserted
		}
		if res.Outcome == upload.OutcomeAlreadyUploaded {
			entry.Status = "skipped"
		}
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}

	if err := imp.logs.UpdateImportLog(ctx, id, entry); err != nil {
		imp.log.Warn("import log update failed", "id", id, "error", err)
	}
}
