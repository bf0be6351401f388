package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/claude/liftsheet/internal/models"
)

// Workbook is a Store backed by a local .xlsx file. Each named sheet holds a
// header row followed by data rows. The file is reopened on every call so
// that edits made in a spreadsheet application are picked up.
type Workbook struct {
	path string
	mu   sync.Mutex
}

var _ Catalog = (*Workbook)(nil)

// NewWorkbook returns a Workbook for path. The file is created on first append.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path}
}

// Path returns the workbook file path.
func (w *Workbook) Path() string {
	return w.path
}

// ReadRows returns the data rows of sheet. A missing file or sheet yields no rows.
// Rows are padded to the header width because excelize trims trailing empty cells.
func (w *Workbook) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", w.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("looking up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		return nil, nil
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(all) < 2 {
		return nil, nil
	}

	width := len(all[0])
	rows := make([][]string, 0, len(all)-1)
	for _, r := range all[1:] {
		if isBlank(r) {
			continue
		}
		for len(r) < width {
			r = append(r, "")
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// AppendRows writes rows after the last used row of sheet, creating the
// workbook and sheet (with header) as needed.
func (w *Workbook) AppendRows(ctx context.Context, sheet string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, created, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("looking up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		if idx, err = f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		if created {
			// Drop the default sheet of a fresh workbook.
			f.SetActiveSheet(idx)
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return fmt.Errorf("removing default sheet: %w", err)
			}
		}
	}

	existing, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(existing) == 0 {
		header := append([]string(nil), models.Header...)
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		existing = [][]string{header}
	}
	next := len(existing) + 1
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		row := append([]string(nil), r...)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", next+i, err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

// ListSheets lists the sheet names in the workbook.
func (w *Workbook) ListSheets(_ context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", w.path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (w *Workbook) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening workbook %s: %w", w.path, err)
	}
	return f, false, nil
}

func isBlank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
