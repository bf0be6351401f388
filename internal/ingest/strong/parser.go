package strong

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/claude/liftsheet/internal/models"
)

// Options controls how export rows are turned into workout rows.
type Options struct {
	// Person is prepended to every row. If the export already carries a Person
	// column, a non-empty Person overwrites it.
	Person string

	// NormalizeDate rewrites the Date column to models.DateLayout so that keys
	// built from differently formatted exports compare equal.
	NormalizeDate bool
}

// Parse reads a Strong CSV export and returns positional workout rows, header excluded.
func Parse(r io.Reader, opts Options) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	hasPerson := len(header) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")), "Person")
	if !hasPerson && opts.Person == "" {
		return nil, fmt.Errorf("export has no Person column and no person label was given")
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", len(rows)+2, err)
		}
		if isBlank(rec) {
			continue
		}

		var row []string
		switch {
		case hasPerson:
			row = append([]string(nil), rec...)
			if opts.Person != "" {
				row[models.ColPerson] = opts.Person
			}
		default:
			row = make([]string, 0, len(rec)+1)
			row = append(row, opts.Person)
			row = append(row, rec...)
		}

		if opts.NormalizeDate && len(row) > models.ColDate {
			row[models.ColDate] = normalizeDate(row[models.ColDate])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeDate formats recognised dates canonically and leaves the rest untouched.
func normalizeDate(s string) string {
	t, err := models.ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(models.DateLayout)
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
