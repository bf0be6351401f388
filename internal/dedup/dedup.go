// Package dedup decides which candidate workout rows are already present in a
// stored dataset, using a composite identity key over fixed columns.
package dedup

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claude/liftsheet/internal/models"
)

// KeySeparator joins identity column values. Values containing it can collide.
const KeySeparator = "|"

// ErrMalformedRow is returned when a row is too short to hold every key column.
var ErrMalformedRow = errors.New("malformed input row")

// DefaultKeyColumns identifies a single logical workout set:
// Person, Date, Workout Name, Duration, Exercise Name, Set Order.
var DefaultKeyColumns = []int{
	models.ColPerson,
	models.ColDate,
	models.ColWorkoutName,
	models.ColDuration,
	models.ColExerciseName,
	models.ColSetOrder,
}

// BuildKey joins the values at keyColumns with KeySeparator.
func BuildKey(row []string, keyColumns []int) (string, error) {
	var b strings.Builder
	for i, col := range keyColumns {
		if col < 0 || col >= len(row) {
			return "", fmt.Errorf("%w: column %d out of range for row of %d fields", ErrMalformedRow, col, len(row))
		}
		if i > 0 {
			b.WriteString(KeySeparator)
		}
		b.WriteString(row[col])
	}
	return b.String(), nil
}

// RowSet maps identity keys to rows. Iteration follows the order in which
// each key was first added; a later row with the same key replaces the value.
type RowSet struct {
	index map[string]int
	keys  []string
	rows  [][]string
}

// Len returns the number of distinct keys.
func (s *RowSet) Len() int {
	return len(s.keys)
}

// Has reports whether key is present.
func (s *RowSet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Get returns the row stored for key.
func (s *RowSet) Get(key string) ([]string, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.rows[i], true
}

// Each calls fn for every key in iteration order.
func (s *RowSet) Each(fn func(key string, row []string)) {
	for i, k := range s.keys {
		fn(k, s.rows[i])
	}
}

// put stores row under key and reports whether it replaced an earlier row.
func (s *RowSet) put(key string, row []string) bool {
	if i, ok := s.index[key]; ok {
		s.rows[i] = row
		return true
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	s.rows = append(s.rows, row)
	return false
}

// IndexByKey builds a RowSet from rows. Duplicate keys are last-write-wins.
func IndexByKey(rows [][]string, keyColumns []int) (*RowSet, error) {
	set, _, err := index(rows, keyColumns)
	return set, err
}

func index(rows [][]string, keyColumns []int) (*RowSet, int, error) {
	set := &RowSet{index: make(map[string]int, len(rows))}
	collapsed := 0
	for i, row := range rows {
		key, err := BuildKey(row, keyColumns)
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if set.put(key, row) {
			collapsed++
		}
	}
	return set, collapsed, nil
}

// Result is the outcome of Deduplicate.
type Result struct {
	// Kept holds the candidate rows to append, in candidate-index order.
	Kept [][]string
	// Removed counts distinct candidate keys already present in the existing rows.
	Removed int
	// Collapsed counts candidate rows folded into a later row with the same key.
	Collapsed int
}

// Empty reports whether there is nothing to append.
func (r Result) Empty() bool {
	return len(r.Kept) == 0
}

// Deduplicator removes candidate rows whose identity key already exists.
type Deduplicator struct {
	keyColumns []int
	log        *slog.Logger
}

// New creates a Deduplicator over keyColumns. A nil logger discards progress output.
func New(keyColumns []int, log *slog.Logger) *Deduplicator {
	if len(keyColumns) == 0 {
		keyColumns = DefaultKeyColumns
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Deduplicator{keyColumns: keyColumns, log: log}
}

// Deduplicate returns the candidate rows not present in existing.
// Neither input is modified.
func (d *Deduplicator) Deduplicate(existing, candidate [][]string) (Result, error) {
	existingIdx, _, err := index(existing, d.keyColumns)
	if err != nil {
		return Result{}, fmt.Errorf("indexing existing rows: %w", err)
	}
	candidateIdx, collapsed, err := index(candidate, d.keyColumns)
	if err != nil {
		return Result{}, fmt.Errorf("indexing candidate rows: %w", err)
	}

	res := Result{Collapsed: collapsed}
	candidateIdx.Each(func(key string, row []string) {
		if existingIdx.Has(key) {
			res.Removed++
			return
		}
		d.log.Debug("new row", "key", key)
		res.Kept = append(res.Kept, row)
	})

	d.log.Info("deduplicated rows",
		"candidates", len(candidate),
		"existing", existingIdx.Len(),
		"kept", len(res.Kept),
		"removed", res.Removed,
		"collapsed", res.Collapsed,
	)
	return res, nil
}

// Deduplicate runs a non-logging Deduplicator. Empty keyColumns means DefaultKeyColumns.
func Deduplicate(existing, candidate [][]string, keyColumns []int) (Result, error) {
	return New(keyColumns, nil).Deduplicate(existing, candidate)
}
