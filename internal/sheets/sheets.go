// Package sheets defines the row store collaborators used by the uploader and
// provides spreadsheet-backed implementations.
package sheets

import (
	"context"
	"slices"
	"sync"
)

// Source reads every stored row of a named sheet, header excluded.
type Source interface {
	ReadRows(ctx context.Context, sheet string) ([][]string, error)
}

// Sink appends rows to a named sheet.
type Sink interface {
	AppendRows(ctx context.Context, sheet string, rows [][]string) error
}

// Store is both a Source and a Sink.
type Store interface {
	Source
	Sink
}

// Lister enumerates the sheets a store holds.
type Lister interface {
	ListSheets(ctx context.Context) ([]string, error)
}

// Catalog is a Store that can also list its sheets.
type Catalog interface {
	Store
	Lister
}

// Memory is an in-process Store, used for dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ Catalog = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]string)}
}

func (m *Memory) ReadRows(_ context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[sheet]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *Memory) AppendRows(_ context.Context, sheet string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.sheets[sheet] = append(m.sheets[sheet], append([]string(nil), r...))
	}
	return nil
}

// ListSheets returns the sheet names in sorted order.
func (m *Memory) ListSheets(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sheets))
	for name := range m.sheets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
