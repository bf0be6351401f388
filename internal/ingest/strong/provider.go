package strong

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Provider reads Strong CSV exports from disk as candidate rows.
type Provider struct {
	normalizeDate bool
	log           *slog.Logger
}

// NewProvider creates a new Strong export provider.
func NewProvider(normalizeDate bool, log *slog.Logger) *Provider {
	return &Provider{normalizeDate: normalizeDate, log: log}
}

// ReadFile parses the export at path, labelling every row with person.
func (p *Provider) ReadFile(ctx context.Context, path, person string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Parse(f, Options{Person: person, NormalizeDate: p.normalizeDate})
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p.log.Info("read export", "path", path, "person", person, "rows", len(rows))
	return rows, nil
}
