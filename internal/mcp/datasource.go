package mcp

import (
	"context"
	"time"

	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/storage"
)

// DataSource abstracts the row store for MCP tools. *storage.DB (Postgres),
// *sheets.Workbook (local .xlsx) and HTTPClient (remote via REST API) all
// satisfy this interface.
type DataSource interface {
	ReadRows(ctx context.Context, sheet string) ([][]string, error)
	ListSheets(ctx context.Context) ([]string, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*sheets.Workbook)(nil)
	_ DataSource = (*sheets.Memory)(nil)
)

// TrainingSource is implemented by data sources that aggregate in the
// database. The training tools are only registered when the DataSource
// also satisfies it.
type TrainingSource interface {
	GetTrainingSummary(ctx context.Context, sheet, person string, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
	GetTrainingIntensity(ctx context.Context, q storage.IntensityQuery) (*storage.TrainingIntensityResult, error)
}

var (
	_ TrainingSource = (*storage.DB)(nil)
	_ TrainingSource = (*HTTPClient)(nil)
)
