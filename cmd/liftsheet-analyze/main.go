package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/claude/liftsheet/internal/analyze"
	"github.com/claude/liftsheet/internal/config"
	"github.com/claude/liftsheet/internal/ingest/strong"
	"github.com/claude/liftsheet/internal/sample"
	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/upload"
)

func main() {
	input := flag.String("input", "sample_input/sample_weightlifting_data.csv", "CSV of workout rows (with a Person column, or use -person)")
	person := flag.String("person", "", "label rows of a single-person Strong export")
	workbook := flag.String("workbook", "", "read rows from a .xlsx workbook instead of -input")
	serverURL := flag.String("server", "", "read rows from a LiftSheet server instead of -input")
	sheet := flag.String("sheet", config.DefaultSheet, "sheet name for -workbook and -server")
	outputDir := flag.String("output-dir", "sample_output", "directory for report.xlsx and report.json")
	generate := flag.Bool("generate-sample", false, "write synthetic data to -input before analyzing")
	seed := flag.Uint64("seed", 1, "random seed for -generate-sample")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()

	if *generate {
		if err := writeSample(*input, *seed); err != nil {
			log.Error("failed to generate sample data", "error", err)
			os.Exit(1)
		}
		log.Info("sample data written", "path", *input)
	}

	var (
		rows [][]string
		err  error
	)
	switch {
	case *serverURL != "":
		rows, err = upload.NewClient(*serverURL, upload.StaticCredentials{}).ReadRows(ctx, *sheet)
	case *workbook != "":
		rows, err = sheets.NewWorkbook(*workbook).ReadRows(ctx, *sheet)
	default:
		rows, err = readCSV(*input, *person)
	}
	if err != nil {
		log.Error("failed to read rows", "error", err)
		os.Exit(1)
	}
	log.Info("analyzing rows", "rows", len(rows))

	report := analyze.Build(rows, log)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	xlsxPath := filepath.Join(*outputDir, "report.xlsx")
	if err := analyze.WriteWorkbook(xlsxPath, report); err != nil {
		log.Error("failed to write workbook", "error", err)
		os.Exit(1)
	}
	jsonPath := filepath.Join(*outputDir, "report.json")
	if err := writeJSON(jsonPath, report); err != nil {
		log.Error("failed to write json", "error", err)
		os.Exit(1)
	}

	bold := color.New(color.Bold)
	fmt.Println()
	bold.Println("=== Analysis Summary ===")
	fmt.Printf("  Rows:                 %d\n", len(rows))
	if report.Skipped > 0 {
		color.Yellow("  Skipped:              %d (unparseable)", report.Skipped)
	}
	fmt.Printf("  Exercise-day groups:  %d\n", len(report.ByPerson))
	fmt.Printf("  Person-day volumes:   %d\n", len(report.Volume))
	color.Green("  Wrote %s and %s", xlsxPath, jsonPath)
	fmt.Println()
}

func readCSV(path, person string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return strong.Parse(f, strong.Options{Person: person})
}

func writeSample(path string, seed uint64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	opts := sample.DefaultOptions()
	opts.Seed = seed
	if err := sample.WriteCSV(f, sample.Generate(opts)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, report *analyze.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
