package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/claude/liftsheet/internal/backend"
	"github.com/claude/liftsheet/internal/config"
	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/importer"
	"github.com/claude/liftsheet/internal/ingest/strong"
	"github.com/claude/liftsheet/internal/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportsPath := flag.String("path", "", "directory of exports: <Person>/*.csv or <Person>.csv (required)")
	sheet := flag.String("sheet", "", "sheet name (default from config)")
	normalize := flag.Bool("normalize-dates", false, "rewrite dates to YYYY-MM-DD HH:MM:SS before comparing")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportsPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftsheet-import -config config.yaml -path /path/to/exports [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportsPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportsPath)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *sheet == "" {
		*sheet = cfg.Store.Sheet
	}

	ctx := context.Background()
	be, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer be.Close()

	if *dryRun {
		log.Info("DRY RUN mode — no rows will be written")
	}

	var logs importer.ImportLogger
	if be.DB != nil && !*dryRun {
		logs = be.DB
	}

	uploader := upload.New(strong.NewProvider(*normalize, log), be.Store, nil, "", dedup.New(nil, log), *dryRun, log)
	stats, err := importer.New(uploader, logs, log).Import(ctx, *exportsPath, *sheet)
	printStats(stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(stats *upload.Stats) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	fmt.Println()
	bold.Println("=== Import Summary ===")
	fmt.Printf("  Files processed:  %d\n", stats.FilesTotal)
	green.Printf("  Files merged:     %d\n", stats.FilesUploaded)
	fmt.Printf("  Files unchanged:  %d\n", stats.FilesEmpty)
	fmt.Println()
	fmt.Printf("  Rows read:        %d\n", stats.RowsRead)
	green.Printf("  Rows new:         %d\n", stats.RowsKept)
	fmt.Printf("  Rows existing:    %d\n", stats.RowsRemoved)
	fmt.Printf("  Rows collapsed:   %d\n", stats.RowsCollapsed)
	fmt.Println()
}
