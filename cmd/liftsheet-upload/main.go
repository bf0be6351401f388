package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/claude/liftsheet/internal/config"
	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/ingest/strong"
	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftSheet server URL (e.g. https://liftsheet.tail1234.ts.net)")
	workbook := flag.String("workbook", "", "append to a local .xlsx workbook instead of a server")
	person := flag.String("person", "", "first name of the person the exports belong to")
	sheet := flag.String("sheet", config.DefaultSheet, "sheet name")
	apiKey := flag.String("api-key", os.Getenv("LIFTSHEET_API_KEY"), "API key; replaces the key stored in the token file")
	tokenFile := flag.String("token-file", "", "credential file (default ~/.liftsheet-upload/token.json)")
	stateDir := flag.String("state-dir", "", "state directory (default ~/.liftsheet-upload)")
	noState := flag.Bool("no-state", false, "do not skip files that were already uploaded")
	normalize := flag.Bool("normalize-dates", false, "rewrite dates to YYYY-MM-DD HH:MM:SS before comparing")
	dryRun := flag.Bool("dry-run", false, "report what would be appended without writing")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftsheet-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: liftsheet-upload (-server <URL> | -workbook <file.xlsx>) -person <name> [-sheet name] [-dry-run] export.csv...\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL != "" && *workbook != "" {
		fmt.Fprintf(os.Stderr, "Error: -server and -workbook are mutually exclusive\n")
		os.Exit(1)
	}
	if *serverURL == "" && *workbook == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server or -workbook is required (or use -dry-run)\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	if *stateDir == "" {
		*stateDir = filepath.Join(home, ".liftsheet-upload")
	}
	if *tokenFile == "" {
		*tokenFile = filepath.Join(*stateDir, "token.json")
	}

	var store sheets.Store
	var dest string
	switch {
	case *serverURL != "":
		creds := upload.NewFileCredentials(*tokenFile, *apiKey)
		if err := creds.Load(ctx); err != nil {
			log.Error("failed to load credentials", "error", err)
			os.Exit(1)
		}
		store = upload.NewClient(*serverURL, creds)
		dest = strings.TrimRight(*serverURL, "/")
		log.Info("using server", "url", *serverURL)
	case *workbook != "":
		store = sheets.NewWorkbook(*workbook)
		dest, err = filepath.Abs(*workbook)
		if err != nil {
			log.Error("failed to resolve workbook path", "error", err)
			os.Exit(1)
		}
		log.Info("using workbook", "path", dest)
	default:
		store = sheets.NewMemory()
	}

	var state *upload.StateDB
	if !*noState {
		state, err = upload.OpenStateDB(*stateDir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	if *dryRun {
		log.Info("DRY RUN mode — rows will be deduplicated but not appended")
	}

	jobs := make([]upload.Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, upload.Job{Person: *person, File: f, Sheet: *sheet, Destination: dest})
	}

	d := dedup.New(nil, log)
	uploader := upload.New(strong.NewProvider(*normalize, log), store, state, dest, d, *dryRun, log)
	stats, err := uploader.Run(ctx, jobs...)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	bold.Println("=== Upload Summary ===")
	for _, f := range stats.Files {
		c := yellow
		if f.Outcome == upload.OutcomeUploaded {
			c = green
		}
		fmt.Printf("  %s  ", filepath.Base(f.Job.File))
		c.Printf("%-18s", f.Outcome)
		fmt.Printf(" read=%d existing=%d new=%d removed=%d collapsed=%d\n",
			f.Read, f.Existing, f.Kept, f.Removed, f.Collapsed)
	}
	fmt.Println()
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	green.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files unchanged:  %d (nothing new)\n", stats.FilesEmpty)
	fmt.Println()
	fmt.Printf("  Rows read:        %d\n", stats.RowsRead)
	green.Printf("  Rows new:         %d\n", stats.RowsKept)
	fmt.Printf("  Rows existing:    %d\n", stats.RowsRemoved)
	fmt.Printf("  Rows collapsed:   %d\n", stats.RowsCollapsed)
	fmt.Println()
}
