package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftsheet/internal/backend"
	"github.com/claude/liftsheet/internal/config"
	"github.com/claude/liftsheet/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "remote LiftSheet server URL; reads go over the REST API")
	configPath := flag.String("config", "", "config file for direct store access (instead of -server)")
	sheet := flag.String("sheet", "", "default sheet for tool calls")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	defaultSheet := config.DefaultSheet

	switch {
	case *serverURL != "":
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("using remote server", "url", *serverURL)
	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		be, err := backend.Open(context.Background(), cfg, log)
		if err != nil {
			log.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer be.Close()
		ds = be.Store
		defaultSheet = cfg.Store.Sheet
	default:
		fmt.Fprintf(os.Stderr, "Usage: liftsheet-mcp (-server <URL> | -config config.yaml) [-sheet name]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *sheet != "" {
		defaultSheet = *sheet
	}

	if err := mcpserver.ServeStdio(mcp.New(ds, defaultSheet, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
