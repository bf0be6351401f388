package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
// defaultSheet is used when a tool call names no sheet.
func New(ds DataSource, defaultSheet, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftSheet", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftSheet workout log server. Query logged strength sets per person, per-exercise average weights and daily training volume, and check a Strong export for rows that are already logged."),
	)

	h := &handlers{ds: ds, defaultSheet: defaultSheet, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListSheets, Handler: h.listSheets},
		server.ServerTool{Tool: toolGetWorkoutRows, Handler: h.getWorkoutRows},
		server.ServerTool{Tool: toolGetExerciseAverages, Handler: h.getExerciseAverages},
		server.ServerTool{Tool: toolGetDailyVolume, Handler: h.getDailyVolume},
		server.ServerTool{Tool: toolCheckDuplicates, Handler: h.checkDuplicates},
	)

	if ts, ok := ds.(TrainingSource); ok {
		h.training = ts
		s.AddTools(
			server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
			server.ServerTool{Tool: toolGetTrainingIntensity, Handler: h.getTrainingIntensity},
		)
	}

	s.AddResources(
		server.ServerResource{Resource: resSheetCatalog, Handler: h.sheetCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds           DataSource
	training     TrainingSource
	defaultSheet string
	log          *slog.Logger
}

var resSheetCatalog = mcp.NewResource(
	"liftsheet://sheets",
	"Sheet Catalog",
	mcp.WithResourceDescription("All sheets with their row counts, people and date range"),
	mcp.WithMIMEType("application/json"),
)
