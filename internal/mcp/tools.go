package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftsheet/internal/analyze"
	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/ingest/strong"
	"github.com/claude/liftsheet/internal/models"
)

// parseRange parses optional start/end bounds. A zero time means unbounded.
// end dates without a time component include the whole day.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if len(endStr) == len(time.DateOnly) {
			end = end.AddDate(0, 0, 1)
		}
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return models.ParseDate(s)
}

// setFilter selects sets by person (exact), exercise (case-insensitive
// substring) and a half-open date range.
type setFilter struct {
	person     string
	exercise   string
	start, end time.Time
}

func (f setFilter) match(s models.WorkoutSet) bool {
	if f.person != "" && s.Person != f.person {
		return false
	}
	if f.exercise != "" && !strings.Contains(strings.ToLower(s.ExerciseName), strings.ToLower(f.exercise)) {
		return false
	}
	if !f.start.IsZero() && s.Date.Before(f.start) {
		return false
	}
	if !f.end.IsZero() && !s.Date.Before(f.end) {
		return false
	}
	return true
}

func (f setFilter) apply(sets []models.WorkoutSet) []models.WorkoutSet {
	out := make([]models.WorkoutSet, 0, len(sets))
	for _, s := range sets {
		if f.match(s) {
			out = append(out, s)
		}
	}
	return out
}

func filterFromRequest(req mcp.CallToolRequest) (setFilter, error) {
	start, end, err := parseRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return setFilter{}, err
	}
	return setFilter{
		person:   req.GetString("person", ""),
		exercise: req.GetString("exercise", ""),
		start:    start,
		end:      end,
	}, nil
}

// loadSets reads the requested sheet and converts its rows to typed sets.
func (h *handlers) loadSets(ctx context.Context, req mcp.CallToolRequest) ([]models.WorkoutSet, int, error) {
	rows, err := h.ds.ReadRows(ctx, req.GetString("sheet", h.defaultSheet))
	if err != nil {
		return nil, 0, err
	}
	sets, skipped := analyze.Sets(rows, h.log)
	return sets, skipped, nil
}

// --- Tool definitions ---

var toolListSheets = mcp.NewTool("list_sheets",
	mcp.WithDescription("List the sheets (workout logs) available on this server."),
)

var toolGetWorkoutRows = mcp.NewTool("get_workout_rows",
	mcp.WithDescription("Retrieve logged strength sets with weight, reps, distance, seconds and notes. Optionally filtered by person, exercise and date range."),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithString("person", mcp.Description("Exact person name")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match, e.g. 'bench press')")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Unbounded when empty.")),
	mcp.WithString("end", mcp.Description("End date, inclusive when given as YYYY-MM-DD. Unbounded when empty.")),
	mcp.WithNumber("limit", mcp.Description("Return at most this many of the most recently logged sets. Defaults to 200.")),
)

var toolGetExerciseAverages = mcp.NewTool("get_exercise_averages",
	mcp.WithDescription("Average weight per exercise per day. Grouped by person (then exercise, day) or by exercise (then day, person)."),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithString("person", mcp.Description("Exact person name")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match)")),
	mcp.WithString("start", mcp.Description("Start date. Unbounded when empty.")),
	mcp.WithString("end", mcp.Description("End date. Unbounded when empty.")),
	mcp.WithString("group_by", mcp.Description("Ordering of the result. Defaults to 'person'."), mcp.Enum("person", "exercise")),
)

var toolGetDailyVolume = mcp.NewTool("get_daily_volume",
	mcp.WithDescription("Total weight moved (weight x reps) per person per day, with set and rep counts."),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithString("person", mcp.Description("Exact person name")),
	mcp.WithString("start", mcp.Description("Start date. Unbounded when empty.")),
	mcp.WithString("end", mcp.Description("End date. Unbounded when empty.")),
)

var toolCheckDuplicates = mcp.NewTool("check_duplicates",
	mcp.WithDescription("Check a Strong app CSV export against a sheet. Reports how many sets are new, how many are already logged and how many duplicate each other within the export. Nothing is written."),
	mcp.WithString("csv", mcp.Required(), mcp.Description("Full CSV export text, header row included")),
	mcp.WithString("person", mcp.Description("Person to label the rows with. Required unless the CSV has a Person column.")),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithBoolean("normalize_dates", mcp.Description("Rewrite dates to YYYY-MM-DD HH:MM:SS before comparing")),
)

// --- Tool handlers ---

func (h *handlers) listSheets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.ds.ListSheets(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if names == nil {
		names = []string{}
	}
	result, err := mcp.NewToolResultJSON(names)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := filterFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	sets, skipped, err := h.loadSets(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	sets = filter.apply(sets)

	total := len(sets)
	if limit := req.GetInt("limit", 200); limit > 0 && len(sets) > limit {
		sets = sets[len(sets)-limit:]
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"sets":    sets,
		"matched": total,
		"skipped": skipped,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseAverages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := filterFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	sets, _, err := h.loadSets(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	sets = filter.apply(sets)

	var averages []analyze.ExerciseDay
	switch req.GetString("group_by", "person") {
	case "exercise":
		averages = analyze.AvgWeightByExercisePerson(sets)
	default:
		averages = analyze.AvgWeightByPersonExercise(sets)
	}

	result, err := mcp.NewToolResultJSON(averages)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDailyVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := filterFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	filter.exercise = ""
	sets, _, err := h.loadSets(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(analyze.TotalVolumeByPersonDay(filter.apply(sets)))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) checkDuplicates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	csvText, err := req.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError("csv parameter is required"), nil
	}
	candidate, err := strong.Parse(strings.NewReader(csvText), strong.Options{
		Person:        req.GetString("person", ""),
		NormalizeDate: req.GetBool("normalize_dates", false),
	})
	if err != nil {
		return mcp.NewToolResultError("invalid export: " + err.Error()), nil
	}

	sheet := req.GetString("sheet", h.defaultSheet)
	existing, err := h.ds.ReadRows(ctx, sheet)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	res, err := dedup.New(nil, h.log).Deduplicate(existing, candidate)
	if err != nil {
		return mcp.NewToolResultError("deduplication failed: " + err.Error()), nil
	}

	newSets, _ := analyze.Sets(res.Kept, nil)
	result, err := mcp.NewToolResultJSON(map[string]any{
		"sheet":     sheet,
		"candidate": len(candidate),
		"existing":  len(existing),
		"new":       len(res.Kept),
		"removed":   res.Removed,
		"collapsed": res.Collapsed,
		"new_sets":  newSets,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
