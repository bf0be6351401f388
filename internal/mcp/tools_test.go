package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftsheet/internal/analyze"
	"github.com/claude/liftsheet/internal/sheets"
)

func testHandlers(t *testing.T) *handlers {
	t.Helper()
	store := sheets.NewMemory()
	err := store.AppendRows(context.Background(), "Combined Data", [][]string{
		{"Alice", "2024-01-01 07:00:00", "Push", "1h", "Bench Press", "1", "60", "10", "0", "0", "", "", ""},
		{"Alice", "2024-01-01 07:00:00", "Push", "1h", "Bench Press", "2", "40", "5", "0", "0", "", "", ""},
		{"Alice", "2024-01-03 07:00:00", "Legs", "1h", "Squat", "1", "100", "5", "0", "0", "", "", ""},
		{"Bob", "2024-01-02 08:00:00", "Push", "50m", "Incline Bench Press", "1", "50", "8", "0", "0", "", "", ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &handlers{ds: store, defaultSheet: "Combined Data", log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// decodeResult unmarshals the JSON text content of a tool result.
func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), v); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			return
		}
	}
	t.Fatal("no text content in result")
}

// TestParseRange verifies unbounded defaults, inclusive date-only end bounds and parsing errors.
func TestParseRange(t *testing.T) {
	start, end, err := parseRange("", "")
	if err != nil || !start.IsZero() || !end.IsZero() {
		t.Errorf("empty range = %v %v %v, want zero", start, end, err)
	}

	start, end, err = parseRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Month() != 2 || end.Day() != 1 {
		t.Errorf("range = %v..%v, want 2024-01-01..2024-02-01", start, end)
	}

	start, _, err = parseRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err := parseRange("not-a-date", ""); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestGetWorkoutRowsFilters verifies the partial exercise match, the date range and the limit.
func TestGetWorkoutRowsFilters(t *testing.T) {
	h := testHandlers(t)

	res, err := h.getWorkoutRows(context.Background(), callRequest(map[string]any{
		"exercise": "bench",
		"end":      "2024-01-01",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Sets []struct {
			Person   string `json:"person"`
			Exercise string `json:"exercise_name"`
		} `json:"sets"`
		Matched int `json:"matched"`
	}
	decodeResult(t, res, &out)
	if out.Matched != 2 {
		t.Errorf("matched = %d, want 2", out.Matched)
	}

	res, _ = h.getWorkoutRows(context.Background(), callRequest(map[string]any{"limit": float64(1)}))
	decodeResult(t, res, &out)
	if len(out.Sets) != 1 || out.Sets[0].Person != "Bob" {
		t.Errorf("limited sets = %+v, want last set by Bob", out.Sets)
	}
}

// TestGetExerciseAverages verifies grouping order and the person filter.
func TestGetExerciseAverages(t *testing.T) {
	h := testHandlers(t)

	res, err := h.getExerciseAverages(context.Background(), callRequest(map[string]any{"group_by": "exercise"}))
	if err != nil {
		t.Fatal(err)
	}
	var avgs []analyze.ExerciseDay
	decodeResult(t, res, &avgs)
	if len(avgs) != 3 || avgs[0].Exercise != "Bench Press" || avgs[0].AvgWeight != 50 {
		t.Errorf("averages = %+v", avgs)
	}

	res, _ = h.getExerciseAverages(context.Background(), callRequest(map[string]any{"person": "Bob"}))
	avgs = nil
	decodeResult(t, res, &avgs)
	if len(avgs) != 1 || avgs[0].Person != "Bob" {
		t.Errorf("bob averages = %+v", avgs)
	}
}

// TestGetDailyVolume verifies volume ignores any exercise argument.
func TestGetDailyVolume(t *testing.T) {
	h := testHandlers(t)
	res, err := h.getDailyVolume(context.Background(), callRequest(map[string]any{"person": "Alice", "exercise": "squat"}))
	if err != nil {
		t.Fatal(err)
	}
	var vols []analyze.DayVolume
	decodeResult(t, res, &vols)
	if len(vols) != 2 {
		t.Fatalf("volumes = %d, want 2", len(vols))
	}
	if vols[0].Day != "2024-01-01" || vols[0].TotalWeight != 800 {
		t.Errorf("first volume = %+v, want 800 on 2024-01-01", vols[0])
	}
}

// TestCheckDuplicates verifies an export is compared against the sheet without writing.
func TestCheckDuplicates(t *testing.T) {
	h := testHandlers(t)
	csv := "Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE\n" +
		"2024-01-01 07:00:00,Push,1h,Bench Press,1,60,10,0,0,,,\n" +
		"2024-01-05 07:00:00,Push,1h,Bench Press,1,62.5,8,0,0,,,\n" +
		"2024-01-05 07:00:00,Push,1h,Bench Press,1,65,8,0,0,,,\n"

	res, err := h.checkDuplicates(context.Background(), callRequest(map[string]any{"csv": csv, "person": "Alice"}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		New       int `json:"new"`
		Removed   int `json:"removed"`
		Collapsed int `json:"collapsed"`
	}
	decodeResult(t, res, &out)
	if out.New != 1 || out.Removed != 1 || out.Collapsed != 1 {
		t.Errorf("result = %+v, want new=1 removed=1 collapsed=1", out)
	}

	rows, _ := h.ds.ReadRows(context.Background(), "Combined Data")
	if len(rows) != 4 {
		t.Errorf("stored rows = %d, want 4", len(rows))
	}
}

// TestCheckDuplicatesRequiresPerson verifies an unlabeled export is reported as a tool error.
func TestCheckDuplicatesRequiresPerson(t *testing.T) {
	h := testHandlers(t)
	res, err := h.checkDuplicates(context.Background(), callRequest(map[string]any{
		"csv": "Date,Workout Name,Duration,Exercise Name,Set Order\n2024-01-01,Push,1h,Bench,1\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for missing person")
	}
}

// TestListSheetsTool verifies the sheet list is returned.
func TestListSheetsTool(t *testing.T) {
	h := testHandlers(t)
	res, err := h.listSheets(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	decodeResult(t, res, &names)
	if len(names) != 1 || names[0] != "Combined Data" {
		t.Errorf("names = %v", names)
	}
}

// TestSummarise verifies the catalog entry for a sheet.
func TestSummarise(t *testing.T) {
	h := testHandlers(t)
	rows, _ := h.ds.ReadRows(context.Background(), "Combined Data")
	info := summarise("Combined Data", rows)
	if info.Rows != 4 || len(info.People) != 2 || info.FirstDay != "2024-01-01" || info.LastDay != "2024-01-03" {
		t.Errorf("info = %+v", info)
	}
}
