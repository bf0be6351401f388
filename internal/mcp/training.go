package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftsheet/internal/storage"
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Working sets, reps, tonnage (weight x reps) and session count per person per week, month or day. Warm-up sets are excluded."),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithString("person", mcp.Description("Exact person name. All people when empty.")),
	mcp.WithString("start", mcp.Description("Start date. Unbounded when empty.")),
	mcp.WithString("end", mcp.Description("End date. Unbounded when empty.")),
	mcp.WithString("bucket", mcp.Description("Period size. Defaults to 'week'."), mcp.Enum("day", "week", "month")),
)

var toolGetTrainingIntensity = mcp.NewTool("get_training_intensity",
	mcp.WithDescription("RPE distribution, share of sets at RPE 9 or above, and per-exercise totals. With an exercise filter also returns the day-by-day progression of that exercise."),
	mcp.WithString("sheet", mcp.Description("Sheet name. Defaults to the server's configured sheet.")),
	mcp.WithString("person", mcp.Description("Exact person name. All people when empty.")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match)")),
	mcp.WithString("start", mcp.Description("Start date. Unbounded when empty.")),
	mcp.WithString("end", mcp.Description("End date. Unbounded when empty.")),
)

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := parseRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	periods, err := h.training.GetTrainingSummary(ctx,
		req.GetString("sheet", h.defaultSheet),
		req.GetString("person", ""),
		start, end,
		req.GetString("bucket", "week"))
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if periods == nil {
		periods = []storage.TrainingSummaryPeriod{}
	}
	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingIntensity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := parseRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	res, err := h.training.GetTrainingIntensity(ctx, storage.IntensityQuery{
		Sheet:    req.GetString("sheet", h.defaultSheet),
		Person:   req.GetString("person", ""),
		Exercise: req.GetString("exercise", ""),
		Start:    start,
		End:      end,
	})
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
