package server

import (
	"context"
	"net/http"
	"time"

	"github.com/claude/liftsheet/internal/models"
	"github.com/claude/liftsheet/internal/storage"
)

// TrainingStats is implemented by stores that can aggregate in the database.
// *storage.DB satisfies it.
type TrainingStats interface {
	GetTrainingSummary(ctx context.Context, sheet, person string, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
	GetTrainingIntensity(ctx context.Context, q storage.IntensityQuery) (*storage.TrainingIntensityResult, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

var _ TrainingStats = (*storage.DB)(nil)

func (s *Server) trainingStats(w http.ResponseWriter) (TrainingStats, bool) {
	ts, ok := s.store.(TrainingStats)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "store does not support training statistics"})
	}
	return ts, ok
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	ts, ok := s.trainingStats(w)
	if !ok {
		return
	}
	sheet := r.URL.Query().Get("sheet")
	if sheet == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sheet parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = "1 week"
	}

	periods, err := ts.GetTrainingSummary(r.Context(), sheet, r.URL.Query().Get("person"), start, end, bucket)
	if err != nil {
		s.log.Error("training summary error", "sheet", sheet, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if periods == nil {
		periods = []storage.TrainingSummaryPeriod{}
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleTrainingIntensity(w http.ResponseWriter, r *http.Request) {
	ts, ok := s.trainingStats(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	if q.Get("sheet") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sheet parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := ts.GetTrainingIntensity(r.Context(), storage.IntensityQuery{
		Sheet:    q.Get("sheet"),
		Person:   q.Get("person"),
		Exercise: q.Get("exercise"),
		Start:    start,
		End:      end,
	})
	if err != nil {
		s.log.Error("training intensity error", "sheet", q.Get("sheet"), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ts, ok := s.trainingStats(w)
	if !ok {
		return
	}
	stats, err := ts.GetDataStats(r.Context())
	if err != nil {
		s.log.Error("overview error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseTimeRange reads optional start and end query parameters as RFC 3339 or
// any date format rows use. Missing bounds are zero. An end given as a plain
// date includes that whole day.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr != "" {
		if start, err = parseFlexTime(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		if end, err = parseFlexTime(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
		if len(endStr) == len(time.DateOnly) {
			end = end.AddDate(0, 0, 1)
		}
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return models.ParseDate(s)
}
