package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/storage"
)

// statsStore is an in-memory store that also answers training statistics
// and records the arguments it was called with.
type statsStore struct {
	*sheets.Memory

	gotSheet, gotPerson, gotBucket string
	gotStart, gotEnd               time.Time
	gotQuery                       storage.IntensityQuery
}

func (f *statsStore) GetTrainingSummary(_ context.Context, sheet, person string, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	f.gotSheet, f.gotPerson, f.gotBucket = sheet, person, bucket
	f.gotStart, f.gotEnd = start, end
	return []storage.TrainingSummaryPeriod{{Period: "2024-01-01", Person: person, WorkingSets: 12}}, nil
}

func (f *statsStore) GetTrainingIntensity(_ context.Context, q storage.IntensityQuery) (*storage.TrainingIntensityResult, error) {
	f.gotQuery = q
	return &storage.TrainingIntensityResult{TotalSets: 4, TrackedSets: 2, FailureRatePct: 50}, nil
}

func (f *statsStore) GetDataStats(context.Context) (*storage.DataStats, error) {
	return &storage.DataStats{TotalRows: 7, Sheets: []storage.SheetStat{{Name: "Combined Data", Rows: 7}}}, nil
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// TestTrainingSummary verifies query parameters reach the store, with a
// weekly default bucket and a date-only end covering the whole day.
func TestTrainingSummary(t *testing.T) {
	store := &statsStore{Memory: sheets.NewMemory()}
	s := newTestServer(store, nil)

	rec := get(s, "/api/v1/training/summary?sheet=Combined+Data&person=Alice&start=2024-01-01&end=2024-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var periods []storage.TrainingSummaryPeriod
	if err := json.NewDecoder(rec.Body).Decode(&periods); err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 || periods[0].WorkingSets != 12 {
		t.Errorf("periods = %+v", periods)
	}
	if store.gotSheet != "Combined Data" || store.gotPerson != "Alice" || store.gotBucket != "1 week" {
		t.Errorf("sheet=%q person=%q bucket=%q", store.gotSheet, store.gotPerson, store.gotBucket)
	}
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !store.gotEnd.Equal(want) {
		t.Errorf("end = %v, want %v", store.gotEnd, want)
	}
}

// TestTrainingIntensity verifies the exercise filter is passed through.
func TestTrainingIntensity(t *testing.T) {
	store := &statsStore{Memory: sheets.NewMemory()}
	s := newTestServer(store, nil)

	rec := get(s, "/api/v1/training/intensity?sheet=Log&exercise=squat")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var res storage.TrainingIntensityResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.FailureRatePct != 50 {
		t.Errorf("failure rate = %v", res.FailureRatePct)
	}
	if store.gotQuery.Sheet != "Log" || store.gotQuery.Exercise != "squat" || !store.gotQuery.End.IsZero() {
		t.Errorf("query = %+v", store.gotQuery)
	}
}

func TestOverview(t *testing.T) {
	s := newTestServer(&statsStore{Memory: sheets.NewMemory()}, nil)
	rec := get(s, "/api/v1/overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats storage.DataStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalRows != 7 || len(stats.Sheets) != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestTrainingErrors covers stores without database aggregation, a missing
// sheet and an unparseable date.
func TestTrainingErrors(t *testing.T) {
	tests := []struct {
		name  string
		store sheets.Store
		path  string
		want  int
	}{
		{"memory store", sheets.NewMemory(), "/api/v1/training/summary?sheet=Log", http.StatusNotImplemented},
		{"memory overview", sheets.NewMemory(), "/api/v1/overview", http.StatusNotImplemented},
		{"missing sheet", &statsStore{Memory: sheets.NewMemory()}, "/api/v1/training/summary", http.StatusBadRequest},
		{"intensity missing sheet", &statsStore{Memory: sheets.NewMemory()}, "/api/v1/training/intensity", http.StatusBadRequest},
		{"bad date", &statsStore{Memory: sheets.NewMemory()}, "/api/v1/training/summary?sheet=Log&start=soon", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(tt.store, nil), tt.path)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
