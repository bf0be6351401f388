package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/claude/liftsheet/internal/analyze"
	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/models"
	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/storage"
	"github.com/go-chi/chi/v5"
)

// rowInserter is implemented by stores that report how many rows they inserted.
type rowInserter interface {
	InsertRows(ctx context.Context, sheet string, rows [][]string) (int64, error)
}

func sheetParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "sheet")
	sheet, err := url.PathUnescape(raw)
	if err != nil || sheet == "" {
		return "", false
	}
	return sheet, true
}

func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.store.(sheets.Lister)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "store cannot list sheets"})
		return
	}
	names, err := lister.ListSheets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleReadRows(w http.ResponseWriter, r *http.Request) {
	sheet, ok := sheetParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sheet name"})
		return
	}
	rows, err := s.store.ReadRows(r.Context(), sheet)
	if err != nil {
		s.log.Error("read rows error", "sheet", sheet, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = [][]string{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAppendRows(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sheet, ok := sheetParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sheet name"})
		return
	}
	var req models.AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	existing, err := s.store.ReadRows(r.Context(), sheet)
	if err != nil {
		s.log.Error("read rows error", "sheet", sheet, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	res, err := s.dedup.Deduplicate(existing, req.Rows)
	if errors.Is(err, dedup.ErrMalformedRow) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := models.AppendResponse{
		Received:  len(req.Rows),
		Kept:      len(res.Kept),
		Removed:   res.Removed,
		Collapsed: res.Collapsed,
	}

	if !res.Empty() {
		if ins, ok := s.store.(rowInserter); ok {
			out.Inserted, err = ins.InsertRows(r.Context(), sheet, res.Kept)
		} else {
			err = s.store.AppendRows(r.Context(), sheet, res.Kept)
			out.Inserted = int64(len(res.Kept))
		}
		if err != nil {
			s.log.Error("append rows error", "sheet", sheet, "error", err)
			s.recordImport(r, sheet, out, start, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	s.recordImport(r, sheet, out, start, nil)
	writeJSON(w, http.StatusOK, out)
}

// handleCheckRows runs deduplication without appending.
func (s *Server) handleCheckRows(w http.ResponseWriter, r *http.Request) {
	sheet, ok := sheetParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sheet name"})
		return
	}
	var req models.AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	existing, err := s.store.ReadRows(r.Context(), sheet)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.dedup.Deduplicate(existing, req.Rows)
	if errors.Is(err, dedup.ErrMalformedRow) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	kept := res.Kept
	if kept == nil {
		kept = [][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kept":      kept,
		"removed":   res.Removed,
		"collapsed": res.Collapsed,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sheet := r.URL.Query().Get("sheet")
	if sheet == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sheet parameter required"})
		return
	}
	rows, err := s.store.ReadRows(r.Context(), sheet)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	report := analyze.Build(rows, s.log)
	person := r.URL.Query().Get("person")
	exercise := r.URL.Query().Get("exercise")
	report.ByPerson = analyze.Filter(report.ByPerson, person, exercise)
	report.ByExercise = analyze.Filter(report.ByExercise, person, exercise)

	stat, err := report.Select(chi.URLParam(r, "stat"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stat)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		writeJSON(w, http.StatusOK, []storage.ImportLog{})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.imports.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) recordImport(r *http.Request, sheet string, out models.AppendResponse, start time.Time, appendErr error) {
	if s.imports == nil {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	source := "api"
	if caller := callerFromContext(r); caller != "" {
		source += ":" + caller
	}
	entry := storage.ImportLog{
		Source:        source,
		Sheet:         sheet,
		Person:        r.URL.Query().Get("person"),
		Status:        "success",
		RowsReceived:  out.Received,
		RowsKept:      out.Kept,
		RowsRemoved:   out.Removed,
		RowsCollapsed: out.Collapsed,
		RowsInserted:  out.Inserted,
		DurationMs:    &ms,
	}
	if appendErr != nil {
		msg := appendErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, err := s.imports.InsertImportLog(r.Context(), entry); err != nil {
		s.log.Warn("import log failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
