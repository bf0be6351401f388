package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer creates an httptest server that routes requests to handler
// functions keyed by escaped path.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.EscapedPath()]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.EscapedPath())
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestHTTPClientReadRows verifies the sheet name is path-escaped and rows decoded.
func TestHTTPClientReadRows(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sheets/Combined%20Data/rows": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, [][]string{{"Alice", "2024-01-01"}, {"Bob", "2024-01-02"}})
		},
	})
	defer ts.Close()

	rows, err := NewHTTPClient(ts.URL+"/").ReadRows(context.Background(), "Combined Data")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "Bob" {
		t.Errorf("rows = %v", rows)
	}
}

// TestHTTPClientListSheets verifies the sheet list endpoint is decoded.
func TestHTTPClientListSheets(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sheets": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []string{"Combined Data", "Trevor"})
		},
	})
	defer ts.Close()

	names, err := NewHTTPClient(ts.URL).ListSheets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[1] != "Trevor" {
		t.Errorf("names = %v", names)
	}
}

// TestHTTPClientErrorStatus verifies a non-200 response surfaces the status and body.
func TestHTTPClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sheets": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "store cannot list sheets", http.StatusNotImplemented)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).ListSheets(context.Background())
	if err == nil || !strings.Contains(err.Error(), "501") {
		t.Errorf("err = %v, want status 501", err)
	}
}
