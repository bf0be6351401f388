package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/sheets"
	"github.com/claude/liftsheet/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ImportLogger records append operations. *storage.DB satisfies it.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   sheets.Store
	imports ImportLogger
	dedup   *dedup.Deduplicator
	log     *slog.Logger
	apiKey  string
	router  chi.Router

	resolveCaller ResolveCaller

	// appendMu serialises read-dedup-append so that one server is a single writer.
	appendMu sync.Mutex
}

// New creates a new Server with all routes configured. imports may be nil.
func New(store sheets.Store, imports ImportLogger, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:   store,
		imports: imports,
		dedup:   dedup.New(nil, log),
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle mounts an extra handler, such as the MCP endpoint, on the router.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// SetCallerResolver enables tagging requests with the tailnet login of the caller.
func (s *Server) SetCallerResolver(resolve ResolveCaller) {
	s.resolveCaller = resolve
}

func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.resolveCaller == nil {
			next.ServeHTTP(w, r)
			return
		}
		CallerIdentity(s.resolveCaller, s.log)(next).ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(s.identify)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/sheets", s.handleListSheets)
	s.router.Get("/api/v1/sheets/{sheet}/rows", s.handleReadRows)
	s.router.With(APIKeyAuth(s.apiKey)).Post("/api/v1/sheets/{sheet}/rows", s.handleAppendRows)
	s.router.Post("/api/v1/sheets/{sheet}/check", s.handleCheckRows)

	s.router.Get("/api/v1/stats/{stat}", s.handleStats)
	s.router.Get("/api/v1/imports", s.handleImportLogs)
	s.router.Get("/api/v1/overview", s.handleOverview)
	s.router.Get("/api/v1/training/summary", s.handleTrainingSummary)
	s.router.Get("/api/v1/training/intensity", s.handleTrainingIntensity)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
