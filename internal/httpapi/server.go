// Package httpapi serves the read side of recorded runs as JSON over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"researchsim/internal/query"
	"researchsim/internal/store"
	"researchsim/internal/tech"
)

type Querier interface {
	Runs(ctx context.Context) ([]store.Run, error)
	Summary(ctx context.Context, runID string) (*tech.Summary, error)
	Status(ctx context.Context, runID string) (*tech.Status, error)
	Advantage(ctx context.Context, runID, entity, kind string) (*query.AdvantageResult, error)
	Events(ctx context.Context, filter store.EventFilter) ([]store.EventRecord, error)
	Technologies(ctx context.Context, runID string, discovered *bool) ([]store.TechnologyState, error)
	Technology(ctx context.Context, runID, techID string) (*query.TechnologyDetail, error)
	Knowledge(ctx context.Context, runID, agent string) ([]store.KnowledgeRecord, error)
}

var _ Querier = (*query.Service)(nil)

type Server struct {
	router  *chi.Mux
	query   Querier
	catalog []tech.Definition
	logger  *slog.Logger
	version string
}

func NewServer(catalog []tech.Definition, q Querier, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  chi.NewRouter(),
		query:   q,
		catalog: catalog,
		logger:  logger,
		version: version,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/runs", s.handleRuns)
		r.Get("/summary", s.handleSummary)
		r.Get("/status", s.handleStatus)
		r.Get("/advantage/{entity}/{kind}", s.handleAdvantage)
		r.Get("/events", s.handleEvents)
		r.Get("/technologies", s.handleTechnologies)
		r.Get("/technologies/{id}", s.handleTechnology)
		r.Get("/knowledge", s.handleKnowledge)
	})
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, query.ErrNoRun), errors.Is(err, query.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("http handler failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}
