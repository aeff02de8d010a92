// Package api exposes completed study runs to the reporting collaborator as
// plain JSON records.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/logging"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

// Server serves run results over HTTP. It is read-only: runs are produced
// by the pipeline CLI, not by API calls.
type Server struct {
	router *chi.Mux
	runs   ports.RunRepository
	series ports.SeriesRepository
	logger *logging.Logger
}

// NewServer wires the routes.
func NewServer(runs ports.RunRepository, series ports.SeriesRepository, logger *logging.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runs:   runs,
		series: series,
		logger: logger,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/runs", s.handleListRuns)
	s.router.Get("/runs/{runID}", s.handleGetRun)
	s.router.Get("/series", s.handleListSeries)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(r.Context(), 20)
	if err != nil {
		s.logger.Error("list runs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "runID"))
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if core.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		s.logger.Error("get run %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get run"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	ids, err := s.series.ListSeries(r.Context())
	if err != nil {
		s.logger.Error("list series: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list series"})
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
