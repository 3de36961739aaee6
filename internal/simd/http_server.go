package simd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// HTTPServer serves study status, trials and metrics
type HTTPServer struct {
	router    chi.Router
	store     journal.Store
	collector *metrics.Collector
	log       *slog.Logger
}

// NewHTTPServer builds the status router. A nil collector disables /metrics.
func NewHTTPServer(store journal.Store, collector *metrics.Collector, log *slog.Logger) *HTTPServer {
	if store == nil {
		store = journal.Nop()
	}
	s := &HTTPServer{
		router:    chi.NewRouter(),
		store:     store,
		collector: collector,
		log:       logger.OrDefault(log),
	}

	s.router.Use(middleware.Recoverer)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router.Get("/healthz", s.handleHealthz)
	if collector != nil {
		s.router.Handle("/metrics", collector.Handler())
	}
	s.router.Route("/v1/studies", func(r chi.Router) {
		r.Get("/", s.handleListStudies)
		r.Get("/{id}", s.handleGetStudy)
		r.Get("/{id}/trials", s.handleTrials)
		r.Get("/{id}/export", s.handleExport)
	})
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleListStudies(w http.ResponseWriter, r *http.Request) {
	limit := journal.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	studies, err := s.store.ListStudies(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list studies", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list studies")
		return
	}
	if studies == nil {
		studies = []models.Study{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"studies": studies})
}

func (s *HTTPServer) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	study, ok := s.study(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"study": study})
}

func (s *HTTPServer) handleTrials(w http.ResponseWriter, r *http.Request) {
	study, ok := s.study(w, r)
	if !ok {
		return
	}
	trials, err := s.store.Trials(r.Context(), study.ID)
	if err != nil {
		s.log.Error("failed to read trials", "study_id", study.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read trials")
		return
	}
	if trials == nil {
		trials = []models.TrialRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"study_id": study.ID, "trials": trials})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = journal.FormatCSV
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	study, ok := s.study(w, r)
	if !ok {
		return
	}
	trials, err := s.store.Trials(r.Context(), study.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read trials")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", study.ID+"."+format))
	if err := journal.Export(w, format, study, trials); err != nil {
		s.log.Error("export failed", "study_id", study.ID, "format", format, "error", err)
	}
}

var exportContentTypes = map[string]string{
	journal.FormatCSV:  "text/csv",
	journal.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// study loads the study named in the path, writing the error response itself
func (s *HTTPServer) study(w http.ResponseWriter, r *http.Request) (models.Study, bool) {
	id := chi.URLParam(r, "id")
	study, found, err := s.store.GetStudy(r.Context(), id)
	switch {
	case err != nil && !errors.Is(err, journal.ErrNotFound):
		s.log.Error("failed to read study", "study_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read study")
		return models.Study{}, false
	case err != nil || !found:
		s.writeError(w, http.StatusNotFound, "study not found")
		return models.Study{}, false
	}
	return study, true
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
