package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hazz-dev/readygate/internal/config"
	"github.com/hazz-dev/readygate/internal/readiness"
	"github.com/hazz-dev/readygate/internal/storage"
)

// Evaluator runs a readiness evaluation on demand.
type Evaluator interface {
	Evaluate(ctx context.Context) readiness.Report
}

// ServerStore defines the storage queries the server needs.
type ServerStore interface {
	LatestReport(ctx context.Context) (*readiness.Report, error)
	EvaluationHistory(ctx context.Context, limit, offset int) ([]storage.Evaluation, int, error)
	LatestDependencyChecks(ctx context.Context) ([]storage.DependencyCheck, error)
	DependencyHistory(ctx context.Context, name string, limit, offset int) ([]storage.DependencyCheck, int, error)
	AvailabilityPercent(ctx context.Context, name string, last int) (float64, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	evaluator    Evaluator
	store        ServerStore
	dependencies []config.Dependency
	router       chi.Router
	logger       *slog.Logger
}

// New creates a new Server and registers all routes.
func New(evaluator Evaluator, store ServerStore, dependencies []config.Dependency, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		evaluator:    evaluator,
		store:        store,
		dependencies: dependencies,
		router:       chi.NewRouter(),
		logger:       logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)
	r.Use(s.requestLogger)

	r.Get("/livez", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)

	r.Get("/api/readiness", s.handleLatestReport)
	r.Get("/api/readiness/history", s.handleEvaluationHistory)
	r.Get("/api/dependencies", s.handleListDependencies)
	r.Get("/api/dependencies/{name}/history", s.handleDependencyHistory)
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReadiness runs a fresh evaluation and serializes the report as the
// response body. Ready and degraded both answer 200 so load balancers keep
// routing while the service limps along; only down answers 503.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report := s.evaluator.Evaluate(r.Context())

	status := http.StatusOK
	if report.Status == readiness.StatusDown {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.LatestReport(r.Context())
	if err != nil {
		s.logger.Error("LatestReport", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no evaluations recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type historyResponse struct {
	Evaluations []storage.Evaluation `json:"evaluations"`
	Total       int                  `json:"total"`
}

func (s *Server) handleEvaluationHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := s.pagination(w, r)
	if !ok {
		return
	}

	evals, total, err := s.store.EvaluationHistory(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("EvaluationHistory", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Evaluations: evals,
		Total:       total,
	})
}

type dependencyDetail struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Category        string     `json:"category"`
	Target          string     `json:"target"`
	Required        bool       `json:"required"`
	Status          string     `json:"status"`
	ResponseMS      float64    `json:"response_ms"`
	AvailabilityPct float64    `json:"availability_percent"`
	LastChecked     *time.Time `json:"last_checked"`
}

func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestDependencyChecks(r.Context())
	if err != nil {
		s.logger.Error("LatestDependencyChecks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	byName := make(map[string]storage.DependencyCheck, len(latest))
	for _, c := range latest {
		byName[c.Name] = c
	}

	details := make([]dependencyDetail, 0, len(s.dependencies))
	for _, dep := range s.dependencies {
		d := dependencyDetail{
			Name:     dep.Name,
			Type:     dep.Type,
			Category: dep.Category,
			Target:   dep.Target,
			Required: dep.Required,
			Status:   "unknown",
		}
		if c, ok := byName[dep.Name]; ok {
			d.Status = c.Status
			d.ResponseMS = c.ResponseMS
			t := c.CheckedAt
			d.LastChecked = &t
			pct, _ := s.store.AvailabilityPercent(r.Context(), dep.Name, 100)
			d.AvailabilityPct = pct
		}
		details = append(details, d)
	}

	writeJSON(w, http.StatusOK, details)
}

type dependencyHistoryResponse struct {
	Checks []storage.DependencyCheck `json:"checks"`
	Total  int                       `json:"total"`
}

func (s *Server) handleDependencyHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	known := false
	for _, dep := range s.dependencies {
		if dep.Name == name {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "dependency not found")
		return
	}

	limit, offset, ok := s.pagination(w, r)
	if !ok {
		return
	}

	checks, total, err := s.store.DependencyHistory(r.Context(), name, limit, offset)
	if err != nil {
		s.logger.Error("DependencyHistory", "dependency", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, dependencyHistoryResponse{
		Checks: checks,
		Total:  total,
	})
}

// pagination parses limit/offset query parameters, writing a 400 response
// and returning ok=false on invalid input.
func (s *Server) pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	const maxLimit = 1000

	limit = 50
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return 0, 0, false
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset parameter")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
