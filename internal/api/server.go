package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aquatech-monitor/internal/dashboard"
	"aquatech-monitor/internal/logging"
	"aquatech-monitor/internal/metrics"
	"aquatech-monitor/internal/parser"
)

const (
	maxHistoryHours = 24 * 30
	maxChartPoints  = 24 * 7
	maxAlertLimit   = 100
)

// Server represents the API server
type Server struct {
	svc    *dashboard.Service
	router *mux.Router
	logger *slog.Logger
}

// NewServer creates a new API server
func NewServer(svc *dashboard.Service) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		logger: logging.Component("api"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.NewRoute().Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Readings
	api.HandleFunc("/api/v1/sensor-data", s.handleLatestReading).Methods("GET")
	api.HandleFunc("/api/v1/sensor-data", s.handleCreateReading).Methods("POST")
	api.HandleFunc("/api/v1/sensor-data/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/api/v1/chart", s.handleChart).Methods("GET")

	// Feeding, alerts, settings
	api.HandleFunc("/api/v1/feeding/today", s.handleFeedingSchedule).Methods("GET")
	api.HandleFunc("/api/v1/alerts", s.handleAlerts).Methods("GET")
	api.HandleFunc("/api/v1/settings", s.handleSettings).Methods("GET")
	api.HandleFunc("/api/v1/dashboard", s.handleDashboard).Methods("GET")

	api.Use(s.loggingMiddleware)
	api.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveHTTP(route, strconv.Itoa(rec.status))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Source string `json:"source,omitempty"`
	Health string `json:"health,omitempty"`
	Total  int    `json:"total,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func respondWithMeta(w http.ResponseWriter, data interface{}, m *meta) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Meta: m})
}

// intParam reads a positive integer query parameter, capped at ceiling. Missing or
// unusable values yield 0 so the service default applies.
func intParam(r *http.Request, key string, ceiling int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": s.svc.Health().String()})
}

func (s *Server) handleLatestReading(w http.ResponseWriter, r *http.Request) {
	cur := s.svc.CurrentReading(r.Context())
	respondWithMeta(w, NewReadingPayload(cur.Reading), &meta{Source: string(cur.Source), Health: s.svc.Health().String()})
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var in ReadingPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reading, err := in.ToModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := parser.ValidateReading(&reading); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs[0])
		return
	}

	id, err := s.svc.RecordReading(r.Context(), reading)
	if err != nil {
		s.logger.Warn("insert reading failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h := s.svc.History(r.Context(), intParam(r, "hours", maxHistoryHours))
	respondWithMeta(w, h.Points, &meta{Source: string(h.Source), Total: len(h.Points)})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c := s.svc.Chart(r.Context(), intParam(r, "points", maxChartPoints))
	respondWithMeta(w, c.Series, &meta{Source: string(c.Source), Total: c.Series.Len()})
}

func (s *Server) handleFeedingSchedule(w http.ResponseWriter, r *http.Request) {
	sched := s.svc.FeedingSchedule(r.Context())
	out := make([]FeedingPayload, 0, len(sched.Events))
	for _, e := range sched.Events {
		out = append(out, NewFeedingPayload(e))
	}
	respondWithMeta(w, out, &meta{Source: string(sched.Source), Total: len(out)})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	a := s.svc.RecentAlerts(r.Context(), intParam(r, "limit", maxAlertLimit))
	respondWithMeta(w, a.Views, &meta{Source: string(a.Source), Total: len(a.Views)})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Settings(r.Context())
	respondWithMeta(w, st.Settings, &meta{Source: string(st.Source)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot(r.Context())
	feeding := make([]FeedingPayload, 0, len(snap.Schedule.Events))
	for _, e := range snap.Schedule.Events {
		feeding = append(feeding, NewFeedingPayload(e))
	}
	respondWithMeta(w, map[string]interface{}{
		"current_data":     NewReadingPayload(snap.Current.Reading),
		"chart_data":       snap.Chart.Series,
		"feeding_schedule": feeding,
		"alerts":           snap.Alerts.Views,
		"sources": map[string]string{
			"current_data":     string(snap.Current.Source),
			"chart_data":       string(snap.Chart.Source),
			"feeding_schedule": string(snap.Schedule.Source),
			"alerts":           string(snap.Alerts.Source),
		},
	}, &meta{Health: snap.Health.String()})
}
