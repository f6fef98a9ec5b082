package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/hostsentry/internal/aggregate"
	"github.com/hamed0406/hostsentry/internal/fix"
	"github.com/hamed0406/hostsentry/internal/probe"
	"github.com/hamed0406/hostsentry/internal/sensors"
)

type Server struct {
	Logger  *zap.Logger
	Agg     *aggregate.Aggregator
	Fixes   *fix.Dispatcher
	Sensors sensors.Source
}

func NewServer(l *zap.Logger, agg *aggregate.Aggregator, fixes *fix.Dispatcher, src sensors.Source) *Server {
	return &Server{Logger: l, Agg: agg, Fixes: fixes, Sensors: src}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)
	r.Get("/api/checks", s.handleRunAll)
	r.Get("/api/checks/{id}", s.handleRunOne)
	r.Post("/api/fixes/{id}", s.handleApplyFix)
	r.Get("/api/temperature", s.handleTemperature)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	rs := s.Agg.RunAll(r.Context())
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleRunOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.Agg.RunOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, probe.ErrUnknownCheck) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleApplyFix treats a failed remediation as a business outcome (200 with
// success:false); only an unknown id is a request-level failure.
func (s *Server) handleApplyFix(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var params fix.Params
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON object of fix parameters")
			return
		}
	}

	outcome, err := s.Fixes.Apply(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, fix.ErrUnknownFix) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	reading, err := s.Sensors.Read(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
