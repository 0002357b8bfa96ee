// Package server serves building records over HTTP in the array format the
// web viewer consumes.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cityscape/internal/geo"
	"cityscape/internal/metrics"
)

// Record is one element of the /api/buildings array. Missing address and
// stage encode as null.
type Record struct {
	ID       string          `json:"id"`
	Geometry json.RawMessage `json:"geometry"`
	Height   float64         `json:"height"`
	Stage    *string         `json:"stage"`
	Address  *string         `json:"address"`
}

// Server holds an immutable building list. Handlers only read it, so they
// may run concurrently.
type Server struct {
	records []Record
	index   map[string]int
	metrics *metrics.Collector
}

// New encodes buildings once up front. Buildings whose geometry cannot be
// encoded are skipped with a warning.
func New(buildings []geo.Building, m *metrics.Collector) *Server {
	s := &Server{
		records: make([]Record, 0, len(buildings)),
		index:   make(map[string]int, len(buildings)),
		metrics: m,
	}
	for _, b := range buildings {
		g, err := b.Geometry()
		if err != nil {
			zap.L().Warn("server: skipping building", zap.String("id", b.ID), zap.Error(err))
			continue
		}
		if _, dup := s.index[b.ID]; !dup {
			s.index[b.ID] = len(s.records)
		}
		s.records = append(s.records, Record{
			ID:       b.ID,
			Geometry: g,
			Height:   b.Height,
			Stage:    optional(b.Stage),
			Address:  optional(b.Address),
		})
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Handler returns the router: /api/buildings, /api/buildings/{id}, /health
// and /metrics. CORS allows any origin.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/buildings", func(r chi.Router) {
		r.Get("/", s.listBuildings)
		r.Get("/{id}", s.getBuilding)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

func (s *Server) listBuildings(w http.ResponseWriter, _ *http.Request) {
	s.metrics.Served(len(s.records))
	writeJSON(w, http.StatusOK, s.records)
}

func (s *Server) getBuilding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, ok := s.index[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "building not found"})
		return
	}
	s.metrics.Served(1)
	writeJSON(w, http.StatusOK, s.records[i])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
