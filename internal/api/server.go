// Package api exposes the HTTP interface: event queries, danger zones,
// weather passthrough, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/hazard"
	"github.com/Hanoi896/risk-map/internal/observability"
	"github.com/Hanoi896/risk-map/internal/store"
	"github.com/Hanoi896/risk-map/pkg/weather"
)

// WeatherClient is the slice of the weather client the API needs.
type WeatherClient interface {
	CurrentByCoords(ctx context.Context, lat, lon float64) (*weather.Current, error)
}

// Options wires the server's collaborators.
type Options struct {
	Addr       string
	Store      store.Store
	Scorer     *hazard.Scorer
	Aggregator *hazard.Aggregator
	// Weather may be nil when no API key is configured; the endpoint then
	// answers 503.
	Weather    WeatherClient
	Metrics    *observability.Metrics
	EventLimit int
}

// Server exposes the REST API over chi.
type Server struct {
	httpServer *http.Server
	opts       Options
}

// NewServer builds the router and wraps it in an http.Server.
func NewServer(opts Options) *Server {
	if opts.EventLimit <= 0 {
		opts.EventLimit = 1000
	}
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/zones", s.handleZones)
		r.Get("/weather", s.handleWeather)
	})

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	zap.L().Info("api: server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router; used by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// requestID tags each request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
