// Package server provides the HTTP server and routing for Finboard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/events"
	"github.com/finboard/finboard/internal/modules/audit"
	"github.com/finboard/finboard/internal/modules/dashboard"
)

// MetricsService loads the upstream document and slices metrics from it.
type MetricsService interface {
	Analysis(ctx context.Context, dateRange string) (*domain.DataAnalysis, error)
	Slice(ctx context.Context, spec domain.ChartSpec) (*domain.ChartData, error)
}

// DashboardService generates multi-chart dashboards.
type DashboardService interface {
	Generate(ctx context.Context, req dashboard.Request) (*dashboard.Response, error)
}

// Translator turns a natural-language prompt into a chart spec.
type Translator interface {
	Translate(ctx context.Context, prompt string, analysis *domain.DataAnalysis) (*domain.ChartSpec, error)
	Configured() bool
}

// AuditStore records generations and feedback and serves usage statistics.
type AuditStore interface {
	RecordGeneration(g *audit.Generation) (string, error)
	RecordFeedback(f *audit.Feedback) error
	Stats() (*audit.Stats, error)
	Recent(limit int) ([]audit.Generation, error)
}

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	Config     *config.Config
	Metrics    MetricsService
	Dashboard  DashboardService
	Translator Translator
	Audit      AuditStore
	Bus        *events.Bus
	Port       int
	DevMode    bool
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	cfg        *config.Config
	metrics    MetricsService
	dashboard  DashboardService
	translator Translator
	audit      AuditStore
	bus        *events.Bus
	startedAt  time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		cfg:        cfg.Config,
		metrics:    cfg.Metrics,
		dashboard:  cfg.Dashboard,
		translator: cfg.Translator,
		audit:      cfg.Audit,
		bus:        cfg.Bus,
		startedAt:  time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Live event stream (WebSocket) - registered before the JSON routes
		// so the upgrade is not wrapped by the compress middleware chain.
		r.Get("/events/ws", s.handleEventsWS)

		r.Post("/chat", s.handleChat)
		r.Post("/dashboard", s.handleDashboard)
		r.Post("/feedback", s.handleFeedback)

		r.Get("/analysis", s.handleAnalysis)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/stats", s.handleAuditStats)
			r.Get("/recent", s.handleAuditRecent)
		})

		// Aliases kept for older dashboards that polled these directly.
		r.Get("/feedback/stats", s.handleAuditStats)
		r.Get("/health", s.handleHealth)

		r.Get("/system/status", s.handleSystemStatus)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
