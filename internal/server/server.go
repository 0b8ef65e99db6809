// Package server exposes the acquisition layer and the analysis facade
// over HTTP. It is thin glue: every endpoint delegates straight to a
// service and serializes the result.
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

	"github.com/dmuriuki/soko/internal/marketdata"
	"github.com/dmuriuki/soko/internal/modules/analysis"
	"github.com/dmuriuki/soko/internal/scheduler"
)

// Config holds server configuration.
type Config struct {
	Port    int
	DevMode bool
}

// Server is the HTTP front for the dashboard core.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	market    *marketdata.Orchestrator
	facade    *analysis.Facade
	refresher *scheduler.RefreshJob
}

// New creates the HTTP server.
func New(cfg Config, market *marketdata.Orchestrator, facade *analysis.Facade, refresher *scheduler.RefreshJob, log zerolog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       log.With().Str("component", "server").Logger(),
		market:    market,
		facade:    facade,
		refresher: refresher,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", s.handleQuotes)
			r.Get("/summary", s.handleSummary)
			r.Get("/gainers", s.handleGainers)
			r.Get("/losers", s.handleLosers)
			r.Get("/index", s.handleIndex)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Post("/risk", s.handleRisk)
			r.Post("/recommendations", s.handleRecommendations)
		})

		r.Post("/alerts", s.handleAlerts)
		r.Get("/ai/performance", s.handleModelPerformance)

		r.Route("/refresh", func(r chi.Router) {
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
		})
	})
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

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
