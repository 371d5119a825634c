package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starboost/starboost/internal/directory"
	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/evaluation"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, store domain.Store, cache domain.Cache, bus domain.EventBus,
	service *evaluation.Service, dir *directory.Directory, version string) *Server {

	handler := NewHandler(store, cache, bus, service, dir, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Directory
	router.Get("/agencies", handler.ListAgencies)
	router.Get("/regions", handler.ListRegions)

	// Challenge lifecycle and evaluation
	router.Route("/challenges", func(r chi.Router) {
		r.Post("/", handler.CreateChallenge)

		r.Route("/{challengeID}", func(r chi.Router) {
			r.Get("/", handler.GetChallenge)
			r.Delete("/", handler.DeleteChallenge)

			// Enrollment
			r.Put("/participants", handler.EnrollParticipants)
			r.Get("/participants", handler.ListParticipants)

			// Sales ledger
			r.Post("/transactions", handler.RecordTransaction)
			r.Get("/transactions", handler.ListTransactions)
			r.Get("/transactions/{txID}", handler.GetTransaction)

			// Scoring and performance views
			r.Get("/scores", handler.GetScores)
			r.Get("/performance/agents", handler.PerformanceAgents)
			r.Get("/performance/commercials", handler.PerformanceCommercials)
			r.Get("/performance/agencies", handler.PerformanceAgencies)
			r.Get("/performance/regions", handler.PerformanceRegions)

			// Rules
			r.Get("/winning-rules", handler.ListWinningRules)
			r.Get("/reward-rules", handler.ListRewardRules)

			// Evaluation
			r.Get("/winners", handler.GetWinners)
			r.Post("/evaluate", handler.Evaluate)
			r.Post("/evaluate/async", handler.EvaluateAsync)
			r.Get("/evaluations/{runID}", handler.GetEvaluationRun)

			// Reward preview
			r.Post("/rewards/compute", handler.ComputeReward)
		})
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
