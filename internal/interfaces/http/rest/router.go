// Package rest assembles the HTTP API of the explorer.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"soundgraph-backend/internal/config"
	"soundgraph-backend/internal/infrastructure/observability"
	"soundgraph-backend/internal/infrastructure/resilience"
	"soundgraph-backend/internal/interfaces/http/rest/handlers"
	"soundgraph-backend/internal/interfaces/http/rest/middleware"
	apperrors "soundgraph-backend/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	explorer     *handlers.ExplorerHandler
	health       *handlers.HealthHandler
	metrics      *observability.Collector
	logger       *zap.Logger
	errorHandler *apperrors.ErrorHandler
	cfg          *config.Config
}

// NewRouter creates a new router instance
func NewRouter(
	explorer *handlers.ExplorerHandler,
	health *handlers.HealthHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *apperrors.ErrorHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		explorer:     explorer,
		health:       health,
		metrics:      metrics,
		logger:       logger,
		errorHandler: errorHandler,
		cfg:          cfg,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.EchoRequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(observability.TracingMiddleware(rt.cfg.Tracing.ServiceName))
	if rt.cfg.Metrics.Enabled {
		router.Use(observability.MetricsMiddleware(rt.metrics))
	}

	if rt.cfg.CORS.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.cfg.CORS.AllowedOrigins,
			AllowedMethods: rt.cfg.CORS.AllowedMethods,
			AllowedHeaders: rt.cfg.CORS.AllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         rt.cfg.CORS.MaxAge,
		}))
	}

	router.Get("/health", rt.health.Liveness)
	router.Get("/ready", rt.health.Readiness)
	if rt.cfg.Metrics.Enabled {
		router.Method(http.MethodGet, rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.RequestSize(rt.cfg.Server.MaxRequestSize))
		if rt.cfg.RateLimit.Enabled {
			limiter := resilience.NewLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
			r.Use(middleware.RateLimit(limiter, rt.errorHandler))
		}

		r.Get("/search", rt.explorer.Search)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", rt.explorer.CreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Delete("/", rt.explorer.DeleteSession)
				r.Get("/view", rt.explorer.GetView)
				r.Post("/track", rt.explorer.SelectTrack)
				r.Post("/genre", rt.explorer.FocusGenre)
				r.Post("/back", rt.explorer.Back)
				r.Post("/nodes/{nodeID}/click", rt.explorer.ClickNode)
				r.Get("/nodes/{nodeID}/hover", rt.explorer.HoverNode)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}
