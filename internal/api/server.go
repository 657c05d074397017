// Package api provides the HTTP API server and handlers for the TheBooks application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/thebooksapp/thebooks-server/internal/config"
	"github.com/thebooksapp/thebooks-server/internal/ratelimit"
	"github.com/thebooksapp/thebooks-server/internal/search"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	searchIndex *search.SearchIndex
	limiter     *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	production  bool
}

// NewServer creates a new HTTP server with all routes configured.
// searchIndex and limiter may be nil; the affected features degrade quietly.
func NewServer(
	cfg *config.Config,
	store *store.Store,
	services *Services,
	searchIndex *search.SearchIndex,
	limiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:       store,
		services:    services,
		searchIndex: searchIndex,
		limiter:     limiter,
		router:      chi.NewRouter(),
		logger:      logger,
		production:  cfg.App.Environment == "production",
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("TheBooks API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.production, logger)

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerCollectionRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(loginRateLimitMiddleware(s.limiter, s.logger))
	}
}
