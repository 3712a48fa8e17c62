// Package api provides the HTTP API server and handlers for the VinylFlow application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vinylflow/vinylflow-server/internal/service"
	"github.com/vinylflow/vinylflow-server/internal/sse"
	"github.com/vinylflow/vinylflow-server/internal/store"
)

// Services groups the business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Recording *service.RecordingService
	Analysis  *service.AnalysisService
	Catalog   *service.CatalogService
	Export    *service.ExportService
	History   *service.HistoryService
	Settings  *service.SettingsService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	sseHandler *sse.Handler
	sseManager *sse.Manager
	router     *chi.Mux
	api        huma.API
	version    string
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, sseHandler *sse.Handler, sseManager *sse.Manager, version string, logger *slog.Logger) *Server {
	s := &Server{
		store:      store,
		services:   services,
		sseHandler: sseHandler,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		version:    version,
		logger:     logger,
	}

	// Middleware must be attached before huma registers any route.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("VinylFlow API", version)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerRecordingRoutes()
	s.registerAnalysisRoutes()
	s.registerCatalogRoutes()
	s.registerExportRoutes()
	s.registerHistoryRoutes()
	s.registerSettingsRoutes()

	// SSE must stay outside huma; the connection is held open.
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The web UI may be served from a different origin on the LAN.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}
