package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

// EventService is the retrieval surface behind the query and stream routes.
type EventService interface {
	Events(ctx context.Context, q pipeline.EventQuery) ([]domain.Event, error)
	CategoryEvents(ctx context.Context, categoryID int, q pipeline.EventQuery) ([]domain.Event, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Server exposes the event query routes, the live feeds, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	events     EventService
	stream     pipeline.EmitterOptions
	logger     *slog.Logger
}

// NewServer creates an HTTP server on addr. Every stream subscription gets its
// own Emitter configured from stream.
func NewServer(addr string, events EventService, ready sharedobs.ReadinessChecker, stream pipeline.EmitterOptions, logger *slog.Logger) *Server {
	s := newServer(addr, ready, logger)
	s.events = events
	s.stream = stream

	engine := s.engine()
	engine.GET("/categories", s.handleCategories)
	engine.GET("/events", s.handleEvents)
	engine.GET("/categories/:id/events", s.handleEvents)
	engine.GET("/stream/events", s.handleStream)
	engine.GET("/stream/categories/:id/events", s.handleStream)

	return s
}

// NewStatusServer creates an HTTP server with only the /healthz, /readyz, and
// /metrics routes.
func NewStatusServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	return newServer(addr, ready, logger)
}

func newServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     engine,
			ReadTimeout: 10 * time.Second,
			// Live feeds hold the response open indefinitely.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) engine() *gin.Engine {
	return s.httpServer.Handler.(*gin.Engine)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Open live feeds end when their request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
