// Package server provides the HTTP API for documind.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/documind/internal/config"
	"github.com/fyrsmithlabs/documind/internal/ingest"
	"github.com/fyrsmithlabs/documind/internal/query"
	"github.com/fyrsmithlabs/documind/internal/registry"
	"github.com/fyrsmithlabs/documind/internal/vectorstore"
)

// Ingestor runs the upload pipeline and document deletion.
type Ingestor interface {
	Ingest(ctx context.Context, filename, contentType string, content []byte) (*ingest.Receipt, error)
	Delete(ctx context.Context, documentID string) error
}

// Querier answers questions over the indexed corpus.
type Querier interface {
	Query(ctx context.Context, q string, k int) (*query.Result, error)
}

// Catalog reads the document registry.
type Catalog interface {
	List(ctx context.Context, limit int) ([]registry.Document, error)
	Get(ctx context.Context, id string) (registry.Document, error)
}

// Server provides HTTP endpoints for documind.
type Server struct {
	echo      *echo.Echo
	ingestor  Ingestor
	querier   Querier
	catalog   Catalog
	store     vectorstore.Store
	logger    *zap.Logger
	config    config.ServerConfig
	maxUpload int64
}

// NewServer creates a new HTTP server.
func NewServer(ingestor Ingestor, querier Querier, catalog Catalog, store vectorstore.Store, cfg config.ServerConfig, maxUpload int64, logger *zap.Logger) (*Server, error) {
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor cannot be nil")
	}
	if querier == nil {
		return nil, fmt.Errorf("querier cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:      e,
		ingestor:  ingestor,
		querier:   querier,
		catalog:   catalog,
		store:     store,
		logger:    logger,
		config:    cfg,
		maxUpload: maxUpload,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/debug/collections", s.handleDebugCollections)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/documents", s.handleUpload)
	v1.GET("/documents", s.handleListDocuments)
	v1.GET("/documents/:id", s.handleGetDocument)
	v1.DELETE("/documents/:id", s.handleDeleteDocument)
	v1.GET("/search", s.handleSearch)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying HTTP handler, used by tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}
