// Package httpapi provides the HTTP API for docquery.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/query"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
	"github.com/fyrsmithlabs/docquery/internal/synthesis"
)

// HealthChecker probes a collaborator's liveness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server provides HTTP endpoints for docquery.
type Server struct {
	echo         *echo.Echo
	orchestrator *query.Orchestrator
	store        HealthChecker
	logger       *logging.Logger
	config       *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// NewServer creates a new HTTP server.
func NewServer(orchestrator *query.Orchestrator, store HealthChecker, logger *logging.Logger, cfg *Config) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:         e,
		orchestrator: orchestrator,
		store:        store,
		logger:       logger,
		config:       cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
}

// handleHealth reports service and vector store liveness.
func (s *Server) handleHealth(c echo.Context) error {
	if s.store != nil {
		if err := s.store.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status: "degraded",
				Detail: "vector store unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleQuery runs one query through the orchestration pipeline.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid query request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	ctx := logging.WithQueryID(c.Request().Context(), uuid.NewString())

	result, err := s.orchestrator.Execute(ctx, query.Request{
		Query:   req.Query,
		Scope:   query.Scope(req.Scope),
		DocID:   req.DocID,
		TopK:    req.TopK,
		Debug:   req.Debug,
		Filters: req.Filters,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, responseFromResult(result))
}

// errorResponse maps pipeline errors onto HTTP statuses: validation
// failures are 400, upstream failures (store, embedding, model) are 500.
func (s *Server) errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, query.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, retrieval.ErrUnavailable):
		message = "vector store unavailable"
	case errors.Is(err, synthesis.ErrSynthesisFailed):
		message = "answer synthesis failed"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "query failed", zap.Error(err))
	}

	return c.JSON(status, ErrorResponse{Error: message})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "http server starting", zap.String("addr", addr))

	err := s.echo.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
