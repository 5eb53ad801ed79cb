// Package httpapi exposes the dashboard over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// TableProvider supplies the shared source table.
type TableProvider interface {
	Table(ctx context.Context) (*domain.PriceTable, error)
}

// Config holds server options.
type Config struct {
	Host       string
	Port       int
	Debug      bool
	RSIEnabled bool
	// DefaultThreshold overrides the initial threshold marker when positive.
	DefaultThreshold float64
}

// Server serves the dashboard API.
type Server struct {
	cfg      Config
	tables   TableProvider
	pipeline *pipeline.Pipeline
	logger   ports.Logger
	engine   *gin.Engine
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg Config, tables TableProvider, p *pipeline.Pipeline, logger ports.Logger) (*Server, error) {
	if tables == nil || p == nil || logger == nil {
		return nil, fmt.Errorf("table provider, pipeline and logger are required: %w", ports.ErrConfigurationError)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		tables:   tables,
		pipeline: p,
		logger:   logger,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/options", s.getOptions)
	api.GET("/threshold", s.getThreshold)
	api.POST("/dashboard", s.postDashboard)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// defaultSelection is the selection a request starts from before its own fields are applied.
func (s *Server) defaultSelection() domain.Selection {
	sel := domain.DefaultSelection()
	if s.cfg.DefaultThreshold > 0 {
		sel.PriceThreshold = s.cfg.DefaultThreshold
	}
	return sel
}

// errorResponse writes err with the status its category maps to.
func (s *Server) errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), err, "Request failed", map[string]interface{}{"path": c.FullPath()})
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  ports.ErrorCode(err),
	})
}
