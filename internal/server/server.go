// Package server exposes the compressor over HTTP for the serve subcommand.
//
// Routes:
//
//	GET  /health             liveness probe
//	POST /api/pdf/compress   multipart upload (field "pdf"), returns the
//	                         compressed PDF or, with format=json, only stats
//
// When an auth secret is configured every /api route requires an HS256
// bearer token.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ranjanmadhu/pdf-compressor/internal/compress"
	"github.com/ranjanmadhu/pdf-compressor/internal/config"
	"github.com/ranjanmadhu/pdf-compressor/internal/options"
)

const (
	ReadTimeout             = 60 * time.Second
	WriteTimeout            = 5 * time.Minute // compression of large uploads is slow
	IdleTimeout             = 60 * time.Second
	GracefulShutdownTimeout = 10 * time.Second

	serviceName = "pdf-compressor"
)

// Compressor is the subset of *compress.Compressor the handlers use.
type Compressor interface {
	Options() options.Options
	Compress(ctx context.Context, inputPath, outputPath string, override options.Override) (*compress.CompressionResult, error)
}

// Logger is the minimal logging interface needed by the server.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// Server wires the gin engine to a Compressor.
type Server struct {
	cfg    config.ServeConfig
	comp   Compressor
	log    Logger
	auth   *Authenticator
	engine *gin.Engine
}

// New builds the engine and its routes. An empty cfg.TempDir means the OS
// temp directory.
func New(cfg config.ServeConfig, comp Compressor, log Logger) (*Server, error) {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	s := &Server{cfg: cfg, comp: comp, log: log}
	if cfg.AuthSecret != "" {
		a, err := NewAuthenticator([]byte(cfg.AuthSecret), cfg.AuthIssuer)
		if err != nil {
			return nil, err
		}
		s.auth = a
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.GET("/health", s.handleHealth)

	api := r.Group("/api/pdf")
	if s.auth != nil {
		api.Use(s.auth.Middleware())
	}
	api.POST("/compress", s.handleCompress)

	s.engine = r
	return s, nil
}

// Handler returns the HTTP handler, for httptest and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening on %s (max upload %d bytes, temp %s)", srv.Addr, s.cfg.MaxFileSize, s.cfg.TempDir)
		if s.auth == nil {
			s.log.Warn("API authentication disabled (no auth secret)")
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server exited gracefully")
	return nil
}

// requestLog logs one line per request at DEBUG, or WARN for 5xx responses.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			s.log.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond))
			return
		}
		s.log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
