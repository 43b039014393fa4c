// Package server exposes the generation service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/metrics"
)

// Generator runs a generation request. *generation.Service implements it.
type Generator interface {
	Generate(ctx context.Context, caller generation.Caller, req generation.Request) (*generation.Response, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SearchHealth probes the search backend. *relevance.Adapter implements it.
type SearchHealth interface {
	Health(ctx context.Context) error
}

// Config controls the HTTP layer.
type Config struct {
	Addr string

	// RequestTimeout bounds a single generation request. Zero disables it.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration

	// Production switches gin into release mode.
	Production bool

	Version string
}

// DefaultConfig returns the standard HTTP settings.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Version:         "(devel)",
	}
}

// Deps are the collaborators the handlers call. Only Generator is required.
type Deps struct {
	Generator Generator
	DB        Pinger
	Search    SearchHealth
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Server is the questgen HTTP API.
type Server struct {
	cfg    Config
	deps   Deps
	schema *jsonschema.Schema
	engine *gin.Engine
	log    *zap.Logger
}

// New builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Generator == nil {
		return nil, errors.New("server: generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	schema, err := compileRequestSchema()
	if err != nil {
		return nil, err
	}

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		schema: schema,
		engine: gin.New(),
		log:    deps.Logger.Named("http"),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log, s.deps.Metrics))

	r.GET("/health", s.health)
	r.GET("/health/deep", s.deepHealth)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/taxonomy", s.taxonomy)

		questions := v1.Group("/questions")
		questions.POST("/generate", s.generate)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
