// Package server assembles the HTTP API as a startup dependency
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/middleware"
	"github.com/Ramsey-B/fern/internal/repositories/linkageproject"
	"github.com/Ramsey-B/fern/internal/repositories/linkagerun"
	recordrepo "github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/pkg/linkage"
	"github.com/Ramsey-B/fern/pkg/routes/compare"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/project"
	recordroutes "github.com/Ramsey-B/fern/pkg/routes/record"
	"github.com/Ramsey-B/fern/pkg/routes/run"
)

// Dependencies are the services the route handlers resolve at request time
type Dependencies struct {
	Projects *linkageproject.Repository
	Runs     *linkagerun.Repository
	Records  *recordrepo.Repository
	Linkage  *linkage.Service
	Health   *health.Checker
}

// Server hosts the HTTP API
type Server struct {
	echo   *echo.Echo
	cfg    config.Config
	deps   Dependencies
	logger ectologger.Logger
}

// New builds the echo instance with middleware and routes. The returned
// server implements startup.Dependency.
func New(cfg config.Config, deps Dependencies, logger ectologger.Logger) (*Server, error) {
	if err := registerDependencies(deps, logger); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	RegisterRoutes(e, deps.Health)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	return &Server{
		echo:   e,
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}, nil
}

// RegisterRoutes mounts every route group under /api/v1
func RegisterRoutes(e *echo.Echo, checker *health.Checker) {
	api := e.Group("/api/v1")

	if checker != nil {
		checker.Register(api.Group("/health"))
	}
	project.Register(api.Group("/projects"))
	run.Register(api.Group(""))
	recordroutes.Register(api.Group(""))
	compare.Register(api.Group("/compare"))
}

// registerDependencies publishes the route dependencies to the DI container
func registerDependencies(deps Dependencies, logger ectologger.Logger) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create dependency container: %w", err)
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*linkageproject.Repository](container, deps.Projects); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*linkagerun.Repository](container, deps.Runs); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*recordrepo.Repository](container, deps.Records); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*linkage.Service](container, deps.Linkage); err != nil {
		return err
	}
	return nil
}

// Echo exposes the underlying echo instance for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// GetName implements startup.Dependency
func (s *Server) GetName() string {
	return "http-server"
}

// DependsOn implements startup.Dependency
func (s *Server) DependsOn() []string {
	return []string{"database"}
}

// Start implements startup.Dependency. The listener runs in the background;
// a bind failure surfaces through the logger rather than the return value.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)

	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.WithContext(ctx).WithError(err).Error("HTTP server stopped")
		}
	}()

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"addr": addr,
	}).Info("HTTP server listening")

	if s.deps.Health != nil {
		s.deps.Health.SetReady(true)
	}
	return nil
}

// Stop implements startup.Dependency
func (s *Server) Stop(ctx context.Context) error {
	if s.deps.Health != nil {
		s.deps.Health.SetReady(false)
	}
	return s.echo.Shutdown(ctx)
}
