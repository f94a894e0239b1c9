package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/py-react/cloud-ops-sub002/internal/compose"
	"github.com/py-react/cloud-ops-sub002/internal/repository"
	"github.com/py-react/cloud-ops-sub002/internal/runner"
	"github.com/py-react/cloud-ops-sub002/internal/scm"
	"github.com/py-react/cloud-ops-sub002/internal/server/routes"
	"github.com/py-react/cloud-ops-sub002/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

type Config struct {
	Port int
	// DatabasePath is the SQLite file. Empty keeps the database in memory.
	DatabasePath  string
	Logger        zerolog.Logger
	PodDefaults   compose.PodDefaults
	SourceControl scm.SourceControl
	// Runner executes release runs. Nil disables execution.
	Runner runner.Runner
}

type Server struct {
	e      *echo.Echo
	config *Config
}

func New(config *Config) *Server {
	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRemoteIP:  true,
		LogHost:      true,
		LogMethod:    true,
		LogURI:       true,
		LogUserAgent: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			config.Logger.Info().
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Str("host", v.Host).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("user_agent", v.UserAgent).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("handled request")
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			config.Logger.Error().Err(err).Bytes("stack", stack).Send()
			return err
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			logger := config.Logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
			return next(c)
		}
	})

	s := &Server{e: e, config: config}
	s.init()
	return s
}

func (s *Server) init() {
	injector := do.New()
	s.injectDependencies(injector)
	s.registerRoutes(injector)
}

func (s *Server) injectDependencies(injector *do.Injector) {
	repository.Provide(injector, s.config.DatabasePath)
	do.ProvideValue(injector, s.config.PodDefaults)
	sourceControl := s.config.SourceControl
	if sourceControl == nil {
		sourceControl = scm.NewStatic(nil)
	}
	do.ProvideValue(injector, sourceControl)
	if git, ok := sourceControl.(*scm.GitSourceControl); ok {
		do.ProvideValue(injector, git)
	}
	if s.config.Runner != nil {
		do.ProvideValue(injector, s.config.Runner)
	}
	usecase.Provide(injector)
}

func (s *Server) registerRoutes(injector *do.Injector) {
	routes.RegisterMisc(injector, s.e)
	routes.RegisterProfiles(injector, s.e)
	routes.RegisterContainers(injector, s.e)
	routes.RegisterPods(injector, s.e)
	routes.RegisterReleases(injector, s.e)
	routes.RegisterRuns(injector, s.e)
	routes.RegisterStatus(injector, s.e)
	routes.RegisterGitSmartHTTP(injector, s.e)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.config.Logger.Info().Str("addr", addr).Msg("starting server")
	return s.e.Start(addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
