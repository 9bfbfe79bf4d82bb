package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/wingman/ai/metrics"
	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/server/auth"
	apiv1 "github.com/hrygo/wingman/server/router/api/v1"
	"github.com/hrygo/wingman/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	listener   net.Listener
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Store:   store,
		Profile: profile,
		Secret:  profile.Secret,
	}
	if s.Secret == "" {
		s.Secret = uuid.NewString()
		slog.Warn("WINGMAN_SECRET is not set, using a random secret; tokens will not survive a restart")
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(requestLogger())
	s.echoServer = echoServer

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())

	files, err := newFileStore(ctx, profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file store")
	}

	apiV1Service := apiv1.NewAPIV1Service(profile, store, files, auth.NewAuthenticator(s.Secret))
	apiV1Service.Metrics = exporter

	if profile.IsAIEnabled() {
		orchestrator, err := newOrchestrator(ctx, profile, store, files, exporter)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create chat orchestrator")
		}
		apiV1Service.Chat = orchestrator
	} else {
		slog.Info("AI features disabled, set WINGMAN_AI_LLM_API_KEY to enable chat")
	}

	apiV1Service.RegisterRoutes(echoServer)
	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("wingman stopped properly")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				slog.Warn("HTTP request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("HTTP request", attrs...)
			return nil
		},
	})
}
