// Package api exposes the assessment over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/aggregate"
	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/session"
)

// Server is the HTTP front of the orchestrator and the aggregator.
type Server struct {
	e    *echo.Echo
	orch *session.Orchestrator
	agg  *aggregate.Aggregator
	auth assessment.Authorizer
	log  *zap.Logger
}

// New builds the echo server and registers its routes.
func New(orch *session.Orchestrator, agg *aggregate.Aggregator, auth assessment.Authorizer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{e: echo.New(), orch: orch, agg: agg, auth: auth, log: logger}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Logger.SetLevel(log.WARN)
	s.e.HTTPErrorHandler = s.handleError
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	s.e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "OK")
	})

	g := s.e.Group("/api")
	g.POST("/sessions/:subtest/start", s.sessionAction(s.orch.Start))
	g.POST("/sessions/:subtest/restart", s.sessionAction(s.orch.Restart))
	g.POST("/sessions/:subtest/resume", s.sessionAction(s.orch.Resume))
	g.POST("/sessions/:subtest/end", s.sessionAction(s.orch.End))
	g.GET("/sessions/:subtest", s.sessionAction(s.orch.Current))
	g.GET("/sessions/:subtest/question", s.sessionAction(s.orch.NextQuestion))
	g.POST("/sessions/:subtest/answers", s.submit)
	g.GET("/results/:subtest", s.subTestResult)
	g.POST("/final-result", s.generate)
	g.GET("/final-result", s.finalResult)

	return s
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
