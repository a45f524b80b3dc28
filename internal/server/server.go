package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/auth"
	"github.com/spacesedan/sentiscope/internal/ingest"
	"github.com/spacesedan/sentiscope/internal/models"
)

type tokenService interface {
	Issue(ctx context.Context, username, password string) (auth.Token, error)
	Verify(ctx context.Context, token string) (string, error)
	TTL() time.Duration
}

type analyzer interface {
	AnalyzeText(ctx context.Context, username, text string) (models.SentimentResult, error)
	AnalyzeTable(ctx context.Context, username string, table *ingest.Table) (models.BatchResult, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	tokens       tokenService
	analyzer     analyzer
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, tokens tokenService, analyzer analyzer, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		tokens:       tokens,
		analyzer:     analyzer,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	e.HTTPErrorHandler = srv.handleHTTPError
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("[Server] Starting server", slog.String("port", s.config.Port))
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
