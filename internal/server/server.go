package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"deckhand/internal/auth"
	"deckhand/internal/config"
	"deckhand/internal/constants"
	"deckhand/internal/interfaces"
	"deckhand/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SessionExpiry   time.Duration
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            constants.DefaultServerHost,
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		SessionExpiry:   constants.DefaultSessionTimeout,
	}
}

// ConfigFrom builds a server configuration from the loaded deckhand config
func ConfigFrom(cfg *config.Config) *Config {
	sc := DefaultConfig()
	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	sc.SessionExpiry = cfg.Auth.SessionExpiry()
	return sc
}

// Dependencies are the controllers the handlers delegate to
type Dependencies struct {
	Git        interfaces.GitController
	Containers interfaces.ContainerController
	Status     interfaces.StatusProvider
	Auth       *auth.Authenticator
}

// Server represents the main HTTP server
type Server struct {
	config     *Config
	echo       *echo.Echo
	git        interfaces.GitController
	containers interfaces.ContainerController
	status     interfaces.StatusProvider
	auth       *auth.Authenticator
	startTime  time.Time
	setupOnce  sync.Once
}

// New creates a new server instance
func New(cfg *Config, deps Dependencies) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	return &Server{
		config:     cfg,
		echo:       e,
		git:        deps.Git,
		containers: deps.Containers,
		status:     deps.Status,
		auth:       deps.Auth,
		startTime:  time.Now(),
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	s.setup()
	return s.echo
}

func (s *Server) setup() {
	s.setupOnce.Do(func() {
		s.setupMiddleware()
		s.setupRoutes()
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.setup()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	logger.WithFields(logger.Fields{
		"address":   addr,
		"operation": "server_start",
	}).Info("Server listening")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Logger.Info("Server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit("64K"))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
}
