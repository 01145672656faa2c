// Package api assembles the HTTP server: services, middleware and
// routes.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/config"
	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
	"github.com/dagzflix/dagzflix/internal/media"
	"github.com/dagzflix/dagzflix/internal/preferences"
	"github.com/dagzflix/dagzflix/internal/recommend"
	"github.com/dagzflix/dagzflix/internal/session"
	"github.com/dagzflix/dagzflix/internal/settings"
	"github.com/dagzflix/dagzflix/internal/websocket"
)

// Server handles HTTP requests for the DagzFlix API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	cache     *cache.Cache
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	// Services
	settingsService    *settings.Service
	sessionService     *session.Service
	preferencesService *preferences.Service
	mediaService       *media.Service
	recommendService   *recommend.Service
	jellyfinClient     *jellyfin.Client
	jellyseerrClient   *jellyseerr.Client
}

// NewServer creates a new API server instance.
func NewServer(db *sql.DB, hub *websocket.Hub, responseCache *cache.Cache, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		cache:     responseCache,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}

	s.settingsService = settings.NewService(db, logger)
	s.jellyfinClient = jellyfin.NewClient(s.settingsService, cfg.Upstream, logger)
	s.jellyseerrClient = jellyseerr.NewClient(s.settingsService, cfg.Upstream, logger)
	s.sessionService = session.NewService(db, s.settingsService, s.jellyfinClient, logger)
	s.preferencesService = preferences.NewService(db, logger)
	s.mediaService = media.NewService(s.jellyfinClient, s.jellyseerrClient, logger)
	s.recommendService = recommend.NewService(s.jellyfinClient, s.jellyseerrClient, s.preferencesService, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// SessionService exposes the session service for background jobs.
func (s *Server) SessionService() *session.Service {
	return s.sessionService
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XFrameOptions:      "DENY",
		ContentTypeNosniff: "nosniff",
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api")
	api.GET("/status", s.getStatus)

	// Setup endpoints stay open: they have to work before login exists.
	setupHandlers := settings.NewHandlers(s.settingsService, s.cache)
	setupHandlers.RegisterRoutes(api)

	protected := api.Group("", session.Middleware(s.sessionService))

	sessionHandlers := session.NewHandlers(s.sessionService, s.cache)
	sessionHandlers.RegisterRoutes(api, protected)

	preferenceHandlers := preferences.NewHandlers(s.preferencesService, s.cache, s.hub)
	preferenceHandlers.RegisterRoutes(protected)

	mediaHandlers := media.NewHandlers(s.mediaService, s.cache, s.hub)
	mediaHandlers.RegisterRoutes(protected)

	recommendHandlers := recommend.NewHandlers(s.recommendService, s.cache)
	recommendHandlers.RegisterRoutes(protected)

	protected.GET("/events", s.hub.HandleWebSocket)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()
	up, _ := s.settingsService.Upstreams(ctx)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":              config.Version,
		"startTime":            s.startTime.Format(time.RFC3339),
		"setupComplete":        s.settingsService.SetupComplete(ctx),
		"jellyseerrConfigured": up.JellyseerrURL != "",
		"cacheEntries":         s.cache.Len(),
		"connectedClients":     s.hub.ClientCount(),
	})
}
