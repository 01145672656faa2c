package settings

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
)

const testTimeout = 10 * time.Second

// Handlers serves the first-run setup endpoints. They sit outside the
// session guard: setup has to work before anyone can log in.
type Handlers struct {
	service *Service
	cache   *cache.Cache
}

// NewHandlers creates setup handlers.
func NewHandlers(service *Service, responseCache *cache.Cache) *Handlers {
	return &Handlers{service: service, cache: responseCache}
}

// RegisterRoutes registers setup routes on the public group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/setup/status", h.Status)
	g.POST("/setup/test", h.Test)
	g.POST("/setup", h.Save)
}

// Status reports whether first-run setup has been completed.
func (h *Handlers) Status(c echo.Context) error {
	ctx := c.Request().Context()
	up, err := h.service.Upstreams(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load settings")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"setupComplete":        h.service.SetupComplete(ctx),
		"jellyfinConfigured":   up.JellyfinURL != "",
		"jellyseerrConfigured": up.JellyseerrURL != "",
	})
}

type testRequest struct {
	Service string `json:"service"` // jellyfin or jellyseerr
	URL     string `json:"url"`
	APIKey  string `json:"apiKey"`
}

// Test probes an upstream with candidate credentials without saving
// anything.
func (h *Handlers) Test(c echo.Context) error {
	var req testRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	ctx := c.Request().Context()
	switch req.Service {
	case "jellyfin":
		name, version, err := jellyfin.TestConnection(ctx, req.URL, req.APIKey, testTimeout)
		if err != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"ok": false, "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"ok": true, "serverName": name, "version": version,
		})
	case "jellyseerr":
		version, err := jellyseerr.TestConnection(ctx, req.URL, req.APIKey, testTimeout)
		if err != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"ok": false, "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "version": version})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "service must be jellyfin or jellyseerr")
	}
}

// Save persists the upstream configuration and drops every cached
// response built against the old upstreams.
func (h *Handlers) Save(c echo.Context) error {
	var input SetupInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SaveSetup(c.Request().Context(), input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.cache.Clear()
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
