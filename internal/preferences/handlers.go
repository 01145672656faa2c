package preferences

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/session"
)

// Broadcaster pushes events to connected browsers.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Handlers serves the preference endpoints.
type Handlers struct {
	service *Service
	cache   *cache.Cache
	hub     Broadcaster
}

// NewHandlers creates preference handlers.
func NewHandlers(service *Service, responseCache *cache.Cache, hub Broadcaster) *Handlers {
	return &Handlers{service: service, cache: responseCache, hub: hub}
}

// RegisterRoutes registers preference routes on the protected group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/preferences", h.Get)
	g.POST("/preferences", h.Save)
}

// Get returns the logged-in user's taste profile.
func (h *Handlers) Get(c echo.Context) error {
	sess := session.FromContext(c)

	params := url.Values{}
	params.Set("userId", sess.UserID)
	key := cache.Key("preferences", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Get(ctx, sess.UserID)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load preferences")
	}
	return c.JSON(http.StatusOK, payload)
}

// Save replaces the profile and invalidates everything ranked with it.
func (h *Handlers) Save(c echo.Context) error {
	sess := session.FromContext(c)

	var prefs Preferences
	if err := c.Bind(&prefs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Save(c.Request().Context(), sess.UserID, prefs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save preferences")
	}

	h.cache.InvalidatePrefix("preferences")
	h.cache.InvalidatePrefix("recommendations")
	if h.hub != nil {
		h.hub.Broadcast("preferences:saved", map[string]string{"userId": sess.UserID})
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
