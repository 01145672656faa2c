package recommend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
	"github.com/dagzflix/dagzflix/internal/session"
)

// Handlers serves the recommendation endpoints.
type Handlers struct {
	service *Service
	cache   *cache.Cache
}

// NewHandlers creates recommendation handlers.
func NewHandlers(service *Service, responseCache *cache.Cache) *Handlers {
	return &Handlers{service: service, cache: responseCache}
}

// RegisterRoutes registers recommendation routes on the protected group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/recommendations", h.Recommendations)
	g.GET("/wizard/discover", h.WizardDiscover)
}

// Recommendations returns the user's ranked shelf.
func (h *Handlers) Recommendations(c echo.Context) error {
	sess := session.FromContext(c)

	params := url.Values{}
	params.Set("userId", sess.UserID)
	key := cache.Key("recommendations", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Recommendations(ctx, sess.UserID, sess.JellyfinToken)
	})
	if err != nil {
		if errors.Is(err, ErrNoSources) {
			return echo.NewHTTPError(http.StatusBadGateway, "no recommendation sources available")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build recommendations")
	}
	return c.JSON(http.StatusOK, payload)
}

// WizardDiscover returns filtered discovery titles for the onboarding
// wizard.
func (h *Handlers) WizardDiscover(c echo.Context) error {
	q := WizardQuery{
		Era:     c.QueryParam("era"),
		Mood:    c.QueryParam("mood"),
		Runtime: c.QueryParam("runtime"),
		Type:    c.QueryParam("type"),
	}

	params := url.Values{}
	params.Set("era", q.Era)
	params.Set("mood", q.Mood)
	params.Set("runtime", q.Runtime)
	params.Set("type", q.Type)
	key := cache.Key("wizard", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.WizardDiscover(ctx, q)
	})
	if err != nil {
		if errors.Is(err, jellyseerr.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "discovery service is not configured")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load wizard titles")
	}
	return c.JSON(http.StatusOK, payload)
}
