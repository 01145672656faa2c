package media

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/jellyseerr"
	"github.com/dagzflix/dagzflix/internal/session"
	"github.com/dagzflix/dagzflix/internal/status"
)

// Broadcaster pushes events to connected browsers.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Handlers serves the catalog, status, search and playback endpoints.
type Handlers struct {
	service *Service
	cache   *cache.Cache
	hub     Broadcaster
}

// NewHandlers creates media handlers.
func NewHandlers(service *Service, responseCache *cache.Cache, hub Broadcaster) *Handlers {
	return &Handlers{service: service, cache: responseCache, hub: hub}
}

// RegisterRoutes registers all media routes on the protected group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/library", h.Library)
	g.GET("/genres", h.Genres)
	g.GET("/resume", h.Resume)
	g.GET("/search", h.Search)
	g.GET("/media/status", h.Status)
	g.GET("/media/collection", h.Collection)
	g.GET("/discover", h.Discover)
	g.GET("/media/:id", h.Detail)
	g.GET("/media/:id/seasons", h.Seasons)
	g.GET("/media/:id/episodes", h.Episodes)
	g.GET("/media/:id/trailers", h.Trailers)
	g.GET("/media/:id/stream", h.Stream)
	g.POST("/request", h.Request)
	g.POST("/progress", h.Progress)
}

// Library lists a page of the user's library.
func (h *Handlers) Library(c echo.Context) error {
	sess := session.FromContext(c)

	q := jellyfin.LibraryQuery{
		Type:       c.QueryParam("type"),
		SortBy:     c.QueryParam("sortBy"),
		SortOrder:  c.QueryParam("sortOrder"),
		GenreIDs:   c.QueryParam("genreIds"),
		SearchTerm: c.QueryParam("search"),
	}
	q.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	q.StartIndex, _ = strconv.Atoi(c.QueryParam("startIndex"))

	params := c.QueryParams()
	params.Set("userId", sess.UserID)
	key := cache.Key("library", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		page, err := h.service.jellyfin.Library(ctx, sess.JellyfinToken, sess.JellyfinUserID, q)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"items": page.Items, "totalCount": page.TotalCount}, nil
	})
	if err != nil {
		return upstreamError(err, "failed to load library")
	}
	return c.JSON(http.StatusOK, payload)
}

// Genres lists the library's genres.
func (h *Handlers) Genres(c echo.Context) error {
	sess := session.FromContext(c)

	params := url.Values{}
	params.Set("userId", sess.UserID)
	key := cache.Key("genres", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.jellyfin.Genres(ctx, sess.JellyfinToken, sess.JellyfinUserID)
	})
	if err != nil {
		return upstreamError(err, "failed to load genres")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"genres": payload})
}

// Resume lists in-progress titles.
func (h *Handlers) Resume(c echo.Context) error {
	sess := session.FromContext(c)

	params := url.Values{}
	params.Set("userId", sess.UserID)
	key := cache.Key("resume", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.jellyfin.Resume(ctx, sess.JellyfinToken, sess.JellyfinUserID)
	})
	if err != nil {
		return upstreamError(err, "failed to load resume list")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": payload})
}

// Search runs a unified search across both catalogs.
func (h *Handlers) Search(c echo.Context) error {
	sess := session.FromContext(c)

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q parameter is required")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("userId", sess.UserID)
	key := cache.Key("search", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Search(ctx, sess.JellyfinToken, sess.JellyfinUserID, query, page)
	})
	if err != nil {
		return upstreamError(err, "search failed")
	}
	return c.JSON(http.StatusOK, payload)
}

// Status resolves the smart button state for one title.
func (h *Handlers) Status(c echo.Context) error {
	sess := session.FromContext(c)

	q := StatusQuery{
		ItemID:    c.QueryParam("id"),
		MediaType: c.QueryParam("mediaType"),
	}
	q.TmdbID, _ = strconv.Atoi(c.QueryParam("tmdbId"))
	if q.ItemID == "" && q.TmdbID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id or tmdbId is required")
	}
	if q.MediaType == "" {
		q.MediaType = "movie"
	}

	params := c.QueryParams()
	params.Set("userId", sess.UserID)
	key := cache.Key("status", params)

	if payload, ok := h.cache.Get(key); ok {
		return c.JSON(http.StatusOK, payload)
	}

	result := h.service.Status(c.Request().Context(), sess.JellyfinToken, sess.JellyfinUserID, q)
	// An unknown verdict reflects a transient outage; caching it would
	// pin the outage for the full status TTL.
	if result.Status != status.Unknown {
		h.cache.Set(key, result)
	}
	return c.JSON(http.StatusOK, result)
}

// Collection looks up a title's franchise.
func (h *Handlers) Collection(c echo.Context) error {
	sess := session.FromContext(c)

	q := CollectionQuery{ItemID: c.QueryParam("id")}
	q.TmdbID, _ = strconv.Atoi(c.QueryParam("tmdbId"))
	if q.ItemID == "" && q.TmdbID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id or tmdbId is required")
	}

	params := c.QueryParams()
	params.Set("userId", sess.UserID)
	key := cache.Key("collection", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Collection(ctx, sess.JellyfinToken, sess.JellyfinUserID, q)
	})
	if err != nil {
		return upstreamError(err, "collection lookup failed")
	}
	return c.JSON(http.StatusOK, payload)
}

// Discover proxies a remote discovery page.
func (h *Handlers) Discover(c echo.Context) error {
	q := jellyseerr.DiscoverQuery{
		MediaType: c.QueryParam("type"),
		GenreID:   c.QueryParam("genre"),
		SortBy:    c.QueryParam("sortBy"),
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))

	key := cache.Key("discover", c.QueryParams())

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.jellyseerr.Discover(ctx, q)
	})
	if err != nil {
		return upstreamError(err, "discover failed")
	}
	return c.JSON(http.StatusOK, payload)
}

// Detail returns a title's full detail view.
func (h *Handlers) Detail(c echo.Context) error {
	sess := session.FromContext(c)
	itemID := c.Param("id")

	params := url.Values{}
	params.Set("itemId", itemID)
	params.Set("userId", sess.UserID)
	key := cache.Key("detail", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Detail(ctx, sess.JellyfinToken, sess.JellyfinUserID, itemID)
	})
	if err != nil {
		return upstreamError(err, "failed to load title")
	}
	return c.JSON(http.StatusOK, payload)
}

// Seasons lists a series' seasons.
func (h *Handlers) Seasons(c echo.Context) error {
	sess := session.FromContext(c)
	seriesID := c.Param("id")

	params := url.Values{}
	params.Set("seriesId", seriesID)
	params.Set("userId", sess.UserID)
	key := cache.Key("seasons", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.jellyfin.Seasons(ctx, sess.JellyfinToken, sess.JellyfinUserID, seriesID)
	})
	if err != nil {
		return upstreamError(err, "failed to load seasons")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"seasons": payload})
}

// Episodes lists a series' episodes.
func (h *Handlers) Episodes(c echo.Context) error {
	sess := session.FromContext(c)
	seriesID := c.Param("id")
	seasonID := c.QueryParam("seasonId")

	params := url.Values{}
	params.Set("seriesId", seriesID)
	params.Set("seasonId", seasonID)
	params.Set("userId", sess.UserID)
	key := cache.Key("episodes", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.jellyfin.Episodes(ctx, sess.JellyfinToken, sess.JellyfinUserID, seriesID, seasonID)
	})
	if err != nil {
		return upstreamError(err, "failed to load episodes")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"episodes": payload})
}

// Trailers returns local and remote trailers for one title.
func (h *Handlers) Trailers(c echo.Context) error {
	sess := session.FromContext(c)
	itemID := c.Param("id")

	tmdbID, _ := strconv.Atoi(c.QueryParam("tmdbId"))
	mediaType := c.QueryParam("mediaType")
	if mediaType == "" {
		mediaType = "movie"
	}

	params := c.QueryParams()
	params.Set("itemId", itemID)
	params.Set("userId", sess.UserID)
	key := cache.Key("trailers", params)

	payload, err := h.cache.GetOrFetch(c.Request().Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.Trailers(ctx, sess.JellyfinToken, sess.JellyfinUserID, itemID, tmdbID, mediaType), nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load trailers")
	}
	return c.JSON(http.StatusOK, payload)
}

// Stream negotiates playback and returns the stream URLs. Never cached:
// every response carries a fresh play session.
func (h *Handlers) Stream(c echo.Context) error {
	sess := session.FromContext(c)

	info, err := h.service.jellyfin.StreamInfo(c.Request().Context(), sess.JellyfinToken, sess.JellyfinUserID, c.Param("id"))
	if err != nil {
		return upstreamError(err, "failed to start playback")
	}
	return c.JSON(http.StatusOK, info)
}

type requestBody struct {
	TmdbID    int    `json:"tmdbId"`
	MediaType string `json:"mediaType"`
	Seasons   []int  `json:"seasons"`
}

// Request submits a media request to the fulfillment service.
func (h *Handlers) Request(c echo.Context) error {
	var req requestBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TmdbID == 0 || req.MediaType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tmdbId and mediaType are required")
	}

	result, err := h.service.jellyseerr.Request(c.Request().Context(), req.TmdbID, req.MediaType, req.Seasons)
	if err != nil {
		if errors.Is(err, jellyseerr.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "request service is not configured")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "request submission failed")
	}

	// The title's status just changed everywhere it is rendered.
	h.cache.InvalidatePrefix("status")
	h.cache.InvalidatePrefix("search")
	h.cache.InvalidatePrefix("discover")
	if h.hub != nil {
		h.hub.Broadcast("media:requested", map[string]interface{}{
			"tmdbId":    req.TmdbID,
			"mediaType": req.MediaType,
		})
	}

	return c.JSON(http.StatusOK, result)
}

// Progress forwards a playback progress report and keeps the resume
// shelf fresh.
func (h *Handlers) Progress(c echo.Context) error {
	sess := session.FromContext(c)

	var report jellyfin.ProgressReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if report.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "itemId is required")
	}

	if err := h.service.jellyfin.ReportProgress(c.Request().Context(), sess.JellyfinToken, report); err != nil {
		return upstreamError(err, "failed to report progress")
	}

	h.cache.InvalidatePrefix("resume")
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// upstreamError maps adapter sentinel errors to HTTP statuses.
func upstreamError(err error, message string) error {
	switch {
	case errors.Is(err, jellyfin.ErrNotConfigured) || errors.Is(err, jellyseerr.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "upstream is not configured")
	case errors.Is(err, jellyfin.ErrItemNotFound) || errors.Is(err, jellyseerr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, message)
	}
}
