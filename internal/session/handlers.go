package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/jellyfin"
)

// contextKey is the echo context key the middleware stores the session
// under.
const contextKey = "session"

// Handlers serves the authentication endpoints.
type Handlers struct {
	service *Service
	cache   *cache.Cache
}

// NewHandlers creates session handlers.
func NewHandlers(service *Service, responseCache *cache.Cache) *Handlers {
	return &Handlers{service: service, cache: responseCache}
}

// RegisterRoutes registers authentication routes. Login is open; the
// rest sit behind the session middleware.
func (h *Handlers) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/login", h.Login)
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/auth/session", h.CurrentSession)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the library upstream and sets the session
// cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	sess, token, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, jellyfin.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		if errors.Is(err, jellyfin.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "media server is not configured")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "media server login failed")
	}

	c.SetCookie(sessionCookie(token, sess.ExpiresAt))
	h.cache.InvalidatePrefix("auth")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": map[string]string{
			"id":       sess.UserID,
			"username": sess.Username,
		},
	})
}

// Logout revokes the current session and clears the cookie.
func (h *Handlers) Logout(c echo.Context) error {
	sess := FromContext(c)
	if sess != nil {
		if err := h.service.Logout(c.Request().Context(), sess.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to log out")
		}
	}

	c.SetCookie(expiredCookie())
	h.cache.InvalidatePrefix("auth")

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// CurrentSession returns the logged-in user.
func (h *Handlers) CurrentSession(c echo.Context) error {
	sess := FromContext(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": map[string]string{
			"id":       sess.UserID,
			"username": sess.Username,
		},
		"expiresAt": sess.ExpiresAt,
	})
}

// Middleware resolves the session cookie and rejects unauthenticated
// requests.
func Middleware(service *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			sess, err := service.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				c.SetCookie(expiredCookie())
				if errors.Is(err, ErrExpiredSession) {
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// FromContext returns the request's session, or nil outside the
// middleware.
func FromContext(c echo.Context) *Session {
	sess, _ := c.Get(contextKey).(*Session)
	return sess
}

func sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
