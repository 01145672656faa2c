package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dagzflix/dagzflix/internal/cache"
	"github.com/dagzflix/dagzflix/internal/config"
	"github.com/dagzflix/dagzflix/internal/settings"
	"github.com/dagzflix/dagzflix/internal/testutil"
	"github.com/dagzflix/dagzflix/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	logger := testutil.NewTestLogger(t)

	hub := websocket.NewHub(logger)
	go hub.Run()

	responseCache := cache.New(cache.Config{Policies: cache.DefaultPolicies()})

	cfg := config.Default()
	server := NewServer(tdb.Conn, hub, responseCache, cfg, logger)

	return server, func() {
		hub.Stop()
		tdb.Close()
	}
}

func TestServer_HealthIsOpen(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestServer_ProtectedRoutesRequireSession(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	paths := []string{
		"/api/library",
		"/api/recommendations",
		"/api/preferences",
		"/api/search?q=dune",
		"/api/media/status?id=x",
		"/api/resume",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Echo().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, rec.Code)
		}
	}
}

func TestServer_SetupIsOpen(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/setup/status", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("setup status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["setupComplete"] != false {
		t.Errorf("setupComplete = %v, want false", body["setupComplete"])
	}
}

func TestServer_LoginFlow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/AuthenticateByName" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"User":        map[string]string{"Id": "u1", "Name": "alice"},
			"AccessToken": "upstream-token",
		})
	}))
	defer upstream.Close()

	server, cleanup := newTestServer(t)
	defer cleanup()

	if err := server.settingsService.SaveSetup(context.Background(), settings.SetupInput{
		JellyfinURL: upstream.URL,
	}); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}

	// Login sets the session cookie.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "dagzflix_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("login did not set the session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	// The cookie unlocks protected routes.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "alice") {
		t.Errorf("session body missing username: %s", rec.Body.String())
	}

	// Logout revokes it.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked cookie still accepted: %d", rec.Code)
	}
}

func TestServer_StatusEndpoint(t *testing.T) {
	server, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Error("status body missing version")
	}
}
