package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dagzflix/dagzflix/internal/config"
	"github.com/dagzflix/dagzflix/internal/jellyfin"
	"github.com/dagzflix/dagzflix/internal/settings"
	"github.com/dagzflix/dagzflix/internal/testutil"
)

func newTestService(t *testing.T, upstreamURL string) (*Service, *settings.Service, func()) {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	logger := testutil.NewTestLogger(t)

	settingsSvc := settings.NewService(tdb.Conn, logger)
	if upstreamURL != "" {
		if err := settingsSvc.SaveSetup(context.Background(), settings.SetupInput{JellyfinURL: upstreamURL}); err != nil {
			t.Fatalf("SaveSetup: %v", err)
		}
	}

	jf := jellyfin.NewClient(settingsSvc, config.UpstreamConfig{PrimaryTimeoutSec: 5, BestEffortTimeoutSec: 2}, logger)
	return NewService(tdb.Conn, settingsSvc, jf, logger), settingsSvc, tdb.Close
}

func fakeJellyfin(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/AuthenticateByName" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["Pw"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"User":        map[string]string{"Id": "u1", "Name": body["Username"]},
			"AccessToken": "upstream-token",
		})
	}))
}

func TestService_LoginAndResolve(t *testing.T) {
	upstream := fakeJellyfin(t)
	defer upstream.Close()

	svc, _, cleanup := newTestService(t, upstream.URL)
	defer cleanup()

	sess, token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Username != "alice" || sess.JellyfinToken != "upstream-token" {
		t.Errorf("unexpected session %+v", sess)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}

	resolved, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != sess.ID || resolved.JellyfinToken != "upstream-token" {
		t.Errorf("resolved session mismatch: %+v", resolved)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	upstream := fakeJellyfin(t)
	defer upstream.Close()

	svc, _, cleanup := newTestService(t, upstream.URL)
	defer cleanup()

	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, jellyfin.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_ResolveGarbageToken(t *testing.T) {
	svc, _, cleanup := newTestService(t, "")
	defer cleanup()

	if _, err := svc.Resolve(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestService_LogoutRevokes(t *testing.T) {
	upstream := fakeJellyfin(t)
	defer upstream.Close()

	svc, _, cleanup := newTestService(t, upstream.URL)
	defer cleanup()

	sess, token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background(), sess.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("revoked session should not resolve, got %v", err)
	}
}

func TestService_SecretIsStable(t *testing.T) {
	upstream := fakeJellyfin(t)
	defer upstream.Close()

	svc, settingsSvc, cleanup := newTestService(t, upstream.URL)
	defer cleanup()

	if _, _, err := svc.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	first, err := settingsSvc.Get(context.Background(), settings.KeySessionSecret)
	if err != nil {
		t.Fatalf("secret not persisted: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "bob", "secret"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	second, _ := settingsSvc.Get(context.Background(), settings.KeySessionSecret)
	if first != second {
		t.Error("secret should be generated once and reused")
	}
}

func TestService_SecretConcurrentFirstUse(t *testing.T) {
	svc, settingsSvc, cleanup := newTestService(t, "")
	defer cleanup()

	const callers = 8
	secrets := make([][]byte, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			secrets[i], errs[i] = svc.secret(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("secret call %d: %v", i, errs[i])
		}
		if string(secrets[i]) != string(secrets[0]) {
			t.Fatal("concurrent first use must settle on a single secret")
		}
	}

	persisted, err := settingsSvc.Get(context.Background(), settings.KeySessionSecret)
	if err != nil {
		t.Fatalf("secret not persisted: %v", err)
	}
	if persisted != string(secrets[0]) {
		t.Error("persisted secret differs from the one handed to callers")
	}
}

func TestService_CleanupExpired(t *testing.T) {
	upstream := fakeJellyfin(t)
	defer upstream.Close()

	svc, _, cleanup := newTestService(t, upstream.URL)
	defer cleanup()

	sess, _, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Backdate the session past its lifetime.
	_, err = svc.db.ExecContext(context.Background(),
		`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID)
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}

	removed, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
