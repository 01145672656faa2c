package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/dagzflix/dagzflix/internal/testutil"
)

func TestService_GetMissingKey(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()
	svc := NewService(tdb.Conn, tdb.Logger)

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SetOverwrites(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()
	svc := NewService(tdb.Conn, tdb.Logger)

	if err := svc.Set(context.Background(), "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Set(context.Background(), "k", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, err := svc.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "v2" {
		t.Errorf("value = %q, want v2", value)
	}
}

func TestService_SaveSetupRequiresJellyfinURL(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()
	svc := NewService(tdb.Conn, tdb.Logger)

	err := svc.SaveSetup(context.Background(), SetupInput{JellyseerrURL: "http://seerr"})
	if err == nil {
		t.Fatal("expected error for missing jellyfin URL")
	}
	if svc.SetupComplete(context.Background()) {
		t.Error("failed save must not mark setup complete")
	}
}

func TestService_SaveSetupTrimsTrailingSlash(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()
	svc := NewService(tdb.Conn, tdb.Logger)

	err := svc.SaveSetup(context.Background(), SetupInput{
		JellyfinURL:   "http://jellyfin.local:8096/",
		JellyseerrURL: "http://seerr.local:5055///",
	})
	if err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}

	up, err := svc.Upstreams(context.Background())
	if err != nil {
		t.Fatalf("Upstreams: %v", err)
	}
	if up.JellyfinURL != "http://jellyfin.local:8096" {
		t.Errorf("JellyfinURL = %q", up.JellyfinURL)
	}
	if up.JellyseerrURL != "http://seerr.local:5055" {
		t.Errorf("JellyseerrURL = %q", up.JellyseerrURL)
	}
	if !svc.SetupComplete(context.Background()) {
		t.Error("setup should be complete")
	}
}

func TestService_SaveSetupIsFullReplace(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()
	svc := NewService(tdb.Conn, tdb.Logger)

	first := SetupInput{JellyfinURL: "http://jf", JellyseerrURL: "http://js", JellyseerrAPIKey: "k"}
	if err := svc.SaveSetup(context.Background(), first); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}

	// Re-save without Jellyseerr: the old values must not linger.
	second := SetupInput{JellyfinURL: "http://jf"}
	if err := svc.SaveSetup(context.Background(), second); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}

	baseURL, apiKey, err := svc.Jellyseerr(context.Background())
	if err != nil {
		t.Fatalf("Jellyseerr: %v", err)
	}
	if baseURL != "" || apiKey != "" {
		t.Errorf("stale jellyseerr config survived: %q %q", baseURL, apiKey)
	}
}
