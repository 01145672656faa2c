package jellyseerr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/config"
)

type staticSource struct {
	baseURL string
	apiKey  string
}

func (s staticSource) Jellyseerr(ctx context.Context) (string, string, error) {
	return s.baseURL, s.apiKey, nil
}

func newTestClient(baseURL string) *Client {
	return NewClient(
		staticSource{baseURL: baseURL, apiKey: "test-key"},
		config.UpstreamConfig{PrimaryTimeoutSec: 5, BestEffortTimeoutSec: 2},
		zerolog.Nop(),
	)
}

func TestClient_IsConfigured(t *testing.T) {
	if newTestClient("").IsConfigured(context.Background()) {
		t.Error("empty base URL should not be configured")
	}
	if !newTestClient("http://seerr.local").IsConfigured(context.Background()) {
		t.Error("non-empty base URL should be configured")
	}
}

func TestClient_NotConfiguredError(t *testing.T) {
	_, err := newTestClient("").Search(context.Background(), "dune", 1)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_MediaStatus(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus *int
		wantErr    bool
	}{
		{
			name: "known with status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"id":        123,
					"mediaInfo": map[string]int{"status": 3},
				})
			},
			wantStatus: intPtr(3),
		},
		{
			name: "known without media info",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{"id": 123})
			},
			wantStatus: nil,
		},
		{
			name: "unknown title",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: nil,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			status, err := newTestClient(server.URL).MediaStatus(context.Background(), 123, "movie")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MediaStatus: %v", err)
			}
			if (status == nil) != (tt.wantStatus == nil) {
				t.Fatalf("status = %v, want %v", status, tt.wantStatus)
			}
			if status != nil && *status != *tt.wantStatus {
				t.Errorf("status = %d, want %d", *status, *tt.wantStatus)
			}
		})
	}
}

func TestClient_MediaStatusTVEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).MediaStatus(context.Background(), 55, "tv"); err != nil {
		t.Fatalf("MediaStatus: %v", err)
	}
	if gotPath != "/api/v1/tv/55" {
		t.Errorf("path = %q, want /api/v1/tv/55", gotPath)
	}
}

func TestClient_SearchNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("query") != "dune" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"page": 1, "totalPages": 1, "totalResults": 3,
			"results": []map[string]interface{}{
				{
					"id": 438631, "mediaType": "movie", "title": "Dune",
					"releaseDate": "2021-09-15", "posterPath": "/dune.jpg",
					"voteAverage": 7.8, "genreIds": []int{878, 12},
					"mediaInfo": map[string]int{"status": 5},
				},
				{
					"id": 90228, "mediaType": "tv", "name": "Dune: Prophecy",
					"firstAirDate": "2024-11-17",
				},
				{"id": 1, "mediaType": "person", "name": "Denis Villeneuve"},
			},
		})
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).Search(context.Background(), "dune", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("expected person result dropped, got %d results", len(page.Results))
	}

	movie := page.Results[0]
	if movie.Title != "Dune" || movie.Year != 2021 {
		t.Errorf("unexpected movie %+v", movie)
	}
	if movie.PosterURL != "https://image.tmdb.org/t/p/w500/dune.jpg" {
		t.Errorf("PosterURL = %q", movie.PosterURL)
	}
	if movie.MediaStatus == nil || *movie.MediaStatus != 5 {
		t.Errorf("MediaStatus = %v, want 5", movie.MediaStatus)
	}
	if len(movie.Genres) != 2 || movie.Genres[0] != "Science Fiction" {
		t.Errorf("Genres = %v", movie.Genres)
	}

	show := page.Results[1]
	if show.Title != "Dune: Prophecy" {
		t.Errorf("tv name fallback failed: %q", show.Title)
	}
	if show.Year != 2024 {
		t.Errorf("tv year = %d, want 2024", show.Year)
	}
	if show.MediaStatus != nil {
		t.Errorf("MediaStatus should be nil for unknown title")
	}
}

func TestClient_RequestSeasons(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 42, "status": 1,
			"media": map[string]int{"status": 3},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Request(context.Background(), 90228, "tv", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotBody["seasons"] != "all" {
		t.Errorf("seasons = %v, want all", gotBody["seasons"])
	}
	if result.RequestID != 42 {
		t.Errorf("RequestID = %d", result.RequestID)
	}
	if result.MediaStatus == nil || *result.MediaStatus != 3 {
		t.Errorf("MediaStatus = %v, want 3", result.MediaStatus)
	}
}

func TestClient_VideosTrailersFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"key": "a", "name": "Teaser", "site": "YouTube", "type": "Teaser"},
				{"key": "b", "name": "Official Trailer", "site": "YouTube", "type": "Trailer", "official": true},
				{"key": "c", "name": "Vimeo Clip", "site": "Vimeo", "type": "Trailer"},
			},
		})
	}))
	defer server.Close()

	videos, err := newTestClient(server.URL).Videos(context.Background(), 438631, "movie")
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("non-YouTube videos should be dropped, got %d", len(videos))
	}
	if videos[0].Type != "Trailer" {
		t.Errorf("trailers should be first, got %q", videos[0].Type)
	}
	if videos[0].URL != "https://www.youtube.com/watch?v=b" {
		t.Errorf("URL = %q", videos[0].URL)
	}
}

func TestClient_Collection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/collection/726871" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 726871, "name": "Dune Collection",
			"parts": []map[string]interface{}{
				{"id": 438631, "title": "Dune", "releaseDate": "2021-09-15"},
				{"id": 693134, "title": "Dune: Part Two", "releaseDate": "2024-02-27"},
			},
		})
	}))
	defer server.Close()

	collection, err := newTestClient(server.URL).Collection(context.Background(), 726871)
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if collection.Name != "Dune Collection" || len(collection.Parts) != 2 {
		t.Errorf("unexpected collection %+v", collection)
	}
	if collection.Parts[0].MediaType != "movie" {
		t.Errorf("parts should default to movie media type")
	}
}

func intPtr(v int) *int { return &v }
