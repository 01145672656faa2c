// Package jellyseerr is the typed client for the request-fulfillment
// upstream. All of its calls are optional: the service must keep working
// when this upstream is absent or down.
package jellyseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dagzflix/dagzflix/internal/config"
	"github.com/dagzflix/dagzflix/internal/ranking"
)

var (
	ErrNotConfigured = errors.New("jellyseerr is not configured")
	ErrNotFound      = errors.New("not found")
	ErrUpstream      = errors.New("jellyseerr upstream error")
)

const (
	tmdbPosterBase   = "https://image.tmdb.org/t/p/w500"
	tmdbBackdropBase = "https://image.tmdb.org/t/p/original"
)

// Source supplies the upstream's base URL and API key at call time.
type Source interface {
	Jellyseerr(ctx context.Context) (baseURL, apiKey string, err error)
}

// Client is a Jellyseerr API client.
type Client struct {
	httpClient        *http.Client
	source            Source
	logger            zerolog.Logger
	primaryTimeout    time.Duration
	bestEffortTimeout time.Duration
}

// NewClient creates a new Jellyseerr client.
func NewClient(source Source, cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient:        &http.Client{},
		source:            source,
		logger:            logger.With().Str("component", "jellyseerr").Logger(),
		primaryTimeout:    time.Duration(cfg.PrimaryTimeoutSec) * time.Second,
		bestEffortTimeout: time.Duration(cfg.BestEffortTimeoutSec) * time.Second,
	}
}

// IsConfigured reports whether the upstream has a saved base URL.
func (c *Client) IsConfigured(ctx context.Context) bool {
	baseURL, _, err := c.source.Jellyseerr(ctx)
	return err == nil && baseURL != ""
}

// TestConnection verifies connectivity against an explicit URL and key.
func TestConnection(ctx context.Context, baseURL, apiKey string, timeout time.Duration) (version string, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/status", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jellyseerr unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return status.Version, nil
}

// MediaStatus looks up the fulfillment status code for one title.
// Returns nil when the upstream has no record of it.
func (c *Client) MediaStatus(ctx context.Context, tmdbID int, mediaType string) (*int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	endpoint := "/api/v1/movie/" + strconv.Itoa(tmdbID)
	if mediaType == "tv" {
		endpoint = "/api/v1/tv/" + strconv.Itoa(tmdbID)
	}

	var details movieDetailsResponse
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &details)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if details.MediaInfo == nil {
		return nil, nil
	}

	status := details.MediaInfo.Status
	return &status, nil
}

// Search queries the full remote catalog.
func (c *Client) Search(ctx context.Context, query string, page int) (*ResultsPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return c.toPage(resp), nil
}

// DiscoverQuery selects a discovery slice.
type DiscoverQuery struct {
	MediaType string // movie or tv
	Page      int
	GenreID   string
	SortBy    string
}

// Discover fetches a discovery page from the remote catalog.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) (*ResultsPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	endpoint := "/api/v1/discover/movies"
	if q.MediaType == "tv" {
		endpoint = "/api/v1/discover/tv"
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if q.GenreID != "" {
		params.Set("genre", q.GenreID)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}

	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, params, nil, &resp); err != nil {
		return nil, err
	}
	return c.toPage(resp), nil
}

// Request submits a media request. Seasons applies to tv only; empty
// means all seasons.
func (c *Client) Request(ctx context.Context, tmdbID int, mediaType string, seasons []int) (*RequestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	body := map[string]interface{}{
		"mediaId":   tmdbID,
		"mediaType": mediaType,
	}
	if mediaType == "tv" {
		if len(seasons) > 0 {
			body["seasons"] = seasons
		} else {
			body["seasons"] = "all"
		}
	}

	var resp requestResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/request", nil, body, &resp); err != nil {
		return nil, err
	}

	result := &RequestResult{RequestID: resp.ID, Status: resp.Status}
	if resp.Media != nil {
		status := resp.Media.Status
		result.MediaStatus = &status
	}
	return result, nil
}

// CollectionID returns the franchise collection a movie belongs to, or
// zero when it is standalone.
func (c *Client) CollectionID(ctx context.Context, tmdbID int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	var details movieDetailsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/movie/"+strconv.Itoa(tmdbID), nil, nil, &details); err != nil {
		return 0, err
	}
	if details.BelongsToCollection == nil {
		return 0, nil
	}
	return details.BelongsToCollection.ID, nil
}

// Collection fetches a franchise collection with its member titles.
func (c *Client) Collection(ctx context.Context, collectionID int) (*Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	var resp collectionResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/collection/"+strconv.Itoa(collectionID), nil, nil, &resp); err != nil {
		return nil, err
	}

	collection := &Collection{
		ID:       resp.ID,
		Name:     resp.Name,
		Overview: resp.Overview,
	}
	if resp.PosterPath != "" {
		collection.PosterURL = tmdbPosterBase + resp.PosterPath
	}
	if resp.BackdropPath != "" {
		collection.BackdropURL = tmdbBackdropBase + resp.BackdropPath
	}
	for _, part := range resp.Parts {
		if part.MediaType == "" {
			part.MediaType = "movie"
		}
		collection.Parts = append(collection.Parts, c.toResult(part))
	}
	return collection, nil
}

// Videos fetches remote trailers for a title, YouTube trailers first.
func (c *Client) Videos(ctx context.Context, tmdbID int, mediaType string) ([]Video, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	endpoint := "/api/v1/movie/" + strconv.Itoa(tmdbID) + "/videos"
	if mediaType == "tv" {
		endpoint = "/api/v1/tv/" + strconv.Itoa(tmdbID) + "/videos"
	}

	var resp videosResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}

	var videos []Video
	for _, v := range resp.Results {
		if v.Site != "YouTube" {
			continue
		}
		videos = append(videos, Video{
			Key:      v.Key,
			Name:     v.Name,
			Site:     v.Site,
			Type:     v.Type,
			Official: v.Official,
			URL:      "https://www.youtube.com/watch?v=" + v.Key,
		})
	}

	// Trailers ahead of teasers and clips, keeping upstream order
	// within each group.
	var ordered []Video
	for _, v := range videos {
		if v.Type == "Trailer" {
			ordered = append(ordered, v)
		}
	}
	for _, v := range videos {
		if v.Type != "Trailer" {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body, result interface{}) error {
	baseURL, apiKey, err := c.source.Jellyseerr(ctx)
	if err != nil {
		return fmt.Errorf("load jellyseerr config: %w", err)
	}
	if baseURL == "" {
		return ErrNotConfigured
	}

	reqURL := baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return fmt.Errorf("jellyseerr request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		c.logger.Debug().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("upstream error")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) toPage(resp searchResponse) *ResultsPage {
	page := &ResultsPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      make([]Result, 0, len(resp.Results)),
	}
	for _, raw := range resp.Results {
		// Person results carry no catalog data.
		if raw.MediaType == "person" {
			continue
		}
		page.Results = append(page.Results, c.toResult(raw))
	}
	return page
}

// toResult normalizes a raw result into the unified card shape.
func (c *Client) toResult(raw rawResult) Result {
	result := Result{
		TmdbID:      raw.ID,
		MediaType:   raw.MediaType,
		Title:       raw.Title,
		Overview:    raw.Overview,
		VoteAverage: raw.VoteAverage,
		GenreIDs:    raw.GenreIDs,
		Runtime:     raw.Runtime,
		Year:        yearOf(raw.ReleaseDate),
	}
	if result.Title == "" {
		result.Title = raw.Name
	}
	if result.Year == 0 {
		result.Year = yearOf(raw.FirstAirDate)
	}
	if raw.PosterPath != "" {
		result.PosterURL = tmdbPosterBase + raw.PosterPath
	}
	if raw.BackdropPath != "" {
		result.BackdropURL = tmdbBackdropBase + raw.BackdropPath
	}
	for _, id := range raw.GenreIDs {
		result.Genres = append(result.Genres, ranking.GenreName(id))
	}
	if raw.MediaInfo != nil {
		status := raw.MediaInfo.Status
		result.MediaStatus = &status
	}
	if raw.BelongsToCollection != nil {
		result.CollectionID = raw.BelongsToCollection.ID
	}
	return result
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
