// Package jellyfin is the typed client for the library/streaming upstream.
// Payloads are normalized at this boundary; nothing loosely typed leaves
// the package.
package jellyfin

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
)

var (
	ErrNotConfigured      = errors.New("jellyfin is not configured")
	ErrInvalidCredentials = errors.New("invalid jellyfin credentials")
	ErrItemNotFound       = errors.New("item not found")
	ErrUpstream           = errors.New("jellyfin upstream error")
)

// Ticks are Jellyfin's 100ns time unit.
const (
	ticksPerMinute = int64(600000000)
	ticksPerSecond = int64(10000000)
)

const authHeader = `MediaBrowser Client="DagzFlix", Device="Web", DeviceId="dagzflix-web", Version="1.0"`

// Source supplies the upstream's base URL and API key at call time, so a
// setup save takes effect without restarting.
type Source interface {
	Jellyfin(ctx context.Context) (baseURL, apiKey string, err error)
}

// Client is a Jellyfin API client.
type Client struct {
	httpClient        *http.Client
	source            Source
	logger            zerolog.Logger
	primaryTimeout    time.Duration
	bestEffortTimeout time.Duration
}

// NewClient creates a new Jellyfin client.
func NewClient(source Source, cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient:        &http.Client{},
		source:            source,
		logger:            logger.With().Str("component", "jellyfin").Logger(),
		primaryTimeout:    time.Duration(cfg.PrimaryTimeoutSec) * time.Second,
		bestEffortTimeout: time.Duration(cfg.BestEffortTimeoutSec) * time.Second,
	}
}

// TestConnection verifies connectivity against an explicit URL and key,
// before anything is saved.
func TestConnection(ctx context.Context, baseURL, apiKey string, timeout time.Duration) (serverName, version string, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/System/Info/Public", nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Emby-Token", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("jellyfin unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var info systemInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}
	return info.ServerName, info.Version, nil
}

// Authenticate proxies a username/password login to the upstream.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	var resp authenticateResponse
	err := c.doRequest(ctx, http.MethodPost, "/Users/AuthenticateByName", nil, "",
		map[string]string{"Username": username, "Pw": password}, &resp)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: incomplete auth response", ErrUpstream)
	}

	return &AuthResult{
		UserID:      resp.User.ID,
		Name:        resp.User.Name,
		AccessToken: resp.AccessToken,
	}, nil
}

// LibraryQuery selects a slice of the user's library.
type LibraryQuery struct {
	Type       string // Movie or Series
	Limit      int
	StartIndex int
	SortBy     string
	SortOrder  string
	GenreIDs   string
	SearchTerm string
}

// Library lists the user's library with full card fields.
func (c *Client) Library(ctx context.Context, token, userID string, q LibraryQuery) (*ItemsPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	if q.Type == "" {
		q.Type = "Movie"
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.SortBy == "" {
		q.SortBy = "DateCreated"
	}
	if q.SortOrder == "" {
		q.SortOrder = "Descending"
	}

	params := url.Values{}
	params.Set("IncludeItemTypes", q.Type)
	params.Set("Limit", strconv.Itoa(q.Limit))
	params.Set("StartIndex", strconv.Itoa(q.StartIndex))
	params.Set("SortBy", q.SortBy)
	params.Set("SortOrder", q.SortOrder)
	params.Set("Recursive", "true")
	params.Set("Fields", "Overview,Genres,CommunityRating,OfficialRating,PremiereDate,RunTimeTicks,People,ProviderIds,MediaSources")
	params.Set("ImageTypeLimit", "1")
	params.Set("EnableImageTypes", "Primary,Backdrop,Thumb")
	if q.GenreIDs != "" {
		params.Set("GenreIds", q.GenreIDs)
	}
	if q.SearchTerm != "" {
		params.Set("SearchTerm", q.SearchTerm)
	}

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}

	return &ItemsPage{Items: c.toItems(resp.Items), TotalCount: resp.TotalRecordCount}, nil
}

// Genres lists the library's genres.
func (c *Client) Genres(ctx context.Context, token, userID string) ([]Genre, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("UserId", userID)
	params.Set("SortBy", "SortName")
	params.Set("SortOrder", "Ascending")

	var resp genresResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Genres", params, token, nil, &resp); err != nil {
		return nil, err
	}

	genres := make([]Genre, len(resp.Items))
	for i, g := range resp.Items {
		genres[i] = Genre{ID: g.ID, Name: g.Name}
	}
	return genres, nil
}

// Item fetches one title with full detail fields.
func (c *Client) Item(ctx context.Context, token, userID, itemID string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	var raw rawItem
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/"+itemID, nil, token, nil, &raw); err != nil {
		return nil, err
	}

	item := c.toItem(raw)
	return &item, nil
}

// Similar fetches related titles for a detail view. Best-effort.
func (c *Client) Similar(ctx context.Context, token, userID, itemID string, limit int) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("UserId", userID)
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("Fields", "Overview,Genres,CommunityRating")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Items/"+itemID+"/Similar", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// Resume lists in-progress titles ("continue watching").
func (c *Client) Resume(ctx context.Context, token, userID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("Limit", "20")
	params.Set("Recursive", "true")
	params.Set("Fields", "Overview,Genres,CommunityRating,PremiereDate,RunTimeTicks,MediaSources")
	params.Set("MediaTypes", "Video")
	params.Set("ImageTypeLimit", "1")
	params.Set("EnableImageTypes", "Primary,Backdrop,Thumb")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/Resume", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// PlayedItems lists the user's watch history, most recent first.
// Best-effort: scoring degrades to defaults when it fails.
func (c *Client) PlayedItems(ctx context.Context, token, userID string, limit int) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("IsPlayed", "true")
	params.Set("Recursive", "true")
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("Fields", "Genres")
	params.Set("SortBy", "DatePlayed")
	params.Set("SortOrder", "Descending")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// CatalogSample fetches a random sample of movies and series to rank.
func (c *Client) CatalogSample(ctx context.Context, token, userID string, limit int) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("Recursive", "true")
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("IncludeItemTypes", "Movie,Series")
	params.Set("Fields", "Overview,Genres,CommunityRating,PremiereDate")
	params.Set("SortBy", "Random")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// Search runs a plain library search.
func (c *Client) Search(ctx context.Context, token, userID, query string, limit int) (*ItemsPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("SearchTerm", query)
	params.Set("Recursive", "true")
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("Fields", "Overview,Genres,CommunityRating,ProviderIds")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return &ItemsPage{Items: c.toItems(resp.Items), TotalCount: resp.TotalRecordCount}, nil
}

// Seasons lists a series' seasons.
func (c *Client) Seasons(ctx context.Context, token, userID, seriesID string) ([]Season, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("UserId", userID)
	params.Set("Fields", "Overview,Genres,CommunityRating")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Shows/"+seriesID+"/Seasons", params, token, nil, &resp); err != nil {
		return nil, err
	}

	seasons := make([]Season, len(resp.Items))
	for i, raw := range resp.Items {
		season := Season{
			ID:           raw.ID,
			Name:         raw.Name,
			IndexNumber:  raw.IndexNumber,
			EpisodeCount: raw.ChildCount,
			Year:         raw.ProductionYear,
			PosterURL:    imageURL(raw.ID, "Primary", 300),
		}
		if raw.UserData != nil {
			season.IsPlayed = raw.UserData.Played
			season.PlayedPercentage = raw.UserData.PlayedPercentage
		}
		seasons[i] = season
	}
	return seasons, nil
}

// Episodes lists a series' episodes, optionally scoped to one season.
func (c *Client) Episodes(ctx context.Context, token, userID, seriesID, seasonID string) ([]Episode, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("UserId", userID)
	params.Set("Fields", "Overview,MediaSources,RunTimeTicks")
	if seasonID != "" {
		params.Set("SeasonId", seasonID)
	}

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Shows/"+seriesID+"/Episodes", params, token, nil, &resp); err != nil {
		return nil, err
	}

	episodes := make([]Episode, len(resp.Items))
	for i, raw := range resp.Items {
		ep := Episode{
			ID:                raw.ID,
			Name:              raw.Name,
			IndexNumber:       raw.IndexNumber,
			ParentIndexNumber: raw.ParentIndexNumber,
			Overview:          raw.Overview,
			Runtime:           int(raw.RunTimeTicks / ticksPerMinute),
			ThumbURL:          imageURL(raw.ID, "Primary", 400),
			HasMediaSource:    len(raw.MediaSources) > 0,
		}
		if raw.UserData != nil {
			ep.IsPlayed = raw.UserData.Played
			ep.PlaybackPositionTicks = raw.UserData.PlaybackPositionTicks
		}
		episodes[i] = ep
	}
	return episodes, nil
}

// LocalTrailers lists trailers stored alongside a title. Best-effort.
func (c *Client) LocalTrailers(ctx context.Context, token, userID, itemID string) ([]Trailer, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	var raw []rawItem
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/"+itemID+"/LocalTrailers", nil, token, nil, &raw); err != nil {
		return nil, err
	}

	trailers := make([]Trailer, len(raw))
	for i, t := range raw {
		trailers[i] = Trailer{ID: t.ID, Name: t.Name}
	}
	return trailers, nil
}

// BoxSets lists the library's grouped collections, capped at limit.
// Best-effort: only the collection lookup's local pass uses it.
func (c *Client) BoxSets(ctx context.Context, token, userID string, limit int) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("IncludeItemTypes", "BoxSet")
	params.Set("Recursive", "true")
	params.Set("Limit", strconv.Itoa(limit))

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// BoxSetItems lists the members of one box set. Best-effort.
func (c *Client) BoxSetItems(ctx context.Context, token, userID, boxSetID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bestEffortTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("ParentId", boxSetID)
	params.Set("Fields", "Overview,Genres,CommunityRating,ProviderIds")

	var resp itemsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items", params, token, nil, &resp); err != nil {
		return nil, err
	}
	return c.toItems(resp.Items), nil
}

// Available reports whether a title has playable media sources.
func (c *Client) Available(ctx context.Context, token, userID, itemID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	var raw rawItem
	if err := c.doRequest(ctx, http.MethodGet, "/Users/"+userID+"/Items/"+itemID, nil, token, nil, &raw); err != nil {
		return false, err
	}
	return len(raw.MediaSources) > 0, nil
}

// webIncompatibleAudio lists codecs browsers cannot decode natively.
var webIncompatibleAudio = map[string]bool{
	"dts": true, "truehd": true, "eac3": true, "dca": true,
	"flac": true, "pcm": true, "mlp": true,
}

// StreamInfo negotiates playback with the upstream and builds the HLS
// stream URL (video remux, audio transcoded to aac/mp3 when the source
// codec is not browser-playable) plus a direct-play fallback.
func (c *Client) StreamInfo(ctx context.Context, token, userID, itemID string) (*StreamInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	baseURL, _, err := c.base(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"DeviceProfile": map[string]interface{}{
			"MaxStreamingBitrate": 120000000,
			"DirectPlayProfiles": []map[string]string{
				{"Container": "mp4,m4v,mkv,webm,avi,mov", "Type": "Video"},
			},
			"TranscodingProfiles": []map[string]interface{}{
				{
					"Container":           "ts",
					"Type":                "Video",
					"VideoCodec":          "h264,hevc",
					"AudioCodec":          "aac,mp3",
					"Context":             "Streaming",
					"Protocol":            "hls",
					"MaxAudioChannels":    "2",
					"BreakOnNonKeyFrames": true,
				},
			},
			"SubtitleProfiles": []map[string]string{
				{"Format": "vtt", "Method": "External"},
				{"Format": "srt", "Method": "External"},
				{"Format": "ass", "Method": "External"},
			},
		},
	}

	params := url.Values{}
	params.Set("UserId", userID)

	var resp playbackInfoResponse
	if err := c.doRequest(ctx, http.MethodPost, "/Items/"+itemID+"/PlaybackInfo", params, token, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaSources) == 0 {
		return nil, ErrItemNotFound
	}

	source := resp.MediaSources[0]

	hls := url.Values{}
	hls.Set("api_key", token)
	hls.Set("MediaSourceId", source.ID)
	hls.Set("PlaySessionId", resp.PlaySessionID)
	hls.Set("VideoCodec", "copy")
	hls.Set("AudioCodec", "aac,mp3")
	hls.Set("TranscodingMaxAudioChannels", "2")
	hls.Set("SegmentContainer", "ts")
	hls.Set("MinSegmentLength", "1")
	hls.Set("BreakOnNonKeyFrames", "true")

	direct := url.Values{}
	direct.Set("Static", "true")
	direct.Set("MediaSourceId", source.ID)
	direct.Set("PlaySessionId", resp.PlaySessionID)
	direct.Set("api_key", token)

	info := &StreamInfo{
		StreamURL:     fmt.Sprintf("%s/Videos/%s/master.m3u8?%s", baseURL, itemID, hls.Encode()),
		DirectPlayURL: fmt.Sprintf("%s/Videos/%s/stream?%s", baseURL, itemID, direct.Encode()),
		Duration:      int(source.RunTimeTicks / ticksPerSecond),
		PlaySessionID: resp.PlaySessionID,
		MediaSourceID: source.ID,
	}

	var defaultAudio *rawStream
	for i := range source.MediaStreams {
		stream := source.MediaStreams[i]
		switch stream.Type {
		case "Audio":
			if defaultAudio == nil || stream.IsDefault {
				defaultAudio = &source.MediaStreams[i]
			}
			info.AudioTracks = append(info.AudioTracks, AudioTrack{
				Index:        stream.Index,
				Language:     orDefault(stream.Language, "und"),
				DisplayTitle: orDefault(stream.DisplayTitle, stream.Title),
				Codec:        stream.Codec,
				Channels:     orDefaultInt(stream.Channels, 2),
				IsDefault:    stream.IsDefault,
			})
		case "Subtitle":
			subURL := stream.DeliveryURL
			if subURL != "" {
				subURL = baseURL + subURL
			} else {
				ext := stream.Codec
				if ext == "webvtt" {
					ext = "vtt"
				} else if ext == "" {
					ext = "srt"
				}
				subURL = fmt.Sprintf("%s/Videos/%s/Subtitles/%d/Stream.%s?api_key=%s", baseURL, itemID, stream.Index, ext, token)
			}
			info.Subtitles = append(info.Subtitles, SubtitleTrack{
				Index:        stream.Index,
				Language:     orDefault(stream.Language, "und"),
				DisplayTitle: orDefault(stream.DisplayTitle, stream.Title),
				Codec:        stream.Codec,
				URL:          subURL,
			})
		}
	}

	if defaultAudio != nil {
		info.AudioCodec = defaultAudio.Codec
		info.NeedsAudioTranscode = webIncompatibleAudio[defaultAudio.Codec]
	}

	return info, nil
}

// ReportProgress forwards a playback report to the upstream. The target
// endpoint depends on where in the session lifecycle the report falls.
func (c *Client) ReportProgress(ctx context.Context, token string, report ProgressReport) error {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	endpoint := "/Sessions/Playing/Progress"
	if report.IsStopped {
		endpoint = "/Sessions/Playing/Stopped"
	} else if report.PositionTicks == 0 {
		endpoint = "/Sessions/Playing"
	}

	body := map[string]interface{}{
		"ItemId":        report.ItemID,
		"PositionTicks": report.PositionTicks,
		"IsPaused":      report.IsPaused,
		"PlaySessionId": report.PlaySessionID,
		"MediaSourceId": report.ItemID,
		"CanSeek":       true,
		"PlayMethod":    "Transcode",
	}

	return c.doRequest(ctx, http.MethodPost, endpoint, nil, token, body, nil)
}

var errUnauthorized = errors.New("unauthorized")

func (c *Client) base(ctx context.Context) (baseURL, apiKey string, err error) {
	baseURL, apiKey, err = c.source.Jellyfin(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load jellyfin config: %w", err)
	}
	if baseURL == "" {
		return "", "", ErrNotConfigured
	}
	return baseURL, apiKey, nil
}

// doRequest performs an HTTP request against the upstream and decodes
// the JSON response into result (which may be nil for 204 responses).
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, token string, body, result interface{}) error {
	baseURL, apiKey, err := c.base(ctx)
	if err != nil {
		return err
	}

	reqURL := baseURL + path
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-Emby-Token", token)
	} else if apiKey != "" {
		req.Header.Set("X-Emby-Token", apiKey)
	}
	req.Header.Set("X-Emby-Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("request failed")
		return fmt.Errorf("jellyfin request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrItemNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("upstream error")
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

// imageURL builds the image-proxy path the UI loads artwork through.
func imageURL(itemID, imageType string, maxWidth int) string {
	return fmt.Sprintf("/api/proxy/image?itemId=%s&type=%s&maxWidth=%d", itemID, imageType, maxWidth)
}

func (c *Client) toItems(raw []rawItem) []Item {
	items := make([]Item, len(raw))
	for i, r := range raw {
		items[i] = c.toItem(r)
	}
	return items
}

// toItem normalizes a loose upstream payload into the fixed Item shape.
func (c *Client) toItem(raw rawItem) Item {
	item := Item{
		ID:              raw.ID,
		Name:            raw.Name,
		OriginalTitle:   raw.OriginalTitle,
		Type:            raw.Type,
		SeriesName:      raw.SeriesName,
		Overview:        raw.Overview,
		Genres:          raw.Genres,
		CommunityRating: raw.CommunityRating,
		OfficialRating:  raw.OfficialRating,
		PremiereDate:    raw.PremiereDate,
		Year:            raw.ProductionYear,
		Runtime:         int(raw.RunTimeTicks / ticksPerMinute),
		PosterURL:       imageURL(raw.ID, "Primary", 400),
		BackdropURL:     imageURL(raw.ID, "Backdrop", 1920),
		ThumbURL:        imageURL(raw.ID, "Thumb", 600),
		Taglines:        raw.Taglines,
		ProviderIDs:     raw.ProviderIDs,
		HasSubtitles:    raw.HasSubtitles,
		HasMediaSources: len(raw.MediaSources) > 0,
	}
	if item.Genres == nil {
		item.Genres = []string{}
	}

	for i, p := range raw.People {
		if i >= 5 {
			break
		}
		item.People = append(item.People, Person{Name: p.Name, Role: p.Role, Type: p.Type})
	}
	for _, s := range raw.Studios {
		item.Studios = append(item.Studios, s.Name)
	}
	if raw.UserData != nil {
		item.IsPlayed = raw.UserData.Played
		item.PlaybackPositionTicks = raw.UserData.PlaybackPositionTicks
		item.PlaybackPercentage = raw.UserData.PlayedPercentage
	}
	return item
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	if fallback != "" {
		return fallback
	}
	return "und"
}

func orDefaultInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}
